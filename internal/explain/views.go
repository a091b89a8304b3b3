package explain

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/josephgoksu/CreditDesk/internal/utils"
)

// CustomerView is the explanation addressed to the applicant.
type CustomerView struct {
	Summary     *string  `json:"summary,omitempty" yaml:"summary,omitempty"`
	MainReasons []string `json:"main_reasons,omitempty" yaml:"main_reasons,omitempty"`
	NextSteps   []string `json:"next_steps,omitempty" yaml:"next_steps,omitempty"`
}

// IsEmpty reports whether the view carries nothing to display.
func (v CustomerView) IsEmpty() bool {
	return v.Summary == nil && len(v.MainReasons) == 0 && len(v.NextSteps) == 0
}

// InternalView is the explanation addressed to the banker.
type InternalView struct {
	Summary           *string  `json:"summary,omitempty" yaml:"summary,omitempty"`
	KeyFactors        []string `json:"key_factors,omitempty" yaml:"key_factors,omitempty"`
	SupportingSignals []string `json:"supporting_signals,omitempty" yaml:"supporting_signals,omitempty"`
	PaymentHistory    *string  `json:"payment_history,omitempty" yaml:"payment_history,omitempty"`
	RiskLevel         *string  `json:"risk_level,omitempty" yaml:"risk_level,omitempty"`
}

// IsEmpty reports whether the view carries nothing to display.
func (v InternalView) IsEmpty() bool {
	return v.Summary == nil && len(v.KeyFactors) == 0 && len(v.SupportingSignals) == 0 &&
		v.PaymentHistory == nil && v.RiskLevel == nil
}

// FlagExplanation is one entry of flag_explanations, in payload order.
type FlagExplanation struct {
	Code  string `json:"code" yaml:"code"`
	Label string `json:"label" yaml:"label"`
	Text  string `json:"text" yaml:"text"`
}

// viewSummary reads the summary of an audience view. A bare string is
// accepted as the summary itself.
func viewSummary(v gjson.Result) *string {
	if v.Type == gjson.String {
		return optString(v)
	}
	return optString(v.Get("summary"))
}

func extractCustomer(v gjson.Result) CustomerView {
	if v.Type == gjson.String {
		return CustomerView{Summary: optString(v)}
	}
	obj, ok := objectOrNil(v)
	if !ok {
		return CustomerView{}
	}
	return CustomerView{
		Summary:     viewSummary(obj),
		MainReasons: stringList(obj.Get("main_reasons")),
		NextSteps:   stringList(obj.Get("next_steps")),
	}
}

func extractInternal(v gjson.Result) InternalView {
	if v.Type == gjson.String {
		return InternalView{Summary: optString(v)}
	}
	obj, ok := objectOrNil(v)
	if !ok {
		return InternalView{}
	}
	view := InternalView{
		Summary:           viewSummary(obj),
		KeyFactors:        stringList(obj.Get("key_factors")),
		SupportingSignals: stringList(obj.Get("supporting_signals")),
		PaymentHistory:    paymentHistoryText(obj.Get("payment_history")),
		RiskLevel:         optScalar(obj.Get("risk_level")),
	}
	// Older agents filled the internal view with the customer field names.
	if len(view.KeyFactors) == 0 {
		view.KeyFactors = stringList(obj.Get("main_reasons"))
	}
	if len(view.SupportingSignals) == 0 {
		view.SupportingSignals = stringList(obj.Get("next_steps"))
	}
	return view
}

// paymentHistoryText accepts a string or a {label, note} object.
func paymentHistoryText(v gjson.Result) *string {
	if s := optString(v); s != nil {
		return s
	}
	if !v.IsObject() {
		return nil
	}
	label := optString(v.Get("label"))
	note := optString(v.Get("note"))
	switch {
	case label != nil && note != nil:
		s := *label + " : " + *note
		return &s
	case label != nil:
		return label
	default:
		return note
	}
}

// extractFlags walks flag_explanations in document order. Anything but an
// object yields no entries. A repeated code keeps its first position and
// its last value.
func extractFlags(v gjson.Result, agent AgentName) []FlagExplanation {
	if !v.IsObject() {
		return nil
	}
	var out []FlagExplanation
	seen := make(map[string]int)
	v.ForEach(func(key, value gjson.Result) bool {
		code := key.String()
		flag := FlagExplanation{
			Code:  code,
			Label: ResolveLabel(code, agent),
			Text:  resolveFlagText(code, value),
		}
		if i, ok := seen[code]; ok {
			out[i] = flag
			return true
		}
		seen[code] = len(out)
		out = append(out, flag)
		return true
	})
	return out
}

// resolveFlagText produces the display text of one flag explanation. String
// values are often a whole agent answer wrapped in fences; the flag's own
// entry inside it wins, then its summary, then the cleaned string.
func resolveFlagText(code string, v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		decoded := utils.DecodeJSONObject(v.Str, utils.ModeEmbedded)
		if decoded.OK {
			if s := textFromEmbedded(code, decoded.Object); s != "" {
				return s
			}
		}
		return decoded.Cleaned
	case gjson.Null:
		return ""
	case gjson.JSON:
		if v.IsObject() {
			if s := textFromEmbedded(code, v); s != "" {
				return s
			}
		}
		return v.Raw
	default:
		return v.String()
	}
}

// textFromEmbedded looks for code in an embedded flag map, then for an
// embedded summary.
func textFromEmbedded(code string, obj gjson.Result) string {
	for _, mapKey := range []string{"flag_explanations", "flags"} {
		m := obj.Get(mapKey)
		if !m.IsObject() {
			continue
		}
		var found string
		m.ForEach(func(key, value gjson.Result) bool {
			if strings.EqualFold(key.String(), code) {
				found = itemText(value)
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	for _, key := range []string{"global_summary", "summary"} {
		if s := optString(obj.Get(key)); s != nil {
			return *s
		}
	}
	return ""
}
