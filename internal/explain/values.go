package explain

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Field coercion. Each helper returns nil/zero when the value has an
// unexpected type instead of failing.

func optString(v gjson.Result) *string {
	if v.Type != gjson.String {
		return nil
	}
	s := strings.TrimSpace(v.Str)
	if s == "" {
		return nil
	}
	return &s
}

// optScalar accepts strings, numbers and booleans and returns their text.
func optScalar(v gjson.Result) *string {
	switch v.Type {
	case gjson.String:
		return optString(v)
	case gjson.Number, gjson.True, gjson.False:
		s := v.String()
		return &s
	default:
		return nil
	}
}

func optFloat(v gjson.Result) *float64 {
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Num
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(v.Str, ",", ".")), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func optInt(v gjson.Result) *int {
	f := optFloat(v)
	if f == nil || *f > math.MaxInt32 || *f < math.MinInt32 {
		return nil
	}
	n := int(math.Round(*f))
	return &n
}

// optCount is optInt for counts: negative values read as 0.
func optCount(v gjson.Result) *int {
	n := optInt(v)
	if n != nil && *n < 0 {
		*n = 0
	}
	return n
}

// count dereferences a count, treating nil and negative values as 0.
func count(p *int) int {
	if p == nil || *p < 0 {
		return 0
	}
	return *p
}

func optBool(v gjson.Result) *bool {
	var b bool
	switch v.Type {
	case gjson.True:
		b = true
	case gjson.False:
		b = false
	case gjson.String:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v.Str))
		if err != nil {
			return nil
		}
		b = parsed
	default:
		return nil
	}
	return &b
}

// itemText extracts display text from one array element. Objects contribute
// their first descriptive field, or their raw JSON when they have none.
func itemText(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return strings.TrimSpace(v.Str)
	case gjson.Number, gjson.True, gjson.False:
		return v.String()
	case gjson.JSON:
		if v.IsObject() {
			for _, key := range []string{"label", "text", "description", "summary", "message"} {
				if s := optString(v.Get(key)); s != nil {
					return *s
				}
			}
		}
		return v.Raw
	default:
		return ""
	}
}

// stringList returns the non-empty items of an array, in order. Anything
// that is not an array yields nil.
func stringList(v gjson.Result) []string {
	if !v.IsArray() {
		return nil
	}
	var out []string
	for _, item := range v.Array() {
		if s := itemText(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func objectOrNil(v gjson.Result) (gjson.Result, bool) {
	if v.IsObject() {
		return v, true
	}
	return gjson.Result{}, false
}
