package explain

import (
	"strings"

	"github.com/josephgoksu/CreditDesk/internal/utils"
)

// Normalize turns the raw explanations payload emitted by agent name into
// an Explanation. It accepts any bytes, never panics and has no side
// effects; the same input always yields the same output.
func Normalize(name string, raw []byte) Explanation {
	return NormalizePayload(ParseAgentName(name), Coerce(raw))
}

// NormalizePayload is Normalize for an already coerced payload.
func NormalizePayload(agent AgentName, p Payload) Explanation {
	e := Explanation{
		Agent:         agent,
		Payload:       p,
		GlobalSummary: optString(p.Get("global_summary")),
		Customer:      extractCustomer(p.Get("customer_explanation")),
		Internal:      extractInternal(p.Get("internal_explanation")),
		Flags:         extractFlags(p.Get("flag_explanations"), agent),
	}

	switch agent {
	case AgentSimilarity:
		if r := extractSimilarity(p.Get("similarity_details")); r != nil {
			e.Block, e.Similarity = BlockSimilarity, r
		}
	case AgentDecision:
		if r := extractDecision(p.Get("decision_details")); r != nil {
			e.Block, e.Decision = BlockDecision, r
		}
	case AgentDocument:
		if r := extractDocument(p.Get("document_details")); r != nil {
			e.Block, e.Document = BlockDocument, r
		}
	}

	e.SummarySuppressed = suppressGlobalSummary(e)
	e.HasReadableContent = e.GlobalSummary != nil ||
		e.Customer.Summary != nil ||
		e.Internal.Summary != nil ||
		len(e.Flags) > 0 ||
		e.Block != BlockNone
	return e
}

// suppressGlobalSummary hides the top-level summary when the agent block
// already says the same thing. The decision block compares texts loosely;
// an active document block always takes over the summary slot.
func suppressGlobalSummary(e Explanation) bool {
	if e.GlobalSummary == nil {
		return false
	}
	switch e.Block {
	case BlockDecision:
		return e.Decision.Summary != nil && sameSentence(*e.GlobalSummary, *e.Decision.Summary)
	case BlockDocument:
		return true
	default:
		return false
	}
}

func sameSentence(a, b string) bool {
	a = strings.ToLower(utils.NormalizeSpace(a))
	b = strings.ToLower(utils.NormalizeSpace(b))
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}
