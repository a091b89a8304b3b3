// Package explain turns the loosely-typed explanation payloads produced by
// the backend's analysis agents into one canonical, display-ready record.
//
// Agents have emitted at least five shapes of the same data over time:
// structured objects, JSON serialized into strings (often inside markdown
// code fences), legacy {flags, summary} objects, free text, and the odd
// array or scalar. Normalize accepts all of them and never fails; the only
// signal it returns about input quality is Explanation.HasReadableContent.
package explain

import "strings"

// AgentName identifies the backend agent that produced a result.
type AgentName string

const (
	AgentUnknown     AgentName = ""
	AgentDocument    AgentName = "document"
	AgentSimilarity  AgentName = "similarity"
	AgentFraud       AgentName = "fraud"
	AgentDecision    AgentName = "decision"
	AgentExplanation AgentName = "explanation"
	AgentBehavior    AgentName = "behavior"
	AgentImage       AgentName = "image"
)

// Agents lists every known agent in the order the backend bundles them.
var Agents = []AgentName{
	AgentDocument,
	AgentSimilarity,
	AgentFraud,
	AgentDecision,
	AgentExplanation,
	AgentBehavior,
	AgentImage,
}

// ParseAgentName maps a raw agent identifier to a known AgentName.
// Matching ignores case and surrounding whitespace; anything else is
// AgentUnknown.
func ParseAgentName(s string) AgentName {
	name := AgentName(strings.ToLower(strings.TrimSpace(s)))
	for _, a := range Agents {
		if a == name {
			return a
		}
	}
	return AgentUnknown
}

func (a AgentName) String() string {
	if a == AgentUnknown {
		return "unknown"
	}
	return string(a)
}
