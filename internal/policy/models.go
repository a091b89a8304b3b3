// Package policy evaluates banker decisions against Rego guardrails using
// OPA (Open Policy Agent) before they are sent to the backend.
package policy

import (
	"encoding/json"
	"time"
)

// PolicyDecision represents the outcome of evaluating a policy against some input.
// This is stored in the policy_decisions table for audit trail and compliance.
type PolicyDecision struct {
	ID          int64     `json:"id"`                   // Auto-increment primary key
	DecisionID  string    `json:"decisionId"`           // UUID for referencing
	PolicyPath  string    `json:"policyPath"`           // Rego package path (e.g., "creditdesk.policy")
	Result      string    `json:"result"`               // "allow" or "deny"
	Violations  []string  `json:"violations,omitempty"` // Deny messages from OPA
	Warnings    []string  `json:"warnings,omitempty"`   // Warn messages from OPA
	Input       any       `json:"input"`                // The input that was evaluated
	RequestID   string    `json:"requestId,omitempty"`  // Credit request the decision was about
	UserID      string    `json:"userId,omitempty"`     // Banker who attempted the decision
	EvaluatedAt time.Time `json:"evaluatedAt"`          // When the evaluation occurred
}

// PolicyResult constants.
const (
	PolicyResultAllow = "allow"
	PolicyResultDeny  = "deny"
)

// IsAllowed returns true if the policy decision was "allow".
func (d *PolicyDecision) IsAllowed() bool {
	return d.Result == PolicyResultAllow
}

// IsDenied returns true if the policy decision was "deny".
func (d *PolicyDecision) IsDenied() bool {
	return d.Result == PolicyResultDeny
}

func marshalList(list []string) string {
	if len(list) == 0 {
		return "[]"
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// InputJSON returns the input as a JSON string for storage.
func (d *PolicyDecision) InputJSON() string {
	if d.Input == nil {
		return "{}"
	}
	b, err := json.Marshal(d.Input)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// parseList parses a JSON array of strings, as stored by marshalList.
func parseList(s string) []string {
	if s == "" || s == "[]" {
		return nil
	}
	var v []string
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil
	}
	return v
}

// DecisionInput is what Rego policies receive in the `input` variable when a
// banker records a decision.
type DecisionInput struct {
	Decision string       `json:"decision"`
	Note     string       `json:"note"`
	Request  RequestInput `json:"request"`
	Agent    *AgentInput  `json:"agent,omitempty"`
	User     *UserInput   `json:"user,omitempty"`
}

// RequestInput describes the credit request being decided.
type RequestInput struct {
	ID                 string   `json:"id"`
	Status             string   `json:"status"`
	Amount             *float64 `json:"amount,omitempty"`
	AutoDecision       string   `json:"auto_decision,omitempty"`
	AutoReviewRequired bool     `json:"auto_review_required"`
}

// AgentInput is the decision agent's normalized report.
type AgentInput struct {
	Recommendation      string   `json:"recommendation"`
	Confidence          *float64 `json:"confidence,omitempty"`
	HumanReviewRequired bool     `json:"human_review_required"`
	ReviewTriggers      []string `json:"review_triggers,omitempty"`
	RiskIndicators      []string `json:"risk_indicators,omitempty"`
	ConflictCount       int      `json:"conflict_count"`
}

// UserInput identifies the banker.
type UserInput struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}
