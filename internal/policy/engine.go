package policy

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/spf13/afero"
)

// DefaultPolicyPackage is the Rego package queried for CreditDesk policies.
const DefaultPolicyPackage = "creditdesk.policy"

//go:embed default.rego
var defaultPolicy string

// DefaultPolicy returns the built-in guardrails.
func DefaultPolicy() *PolicyFile {
	return &PolicyFile{Name: "default", Path: "default.rego", Content: defaultPolicy}
}

// Engine wraps OPA for policy evaluation.
// It loads policies from .rego files and evaluates them against input data.
// All evaluation happens locally without external network calls.
type Engine struct {
	policies      []*PolicyFile
	policyPackage string
}

// EngineConfig holds configuration for creating an Engine.
type EngineConfig struct {
	// PoliciesDir is the directory containing user .rego policy files.
	// A missing directory is not an error.
	PoliciesDir string

	// PolicyPackage is the Rego package to query.
	// If empty, defaults to "creditdesk.policy"
	PolicyPackage string

	// SkipDefault leaves the built-in policy out.
	SkipDefault bool

	// Fs is the filesystem to use for loading policies.
	// If nil, uses the OS filesystem.
	Fs afero.Fs
}

// NewEngine creates a new policy engine with the built-in policy plus every
// policy found in cfg.PoliciesDir.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.PolicyPackage == "" {
		cfg.PolicyPackage = DefaultPolicyPackage
	}

	var policies []*PolicyFile
	if !cfg.SkipDefault {
		policies = append(policies, DefaultPolicy())
	}
	if cfg.PoliciesDir != "" {
		loaded, err := NewLoader(cfg.Fs, cfg.PoliciesDir).LoadAll()
		if err != nil {
			return nil, fmt.Errorf("load policies: %w", err)
		}
		policies = append(policies, loaded...)
	}

	for _, p := range policies {
		if err := ValidatePolicy(p.Content); err != nil {
			return nil, fmt.Errorf("policy %s: %w", p.Path, err)
		}
	}

	return &Engine{
		policies:      policies,
		policyPackage: cfg.PolicyPackage,
	}, nil
}

// NewEngineWithPolicies creates an engine with explicitly provided policies.
func NewEngineWithPolicies(policies ...*PolicyFile) *Engine {
	return &Engine{
		policies:      policies,
		policyPackage: DefaultPolicyPackage,
	}
}

// PolicyNames returns the names of all loaded policies.
func (e *Engine) PolicyNames() []string {
	names := make([]string, len(e.policies))
	for i, p := range e.policies {
		names[i] = p.Name
	}
	return names
}

// Evaluate runs all loaded policies against the provided input.
//
// The function queries the "deny" and "warn" rules in the policy package.
// Any strings returned by "deny" rules become violations that block the action.
// Any strings returned by "warn" rules are reported but don't block.
func (e *Engine) Evaluate(ctx context.Context, input any) (*PolicyDecision, error) {
	decision := &PolicyDecision{
		DecisionID:  uuid.New().String(),
		PolicyPath:  e.policyPackage,
		Result:      PolicyResultAllow,
		Input:       input,
		EvaluatedAt: time.Now().UTC(),
	}
	if len(e.policies) == 0 {
		return decision, nil
	}

	modules := make([]func(*rego.Rego), len(e.policies))
	for i, p := range e.policies {
		modules[i] = rego.Module(p.Path, p.Content)
	}

	violations, err := e.querySet(ctx, input, "deny", modules)
	if err != nil {
		return nil, fmt.Errorf("query deny rules: %w", err)
	}
	warnings, err := e.querySet(ctx, input, "warn", modules)
	if err != nil {
		return nil, fmt.Errorf("query warn rules: %w", err)
	}

	decision.Violations = violations
	decision.Warnings = warnings
	if len(violations) > 0 {
		decision.Result = PolicyResultDeny
	}
	return decision, nil
}

// EvaluateDecision is a convenience method for checking a banker decision.
func (e *Engine) EvaluateDecision(ctx context.Context, input *DecisionInput) (*PolicyDecision, error) {
	decision, err := e.Evaluate(ctx, input)
	if err != nil {
		return nil, err
	}
	decision.RequestID = input.Request.ID
	if input.User != nil {
		decision.UserID = input.User.ID
	}
	return decision, nil
}

// querySet queries a set-generating rule (like deny or warn) and returns all string values.
func (e *Engine) querySet(ctx context.Context, input any, ruleName string, modules []func(*rego.Rego)) ([]string, error) {
	query := fmt.Sprintf("data.%s.%s", e.policyPackage, ruleName)

	opts := []func(*rego.Rego){
		rego.Query(query),
		rego.Input(input),
	}
	opts = append(opts, modules...)

	rs, err := rego.New(opts...).Eval(ctx)
	if err != nil {
		// Rule not defined is OK
		if strings.Contains(err.Error(), "undefined") {
			return nil, nil
		}
		return nil, err
	}

	var results []string
	for _, result := range rs {
		for _, expr := range result.Expressions {
			if set, ok := expr.Value.([]any); ok {
				for _, item := range set {
					if s, ok := item.(string); ok {
						results = append(results, s)
					}
				}
			}
		}
	}
	return results, nil
}

// ValidatePolicy checks if a policy has valid Rego syntax.
// Returns nil if valid, or an error describing the syntax problem.
func ValidatePolicy(content string) error {
	_, err := rego.New(
		rego.Query("data"),
		rego.Module("validation.rego", content),
	).PrepareForEval(context.Background())
	if err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}
	return nil
}
