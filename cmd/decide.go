/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/josephgoksu/CreditDesk/internal/config"
	"github.com/josephgoksu/CreditDesk/internal/explain"
	"github.com/josephgoksu/CreditDesk/internal/policy"
	"github.com/josephgoksu/CreditDesk/internal/session"
	"github.com/josephgoksu/CreditDesk/internal/snapshot"
	"github.com/josephgoksu/CreditDesk/internal/ui"
	"github.com/josephgoksu/CreditDesk/models"
	"github.com/josephgoksu/CreditDesk/types"
	"github.com/spf13/cobra"
)

var (
	decideNote   string
	decideDryRun bool
)

var decideCmd = &cobra.Command{
	Use:   "decide <id> <approve|reject|review>",
	Short: "Record a banker decision on a credit request",
	Long: `Record a decision. The decision is first checked against the decision
policies: the built-in one plus any .rego file in .creditdesk/policies/.
Deny rules block the decision, warn rules are printed. Every evaluation is
kept in the local audit trail ('creditdesk policy audit').

Examples:
  creditdesk decide 42 approve --note "Dossier complet"
  creditdesk decide 42 reject --dry-run`,
	Args: cobra.ExactArgs(2),
	RunE: runDecide,
}

func init() {
	rootCmd.AddCommand(decideCmd)
	decideCmd.Flags().StringVarP(&decideNote, "note", "n", "", "note attached to the decision")
	decideCmd.Flags().BoolVar(&decideDryRun, "dry-run", false, "evaluate the policies without recording the decision")
}

// decisionInput builds the policy input for a decision on req.
func decisionInput(req *models.BankerRequest, body models.DecisionCreate, sess *session.Session, cache *explain.Cache) *policy.DecisionInput {
	in := &policy.DecisionInput{
		Decision: string(body.Decision),
		Note:     body.Note,
		Request: policy.RequestInput{
			ID:           req.ID,
			Status:       string(req.Status),
			Amount:       req.Amount,
			AutoDecision: req.AutoDecision,
		},
		User: &policy.UserInput{ID: sess.UserID, Email: sess.Email},
	}
	if req.AutoReviewRequired != nil {
		in.Request.AutoReviewRequired = *req.AutoReviewRequired
	}
	if r := req.Agents.Get(string(explain.AgentDecision)); r != nil {
		e := cache.Normalize(r.Name, r.Explanations)
		if d := e.Decision; d != nil {
			in.Agent = &policy.AgentInput{
				Recommendation:      string(d.Recommendation),
				Confidence:          d.Confidence,
				HumanReviewRequired: d.HumanReviewRequired,
				ReviewTriggers:      d.ReviewTriggers,
				RiskIndicators:      d.RiskIndicators,
				ConflictCount:       len(d.Conflicts),
			}
		}
	}
	return in
}

// checkDecision evaluates the decision policies and records the outcome.
func checkDecision(cmd *cobra.Command, in *policy.DecisionInput, st *snapshot.Store) (*policy.PolicyDecision, error) {
	if !GetConfig().Policy.Enabled {
		return nil, nil
	}
	dir := GetConfig().Policy.Dir
	if dir == "" {
		dir = config.GetPolicyDir()
	}
	engine, err := policy.NewEngine(policy.EngineConfig{PoliciesDir: dir, Fs: appFs})
	if err != nil {
		return nil, fmt.Errorf("create policy engine: %w", err)
	}
	decision, err := engine.EvaluateDecision(cmd.Context(), in)
	if err != nil {
		return nil, fmt.Errorf("evaluate policies: %w", err)
	}
	slog.Debug("policy evaluated", "decision_id", decision.DecisionID, "result", decision.Result, "policies", engine.PolicyNames())

	if st != nil {
		if err := policy.NewAuditStore(st.DB()).SaveDecision(decision); err != nil {
			slog.Warn("failed to record policy decision", "error", err)
		}
	}
	return decision, nil
}

func runDecide(cmd *cobra.Command, args []string) error {
	sess, err := requireBanker()
	if err != nil {
		return err
	}
	id := args[0]
	body := models.DecisionCreate{
		Decision: models.DecisionValue(strings.ToLower(strings.TrimSpace(args[1]))),
		Note:     strings.TrimSpace(decideNote),
	}
	if err := models.ValidateStruct(body); err != nil {
		return fmt.Errorf("invalid decision: %w", err)
	}

	client, err := newClient(sess)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	req, err := client.GetBankerRequest(ctx, id)
	if err != nil {
		return err
	}

	st := openSnapshots()
	defer closeSnapshots(st)
	saveSnapshot(ctx, st, models.RoleBanker, req.RequestCore, req)

	check, err := checkDecision(cmd, decisionInput(req, body, sess, newCache()), st)
	if err != nil {
		return err
	}

	if check != nil && len(check.Warnings) > 0 && !isStructuredOutput() {
		cmd.PrintErrln(ui.RenderWarningPanel("Politiques", "⚠ "+strings.Join(check.Warnings, "\n⚠ ")))
	}
	if check != nil && check.IsDenied() {
		return fmt.Errorf("%w: %s", types.ErrPolicyDenied, strings.Join(check.Violations, "; "))
	}

	if decideDryRun {
		if isStructuredOutput() {
			return printOutput(cmd.OutOrStdout(), check)
		}
		cmd.Println("Décision conforme aux politiques (non enregistrée).")
		return nil
	}

	resp, err := client.Decide(ctx, id, body)
	if err != nil {
		return err
	}
	if isStructuredOutput() {
		return printOutput(cmd.OutOrStdout(), map[string]any{"request_id": id, "status": resp.Status, "note": resp.Note, "policy": check})
	}
	cmd.Printf("%s Demande #%s: %s (%s)\n", ui.Icon("✓", ui.StyleSuccess), id, ui.DecisionLabel(string(body.Decision)), ui.StatusLabel(resp.Status))
	return nil
}
