/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/josephgoksu/CreditDesk/internal/config"
	"github.com/josephgoksu/CreditDesk/internal/policy"
	"github.com/josephgoksu/CreditDesk/internal/ui"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	policyAuditRequest string
	policyAuditResult  string
	policyAuditSince   string
	policyAuditLimit   int
)

// policyCmd represents the policy parent command
var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect decision policies and their audit trail",
	Long: `Decision policies are written in Rego (package creditdesk.policy) and
stored in .creditdesk/policies/*.rego or ~/.creditdesk/policies/*.rego.
They add deny and warn rules on top of the built-in policy.

Examples:
  creditdesk policy list
  creditdesk policy check my_rules.rego
  creditdesk policy audit --request 42`,
}

var policyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List loaded policies",
	RunE:  runPolicyList,
}

var policyCheckCmd = &cobra.Command{
	Use:   "check <file.rego>...",
	Short: "Validate Rego policy files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPolicyCheck,
}

var policyAuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recorded policy evaluations",
	RunE:  runPolicyAudit,
}

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyListCmd, policyCheckCmd, policyAuditCmd)

	policyAuditCmd.Flags().StringVar(&policyAuditRequest, "request", "", "only evaluations for this request")
	policyAuditCmd.Flags().StringVar(&policyAuditResult, "result", "", "only allow or deny")
	policyAuditCmd.Flags().StringVar(&policyAuditSince, "since", "", "only evaluations after this time (now, YYYY-MM-DD or RFC3339)")
	policyAuditCmd.Flags().IntVar(&policyAuditLimit, "limit", 20, "maximum number of evaluations")
}

func runPolicyList(cmd *cobra.Command, args []string) error {
	dir := GetConfig().Policy.Dir
	if dir == "" {
		dir = config.GetPolicyDir()
	}
	engine, err := policy.NewEngine(policy.EngineConfig{PoliciesDir: dir, Fs: appFs})
	if err != nil {
		return err
	}
	names := engine.PolicyNames()

	if isStructuredOutput() {
		return printOutput(cmd.OutOrStdout(), map[string]any{
			"policies_dir": dir,
			"enabled":      GetConfig().Policy.Enabled,
			"policies":     names,
		})
	}

	cmd.Printf("Dossier des politiques: %s\n", dir)
	if !GetConfig().Policy.Enabled {
		cmd.Println(ui.StyleWarning.Render("Contrôle des décisions désactivé (policy.enabled=false)."))
	}
	cmd.Printf("%d politique(s) chargée(s):\n\n", len(names))
	for _, n := range names {
		cmd.Printf("  • %s\n", n)
	}
	return nil
}

func runPolicyCheck(cmd *cobra.Command, args []string) error {
	failed := 0
	for _, path := range args {
		data, err := afero.ReadFile(appFs, path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if err := policy.ValidatePolicy(string(data)); err != nil {
			failed++
			cmd.Println(ui.RenderErrorPanel(path, err.Error()))
			continue
		}
		cmd.Printf("%s %s\n", ui.Icon("✓", ui.StyleSuccess), path)
	}
	if failed > 0 {
		return fmt.Errorf("%d invalid policy file(s)", failed)
	}
	return nil
}

func runPolicyAudit(cmd *cobra.Command, args []string) error {
	st := openSnapshots()
	if st == nil {
		return fmt.Errorf("the audit trail lives in the snapshot store, which is disabled or unavailable")
	}
	defer closeSnapshots(st)

	opts := policy.ListDecisionsOptions{
		RequestID: policyAuditRequest,
		Result:    policyAuditResult,
		Limit:     policyAuditLimit,
	}
	if policyAuditSince != "" {
		since, err := parseSince(policyAuditSince, time.Now())
		if err != nil {
			return err
		}
		opts.Since = since
	}

	decisions, err := policy.NewAuditStore(st.DB()).ListDecisions(opts)
	if err != nil {
		return err
	}
	if isStructuredOutput() {
		return printOutput(cmd.OutOrStdout(), decisions)
	}
	if len(decisions) == 0 {
		cmd.Println("Aucune évaluation enregistrée.")
		return nil
	}

	ui.RenderPageHeader(cmd.OutOrStdout(), "Journal des politiques", fmt.Sprintf("%d évaluation(s)", len(decisions)))
	t := &ui.Table{Headers: []string{"Évaluation", "Évaluée le", "Demande", "Banquier", "Résultat", "Motifs"}}
	for _, d := range decisions {
		reasons := append(append([]string{}, d.Violations...), d.Warnings...)
		t.Rows = append(t.Rows, []string{
			ui.TruncateID(d.DecisionID),
			ui.FormatDateTime(d.EvaluatedAt),
			d.RequestID,
			d.UserID,
			d.Result,
			strings.Join(reasons, "; "),
		})
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), t.Render())
	return err
}
