/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/josephgoksu/CreditDesk/internal/api"
	"github.com/josephgoksu/CreditDesk/internal/ui"
	"github.com/josephgoksu/CreditDesk/models"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var submitFlags struct {
	file           string
	docs           []string
	amount         float64
	durationMonths int
	monthlyIncome  float64
	monthlyCharges float64
	employmentType string
	contractType   string
	seniorityYears float64
	familyStatus   string
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a new credit request",
	Long: `Submit a credit request. The body comes from a YAML or JSON file
(--file); individual flags override the file. Supporting documents are
uploaded with --doc (repeatable).

Examples:
  creditdesk submit --file demande.yaml --doc bulletin.pdf --doc avis.pdf
  creditdesk submit --amount 15000 --duration 48 --income 3200 --charges 900 \
    --employment salarie --contract CDI --seniority 4 --family celibataire`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSubmit(cmd, "")
	},
}

var resubmitCmd = &cobra.Command{
	Use:   "resubmit <id>",
	Short: "Resubmit a credit request with corrected data or documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSubmit(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(submitCmd, resubmitCmd)
	for _, c := range []*cobra.Command{submitCmd, resubmitCmd} {
		f := c.Flags()
		f.StringVarP(&submitFlags.file, "file", "f", "", "YAML or JSON request body")
		f.StringArrayVarP(&submitFlags.docs, "doc", "d", nil, "supporting document to upload (repeatable)")
		f.Float64Var(&submitFlags.amount, "amount", 0, "requested amount in euros")
		f.IntVar(&submitFlags.durationMonths, "duration", 0, "duration in months")
		f.Float64Var(&submitFlags.monthlyIncome, "income", 0, "monthly income")
		f.Float64Var(&submitFlags.monthlyCharges, "charges", 0, "monthly charges")
		f.StringVar(&submitFlags.employmentType, "employment", "", "employment type")
		f.StringVar(&submitFlags.contractType, "contract", "", "contract type")
		f.Float64Var(&submitFlags.seniorityYears, "seniority", 0, "seniority in years")
		f.StringVar(&submitFlags.familyStatus, "family", "", "family status")
	}
}

// decodeRequestBody reads a YAML or JSON body. YAML keys follow the JSON
// field names, so the document goes through a generic map first.
func decodeRequestBody(data []byte) (models.CreditRequestCreate, error) {
	var body models.CreditRequestCreate
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return body, fmt.Errorf("parse request body: %w", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return body, fmt.Errorf("encode request body: %w", err)
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return body, fmt.Errorf("decode request body: %w", err)
	}
	return body, nil
}

// buildRequestBody merges --file and the individual flags.
func buildRequestBody(cmd *cobra.Command) (models.CreditRequestCreate, error) {
	var body models.CreditRequestCreate
	if submitFlags.file != "" {
		data, err := afero.ReadFile(appFs, submitFlags.file)
		if err != nil {
			return body, fmt.Errorf("read %s: %w", submitFlags.file, err)
		}
		if body, err = decodeRequestBody(data); err != nil {
			return body, err
		}
	}

	f := cmd.Flags()
	if f.Changed("amount") {
		body.Amount = submitFlags.amount
	}
	if f.Changed("duration") {
		body.DurationMonths = submitFlags.durationMonths
	}
	if f.Changed("income") {
		body.MonthlyIncome = submitFlags.monthlyIncome
	}
	if f.Changed("charges") {
		body.MonthlyCharges = submitFlags.monthlyCharges
	}
	if f.Changed("employment") {
		body.EmploymentType = submitFlags.employmentType
	}
	if f.Changed("contract") {
		body.ContractType = submitFlags.contractType
	}
	if f.Changed("seniority") {
		body.SeniorityYears = submitFlags.seniorityYears
	}
	if f.Changed("family") {
		body.FamilyStatus = submitFlags.familyStatus
	}
	if body.Documents == nil {
		body.Documents = []string{}
	}
	return body, nil
}

func runSubmit(cmd *cobra.Command, id string) error {
	sess, err := requireSession()
	if err != nil {
		return err
	}
	if sess.IsBanker() {
		return errors.New("seuls les clients peuvent déposer une demande")
	}

	body, err := buildRequestBody(cmd)
	if err != nil {
		return err
	}
	if err := models.ValidateStruct(body); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}

	uploads, closeUploads, err := api.OpenUploads(appFs, submitFlags.docs)
	if err != nil {
		return err
	}
	defer closeUploads()
	for _, u := range uploads {
		body.Documents = append(body.Documents, u.Name)
	}

	client, err := newClient(sess)
	if err != nil {
		return err
	}

	var created *models.CreditRequest
	if id == "" {
		created, err = client.CreateRequest(cmd.Context(), body, uploads)
	} else {
		created, err = client.ResubmitRequest(cmd.Context(), id, body, uploads)
	}
	if err != nil {
		return err
	}

	if isStructuredOutput() {
		return printOutput(cmd.OutOrStdout(), created)
	}
	verb := "déposée"
	if id != "" {
		verb = "redéposée"
	}
	cmd.Printf("%s Demande #%s %s (%s)\n", ui.Icon("✓", ui.StyleSuccess), created.ID, verb, ui.StatusLabel(created.Status))
	if created.AutoDecision != "" {
		cmd.Printf("Verdict automatique: %s\n", ui.VerdictBadge(created.AutoDecision))
	}
	return nil
}
