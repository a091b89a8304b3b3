/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/josephgoksu/CreditDesk/internal/explain"
	"github.com/josephgoksu/CreditDesk/internal/poll"
	"github.com/josephgoksu/CreditDesk/internal/ui"
	"github.com/josephgoksu/CreditDesk/models"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var (
	explainAgent    string
	explainFollow   bool
	explainCustomer bool
)

var explainCmd = &cobra.Command{
	Use:   "explain [file|-]",
	Short: "Normalize and render an agent explanation payload",
	Long: `Read an agent output from a file (or stdin with -) and render it the way
'requests show' does. No backend access is needed.

The input may be:
  • a raw explanations payload (use --agent to name the agent),
  • one agent result {"name": ..., "explanations": ...},
  • a whole request with an "agents" object; every agent is rendered.

Examples:
  creditdesk explain --agent decision payload.json
  creditdesk explain request.json --output yaml
  cat out.txt | creditdesk explain --agent fraud -
  creditdesk explain --follow --agent similarity /tmp/agent.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)

	explainCmd.Flags().StringVarP(&explainAgent, "agent", "a", "", "agent that produced a raw payload (document, similarity, fraud, decision, explanation, behavior, image)")
	explainCmd.Flags().BoolVarP(&explainFollow, "follow", "f", false, "re-render whenever the file changes")
	explainCmd.Flags().BoolVar(&explainCustomer, "customer", false, "render only what an applicant may see")
}

// agentInputs extracts the agent results contained in data.
func agentInputs(data []byte, agent string) []models.AgentResult {
	doc := gjson.ParseBytes(data)
	if doc.IsObject() {
		if agents := doc.Get("agents"); agents.IsObject() {
			var bundle models.AgentBundle
			if err := json.Unmarshal([]byte(agents.Raw), &bundle); err == nil {
				if results := bundle.Results(); len(results) > 0 {
					return results
				}
			}
		}
		if name := doc.Get("name"); name.Type == gjson.String && doc.Get("explanations").Exists() {
			var r models.AgentResult
			if err := json.Unmarshal(data, &r); err == nil {
				return []models.AgentResult{r}
			}
		}
	}
	return []models.AgentResult{{Name: agent, Explanations: data}}
}

func readExplainInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return afero.ReadFile(appFs, path)
}

func renderExplainInput(cmd *cobra.Command, data []byte) error {
	out := cmd.OutOrStdout()
	results := agentInputs(data, explainAgent)
	cache := newCache()

	if isStructuredOutput() {
		explanations := make([]explain.Explanation, 0, len(results))
		for _, r := range results {
			explanations = append(explanations, cache.Normalize(r.Name, r.Explanations))
		}
		if len(explanations) == 1 {
			return printOutput(out, explanations[0])
		}
		return printOutput(out, explanations)
	}

	opts := renderOptions()
	opts.Customer = explainCustomer
	panelWidth := opts.Width - 2 // border
	if panelWidth > 4 {
		opts.Width = panelWidth - 2 // padding
	}
	for _, r := range results {
		e := cache.Normalize(r.Name, r.Explanations)
		panel := ui.NewPanel("", ui.RenderAgent(r, e, opts))
		if panelWidth > 4 {
			panel = panel.WithWidth(panelWidth)
		}
		if _, err := fmt.Fprintln(out, panel.Render()); err != nil {
			return err
		}
	}
	return nil
}

func runExplain(cmd *cobra.Command, args []string) error {
	path := "-"
	if len(args) == 1 {
		path = args[0]
	}
	if explainAgent != "" && explain.ParseAgentName(explainAgent) == explain.AgentUnknown {
		slog.Warn("unknown agent, flag labels will not be translated", "agent", explainAgent)
	}

	data, err := readExplainInput(cmd, path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := renderExplainInput(cmd, data); err != nil {
		return err
	}
	if !explainFollow {
		return nil
	}
	if path == "-" {
		return errors.New("--follow needs a file, not stdin")
	}

	err = poll.FollowFile(cmd.Context(), path, func() {
		data, err := readExplainInput(cmd, path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				slog.Warn("failed to re-read file", "path", path, "error", err)
			}
			return
		}
		if ui.IsInteractive() {
			fmt.Fprint(cmd.OutOrStdout(), "\033[H\033[2J")
		}
		if err := renderExplainInput(cmd, data); err != nil {
			slog.Warn("failed to render", "path", path, "error", err)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
