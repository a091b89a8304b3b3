/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"

	"github.com/josephgoksu/CreditDesk/internal/ui"
	"github.com/josephgoksu/CreditDesk/models"
	"github.com/spf13/cobra"
)

var rerunCmd = &cobra.Command{
	Use:   "rerun <id>",
	Short: "Run every analysis agent again on a request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := requireBanker()
		if err != nil {
			return err
		}
		client, err := newClient(sess)
		if err != nil {
			return err
		}
		resp, err := ui.Spin(cmd.ErrOrStderr(), "Analyse en cours…", func() (*models.RerunResponse, error) {
			return client.Rerun(cmd.Context(), args[0])
		})
		if err != nil {
			return err
		}
		cache := newCache()
		if isStructuredOutput() {
			return printOutput(cmd.OutOrStdout(), map[string]any{
				"status":       resp.Status,
				"agents":       resp.Agents,
				"explanations": explanationsOf(resp.Agents, cache),
			})
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s Agents relancés pour la demande #%s (%s)\n", ui.Icon("✓", ui.StyleSuccess), args[0], resp.Status)
		opts := renderOptions()
		for _, r := range resp.Agents.Results() {
			e := cache.Normalize(r.Name, r.Explanations)
			fmt.Fprintln(out, ui.RenderPanel("", ui.RenderAgent(r, e, opts)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rerunCmd)
}
