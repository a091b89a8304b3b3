/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/josephgoksu/CreditDesk/internal/ui"
	"github.com/josephgoksu/CreditDesk/models"
	"github.com/spf13/cobra"
)

var commentCmd = &cobra.Command{
	Use:   "comment <id> <message>...",
	Short: "Add a banker comment to a credit request",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := requireBanker()
		if err != nil {
			return err
		}
		body := models.CommentCreate{Message: strings.TrimSpace(strings.Join(args[1:], " "))}
		if err := models.ValidateStruct(body); err != nil {
			return fmt.Errorf("invalid comment: %w", err)
		}
		client, err := newClient(sess)
		if err != nil {
			return err
		}
		c, err := client.AddComment(cmd.Context(), args[0], body)
		if err != nil {
			return err
		}
		if isStructuredOutput() {
			return printOutput(cmd.OutOrStdout(), c)
		}
		cmd.Printf("%s Commentaire ajouté à la demande #%s\n", ui.Icon("✓", ui.StyleSuccess), args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(commentCmd)
}
