/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/josephgoksu/CreditDesk/internal/api"
	"github.com/josephgoksu/CreditDesk/internal/explain"
	"github.com/josephgoksu/CreditDesk/internal/ui"
	"github.com/josephgoksu/CreditDesk/models"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var chatInteractive bool

var chatCmd = &cobra.Command{
	Use:   "chat <id> <agent> [question]...",
	Short: "Question an analysis agent about a request",
	Long: `Ask one of the analysis agents a follow-up question about a credit
request, or show the conversation so far when no question is given.

Agents: document, similarity, fraud, decision, explanation, behavior, image.

Examples:
  creditdesk chat 42 fraud
  creditdesk chat 42 decision "Pourquoi une revue humaine ?"
  creditdesk chat 42 similarity -i`,
	Args: cobra.MinimumNArgs(2),
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().BoolVarP(&chatInteractive, "interactive", "i", false, "keep asking questions until an empty line")
}

func runChat(cmd *cobra.Command, args []string) error {
	sess, err := requireBanker()
	if err != nil {
		return err
	}
	id := args[0]
	agent := explain.ParseAgentName(args[1])
	if agent == explain.AgentUnknown {
		return fmt.Errorf("unknown agent %q", args[1])
	}
	client, err := newClient(sess)
	if err != nil {
		return err
	}

	var resp *models.AgentChatResponse
	if question := strings.TrimSpace(strings.Join(args[2:], " ")); question != "" {
		resp, err = ask(cmd, client, id, agent, question)
	} else {
		resp, err = client.AgentTranscript(cmd.Context(), id, string(agent))
	}
	if err != nil {
		return err
	}
	if err := printTranscript(cmd, resp); err != nil {
		return err
	}

	if !chatInteractive {
		return nil
	}
	if !ui.IsInteractive() {
		return errors.New("--interactive needs a terminal")
	}
	for {
		prompt := promptui.Prompt{Label: "Question (vide pour quitter)"}
		question, err := prompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return err
		}
		if strings.TrimSpace(question) == "" {
			return nil
		}
		resp, err := ask(cmd, client, id, agent, question)
		if err != nil {
			PrintError(friendlyMessage(err), err)
			continue
		}
		if err := printTranscript(cmd, lastTurn(resp)); err != nil {
			return err
		}
	}
}

func ask(cmd *cobra.Command, client *api.Client, id string, agent explain.AgentName, question string) (*models.AgentChatResponse, error) {
	body := models.AgentChatRequest{AgentName: string(agent), Message: strings.TrimSpace(question)}
	if err := models.ValidateStruct(body); err != nil {
		return nil, fmt.Errorf("invalid question: %w", err)
	}
	return ui.Spin(cmd.ErrOrStderr(), "L'agent réfléchit…", func() (*models.AgentChatResponse, error) {
		return client.AskAgent(cmd.Context(), id, body)
	})
}

// lastTurn keeps the latest question and the answers that follow it.
func lastTurn(resp *models.AgentChatResponse) *models.AgentChatResponse {
	start := 0
	for i, m := range resp.Messages {
		if m.Role != "agent" && m.Role != "assistant" {
			start = i
		}
	}
	return &models.AgentChatResponse{AgentName: resp.AgentName, Messages: resp.Messages[start:]}
}

func printTranscript(cmd *cobra.Command, resp *models.AgentChatResponse) error {
	if isStructuredOutput() {
		return printOutput(cmd.OutOrStdout(), resp)
	}
	_, err := fmt.Fprint(cmd.OutOrStdout(), ui.RenderTranscript(resp, renderOptions()))
	return err
}
