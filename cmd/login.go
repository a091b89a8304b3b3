/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/josephgoksu/CreditDesk/internal/session"
	"github.com/josephgoksu/CreditDesk/internal/ui"
	"github.com/josephgoksu/CreditDesk/models"
	"github.com/josephgoksu/CreditDesk/types"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the backend",
	Long: `Authenticate against the backend and store the session token in
~/.creditdesk/session.json (owner-only permissions).

The password can also be read from CREDITDESK_PASSWORD. When neither flag nor
variable is set and the terminal is interactive, you are prompted.`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := sessionStore().Clear(); err != nil {
			return err
		}
		if !isStructuredOutput() {
			cmd.Println("Déconnecté.")
		}
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := requireSession()
		if err != nil {
			return err
		}
		if isStructuredOutput() {
			return printOutput(cmd.OutOrStdout(), map[string]any{
				"user_id":      sess.UserID,
				"email":        sess.Email,
				"role":         sess.Role,
				"banker_since": sess.BankerSince,
				"logged_in_at": sess.CreatedAt,
			})
		}
		cmd.Printf("%s %s (%s)\n", ui.StyleLabel.Render("Utilisateur:"), sess.UserID, sess.Role)
		if sess.Email != "" {
			cmd.Printf("%s %s\n", ui.StyleLabel.Render("Email:"), sess.Email)
		}
		if sess.IsBanker() {
			filter := "tous les dossiers"
			if since := sess.Since(); !since.IsZero() {
				filter = "depuis le " + ui.FormatDateTime(since)
			}
			cmd.Printf("%s %s\n", ui.StyleLabel.Render("Filtre:"), filter)
		}
		cmd.Printf("%s %s\n", ui.StyleLabel.Render("Connecté le:"), ui.FormatDateTime(sess.CreatedAt))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)

	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "account password (prefer CREDITDESK_PASSWORD)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	email := strings.TrimSpace(loginEmail)
	password := loginPassword
	if password == "" {
		password = os.Getenv("CREDITDESK_PASSWORD")
	}

	if email == "" || password == "" {
		if !ui.IsInteractive() {
			return errors.New("--email and --password (or CREDITDESK_PASSWORD) are required when not running in a terminal")
		}
		var err error
		if email == "" {
			if email, err = (&promptui.Prompt{Label: "Email"}).Run(); err != nil {
				return err
			}
		}
		if password == "" {
			if password, err = (&promptui.Prompt{Label: "Mot de passe", Mask: '•'}).Run(); err != nil {
				return err
			}
		}
	}

	body := models.LoginRequest{Email: strings.TrimSpace(email), Password: password}
	if err := models.ValidateStruct(body); err != nil {
		return fmt.Errorf("invalid credentials: %w", err)
	}

	client, err := newClient(nil)
	if err != nil {
		return err
	}
	resp, err := client.Login(cmd.Context(), body)
	if err != nil {
		if errors.Is(err, types.ErrNotLoggedIn) {
			return errors.New("identifiants invalides")
		}
		return err
	}

	store := sessionStore()
	sess := &session.Session{
		Token:     resp.Token,
		Role:      resp.Role,
		UserID:    resp.UserID,
		Email:     body.Email,
		CreatedAt: time.Now().UTC(),
	}
	// Keep the banker's inbox filter across logins.
	if prev, err := store.Load(); err == nil && prev.UserID == resp.UserID {
		sess.BankerSince = prev.BankerSince
	}
	if err := store.Save(sess); err != nil {
		return err
	}

	if isStructuredOutput() {
		return printOutput(cmd.OutOrStdout(), map[string]any{"user_id": sess.UserID, "role": sess.Role})
	}
	cmd.Printf("%s Connecté en tant que %s (%s)\n", ui.Icon("✓", ui.StyleSuccess), sess.UserID, sess.Role)
	return nil
}
