package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/josephgoksu/CreditDesk/types"
	"github.com/spf13/viper"
)

// HandleFatalError handles unrecoverable errors that should terminate the application.
func HandleFatalError(userMsg string, technicalErr error) {
	PrintError(userMsg, technicalErr)
	os.Exit(1)
}

// PrintError prints an error message without exiting, allowing for recovery.
func PrintError(userMsg string, technicalErr error) {
	if viper.GetBool("verbose") && technicalErr != nil {
		// In verbose mode, print the detailed, underlying technical error.
		fmt.Fprintf(os.Stderr, "Error: %v\n", technicalErr)
	} else {
		fmt.Fprintln(os.Stderr, userMsg)
	}
}

// LogError logs an error without printing to stderr if verbose mode is off.
func LogError(msg string, err error) {
	if viper.GetBool("verbose") {
		if err != nil {
			fmt.Fprintf(os.Stderr, "[DEBUG] %s: %v\n", msg, err)
		} else {
			fmt.Fprintf(os.Stderr, "[DEBUG] %s\n", msg)
		}
	}
}

// friendlyMessage turns a command error into the line shown without --verbose.
func friendlyMessage(err error) string {
	var apiErr *types.APIError
	switch {
	case errors.Is(err, types.ErrNotLoggedIn):
		return "Vous n'êtes pas connecté. Lancez 'creditdesk login'."
	case errors.Is(err, types.ErrForbidden):
		return "Accès refusé pour ce compte."
	case errors.Is(err, types.ErrNotFound):
		return "Demande introuvable."
	case errors.Is(err, types.ErrPolicyDenied):
		return err.Error()
	case errors.Is(err, context.Canceled):
		return "Interrompu."
	case errors.Is(err, context.DeadlineExceeded):
		return "Le serveur ne répond pas."
	case errors.As(err, &apiErr):
		return "Erreur serveur: " + apiErr.Message
	default:
		return "Erreur: " + err.Error()
	}
}
