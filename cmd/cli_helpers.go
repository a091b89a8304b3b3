package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/josephgoksu/CreditDesk/internal/api"
	"github.com/josephgoksu/CreditDesk/internal/config"
	"github.com/josephgoksu/CreditDesk/internal/explain"
	"github.com/josephgoksu/CreditDesk/internal/session"
	"github.com/josephgoksu/CreditDesk/internal/snapshot"
	"github.com/josephgoksu/CreditDesk/internal/ui"
	"github.com/josephgoksu/CreditDesk/models"
	"github.com/josephgoksu/CreditDesk/types"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// appFs is the filesystem used for the session, uploads and config writes.
// Tests swap it for an in-memory one.
var appFs afero.Fs = afero.NewOsFs()

func isVerbose() bool {
	return viper.GetBool("verbose")
}

func outputFormat() string {
	switch f := strings.ToLower(viper.GetString("render.output")); f {
	case "json", "yaml":
		return f
	default:
		return "text"
	}
}

func isStructuredOutput() bool {
	return outputFormat() != "text"
}

// printOutput writes v as JSON or YAML depending on --output.
func printOutput(w io.Writer, v any) error {
	if outputFormat() == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

func sessionStore() *session.Store {
	path := GetConfig().Session.File
	if path == "" {
		path = config.GetSessionPath()
	}
	return session.NewStore(appFs, path)
}

// requireSession loads the stored login.
func requireSession() (*session.Session, error) {
	return sessionStore().Load()
}

// requireBanker loads the stored login and checks its role.
func requireBanker() (*session.Session, error) {
	sess, err := requireSession()
	if err != nil {
		return nil, err
	}
	if !sess.IsBanker() {
		return nil, fmt.Errorf("cette commande est réservée aux banquiers: %w", types.ErrForbidden)
	}
	return sess, nil
}

// newClient builds a backend client for sess (nil for anonymous calls).
func newClient(sess *session.Session) (*api.Client, error) {
	token := ""
	if sess != nil {
		token = sess.Token
	}
	cfg := GetConfig()
	return api.New(api.Config{
		BaseURL: cfg.API.BaseURL,
		Token:   token,
		Timeout: time.Duration(cfg.API.TimeoutSeconds) * time.Second,
	})
}

func newCache() *explain.Cache {
	c, err := explain.NewCache(GetConfig().Cache.Size)
	if err != nil {
		slog.Warn("explanation cache disabled", "error", err)
		return nil
	}
	return c
}

func renderOptions() ui.RenderOptions {
	return ui.RenderOptions{
		MaxItems: GetConfig().Render.MaxItems,
		Width:    ui.TerminalWidth(),
	}
}

// openSnapshots opens the snapshot store, or returns nil when snapshots are
// disabled or unavailable. Failures only cost the offline copy.
func openSnapshots() *snapshot.Store {
	if !GetConfig().Snapshot.Enabled {
		return nil
	}
	path := GetConfig().Snapshot.Path
	if path == "" {
		path = config.GetSnapshotPath()
	}
	st, err := snapshot.Open(path)
	if err != nil {
		slog.Warn("snapshot store unavailable", "path", path, "error", err)
		return nil
	}
	return st
}

// saveSnapshot records body as the latest copy of a request.
func saveSnapshot(ctx context.Context, st *snapshot.Store, role models.Role, core models.RequestCore, body any) {
	if st == nil {
		return
	}
	if _, err := st.PutRequest(ctx, role, core, body, time.Now()); err != nil {
		slog.Warn("failed to save snapshot", "request", core.ID, "error", err)
	}
}

func closeSnapshots(st *snapshot.Store) {
	if st == nil {
		return
	}
	if err := st.Close(); err != nil {
		slog.Debug("close snapshot store", "error", err)
	}
}
