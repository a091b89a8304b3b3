/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/josephgoksu/CreditDesk/internal/api"
	"github.com/josephgoksu/CreditDesk/internal/explain"
	"github.com/josephgoksu/CreditDesk/internal/poll"
	"github.com/josephgoksu/CreditDesk/internal/session"
	"github.com/josephgoksu/CreditDesk/internal/snapshot"
	"github.com/josephgoksu/CreditDesk/internal/ui"
	"github.com/josephgoksu/CreditDesk/models"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/sync/singleflight"
)

// ErrNoRequestsFound is returned when an interactive selection is attempted but no requests are available.
var ErrNoRequestsFound = errors.New("no credit requests found")

var (
	requestsSince   string
	requestsAll     bool
	requestsOffline bool
)

var requestsCmd = &cobra.Command{
	Use:     "requests",
	Aliases: []string{"req"},
	Short:   "List, show and watch credit requests",
}

var requestsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List credit requests",
	Long: `List the credit requests visible to the logged-in user.

Bankers see two sections, pending work (pending, in review) and decided
requests, both sorted by last update. --since keeps only requests created
after a point in time and is remembered across runs; --all clears it.

Examples:
  creditdesk requests list
  creditdesk requests list --since now
  creditdesk requests list --since 2026-03-01
  creditdesk requests list --all`,
	RunE: runRequestsList,
}

var requestsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a credit request with its agent explanations",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRequestsShow,
}

var requestsWatchCmd = &cobra.Command{
	Use:   "watch [id]",
	Short: "Follow the request list or one request live",
	Long: `Open a full-screen view that refreshes on a timer (15s for bankers,
20s for clients by default) and whenever the terminal regains focus.
Press r to refresh now and q to quit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRequestsWatch,
}

func init() {
	rootCmd.AddCommand(requestsCmd)
	requestsCmd.AddCommand(requestsListCmd, requestsShowCmd, requestsWatchCmd)

	requestsListCmd.Flags().StringVar(&requestsSince, "since", "", "only requests created after this time (now, YYYY-MM-DD or RFC3339)")
	requestsListCmd.Flags().BoolVar(&requestsAll, "all", false, "clear the --since filter")
	requestsListCmd.Flags().BoolVar(&requestsOffline, "offline", false, "read the last fetched copies instead of the backend")
	requestsShowCmd.Flags().BoolVar(&requestsOffline, "offline", false, "read the last fetched copy instead of the backend")
}

// parseSince accepts "now", a date or an RFC3339 timestamp.
func parseSince(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "now") {
		return now.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid --since value %q: use now, YYYY-MM-DD or RFC3339", s)
}

// applySinceFlags persists --since / --all into the session.
func applySinceFlags(sess *session.Session) (*session.Session, error) {
	if !requestsAll && requestsSince == "" {
		return sess, nil
	}
	var since *time.Time
	if !requestsAll {
		t, err := parseSince(requestsSince, time.Now())
		if err != nil {
			return nil, err
		}
		since = &t
	}
	return sessionStore().Update(func(s *session.Session) {
		s.BankerSince = since
	})
}

type bankerListing struct {
	Since   *time.Time             `json:"since,omitempty" yaml:"since,omitempty"`
	Pending []models.BankerRequest `json:"pending" yaml:"pending"`
	Decided []models.BankerRequest `json:"decided" yaml:"decided"`
}

func fetchBankerListing(ctx context.Context, client *api.Client, sess *session.Session, st *snapshot.Store) (bankerListing, error) {
	reqs, err := client.ListBankerRequests(ctx)
	if err != nil {
		return bankerListing{}, err
	}
	for _, r := range reqs {
		saveSnapshot(ctx, st, models.RoleBanker, r.RequestCore, r)
	}
	return splitListing(reqs, sess), nil
}

func splitListing(reqs []models.BankerRequest, sess *session.Session) bankerListing {
	pending, decided := models.SplitByStatus(reqs, sess.Since())
	return bankerListing{Since: sess.BankerSince, Pending: pending, Decided: decided}
}

func runRequestsList(cmd *cobra.Command, args []string) error {
	sess, err := requireSession()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	st := openSnapshots()
	defer closeSnapshots(st)

	if sess.IsBanker() {
		if sess, err = applySinceFlags(sess); err != nil {
			return err
		}
		var listing bankerListing
		if requestsOffline {
			listing, err = offlineBankerListing(ctx, st, sess)
		} else {
			var client *api.Client
			if client, err = newClient(sess); err != nil {
				return err
			}
			listing, err = fetchBankerListing(ctx, client, sess, st)
		}
		if err != nil {
			return err
		}
		if isStructuredOutput() {
			return printOutput(out, listing)
		}
		_, err = fmt.Fprint(out, ui.RenderBankerLists(listing.Pending, listing.Decided, sess.Since(), time.Now(), ui.TerminalWidth()))
		return err
	}

	var reqs []models.CreditRequest
	if requestsOffline {
		reqs, err = offlineClientList(ctx, st)
	} else {
		client, cerr := newClient(sess)
		if cerr != nil {
			return cerr
		}
		reqs, err = client.ListClientRequests(ctx)
		for _, r := range reqs {
			saveSnapshot(ctx, st, models.RoleClient, r.RequestCore, r)
		}
	}
	if err != nil {
		return err
	}
	if isStructuredOutput() {
		return printOutput(out, reqs)
	}
	_, err = fmt.Fprint(out, ui.RenderClientList(reqs, ui.TerminalWidth()))
	return err
}

func offlineBankerListing(ctx context.Context, st *snapshot.Store, sess *session.Session) (bankerListing, error) {
	if st == nil {
		return bankerListing{}, errors.New("offline mode needs the snapshot store (snapshot.enabled)")
	}
	snaps, err := st.List(ctx, models.RoleBanker)
	if err != nil {
		return bankerListing{}, err
	}
	reqs := make([]models.BankerRequest, 0, len(snaps))
	for _, s := range snaps {
		var r models.BankerRequest
		if err := s.Decode(&r); err != nil {
			slog.Warn("skipping unreadable snapshot", "request", s.ID, "error", err)
			continue
		}
		reqs = append(reqs, r)
	}
	return splitListing(reqs, sess), nil
}

func offlineClientList(ctx context.Context, st *snapshot.Store) ([]models.CreditRequest, error) {
	if st == nil {
		return nil, errors.New("offline mode needs the snapshot store (snapshot.enabled)")
	}
	snaps, err := st.List(ctx, models.RoleClient)
	if err != nil {
		return nil, err
	}
	reqs := make([]models.CreditRequest, 0, len(snaps))
	for _, s := range snaps {
		var r models.CreditRequest
		if err := s.Decode(&r); err != nil {
			slog.Warn("skipping unreadable snapshot", "request", s.ID, "error", err)
			continue
		}
		reqs = append(reqs, r)
	}
	return reqs, nil
}

// requestView is the structured form of `requests show`.
type requestView struct {
	Request      any                            `json:"request" yaml:"request"`
	Explanations map[string]explain.Explanation `json:"explanations" yaml:"explanations"`
}

func explanationsOf(bundle *models.AgentBundle, cache *explain.Cache) map[string]explain.Explanation {
	out := map[string]explain.Explanation{}
	for _, r := range bundle.Results() {
		out[r.Name] = cache.Normalize(r.Name, r.Explanations)
	}
	return out
}

// renderRequest fetches one request and renders it for the session's role.
func renderRequest(ctx context.Context, client *api.Client, sess *session.Session, id string, cache *explain.Cache, st *snapshot.Store, opts ui.RenderOptions) (string, error) {
	if sess.IsBanker() {
		req, err := client.GetBankerRequest(ctx, id)
		if err != nil {
			return "", err
		}
		saveSnapshot(ctx, st, models.RoleBanker, req.RequestCore, req)
		return ui.RenderBankerRequest(req, cache, opts), nil
	}
	req, err := client.GetClientRequest(ctx, id)
	if err != nil {
		return "", err
	}
	saveSnapshot(ctx, st, models.RoleClient, req.RequestCore, req)
	return ui.RenderClientRequest(req, cache, opts), nil
}

func runRequestsShow(cmd *cobra.Command, args []string) error {
	sess, err := requireSession()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	st := openSnapshots()
	defer closeSnapshots(st)
	cache := newCache()
	opts := renderOptions()

	var client *api.Client
	if !requestsOffline {
		if client, err = newClient(sess); err != nil {
			return err
		}
	}

	id := ""
	if len(args) == 1 {
		id = args[0]
	} else if id, err = selectRequestInteractive(ctx, client, sess, st); err != nil {
		return err
	}

	if requestsOffline {
		return showOffline(cmd, st, sess, id, cache, opts)
	}

	if isStructuredOutput() {
		var view requestView
		if sess.IsBanker() {
			req, err := client.GetBankerRequest(ctx, id)
			if err != nil {
				return err
			}
			saveSnapshot(ctx, st, models.RoleBanker, req.RequestCore, req)
			view = requestView{Request: req, Explanations: explanationsOf(req.Agents, cache)}
		} else {
			req, err := client.GetClientRequest(ctx, id)
			if err != nil {
				return err
			}
			saveSnapshot(ctx, st, models.RoleClient, req.RequestCore, req)
			view = requestView{Request: req, Explanations: explanationsOf(req.Agents, cache)}
		}
		return printOutput(out, view)
	}

	text, err := ui.Spin(cmd.ErrOrStderr(), "Chargement de la demande…", func() (string, error) {
		return renderRequest(ctx, client, sess, id, cache, st, opts)
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, text)
	return err
}

func showOffline(cmd *cobra.Command, st *snapshot.Store, sess *session.Session, id string, cache *explain.Cache, opts ui.RenderOptions) error {
	if st == nil {
		return errors.New("offline mode needs the snapshot store (snapshot.enabled)")
	}
	snap, err := st.Get(cmd.Context(), sess.Role, id)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	var (
		text   string
		view   requestView
		bundle *models.AgentBundle
	)
	if sess.IsBanker() {
		var req models.BankerRequest
		if err := snap.Decode(&req); err != nil {
			return err
		}
		text, view.Request, bundle = ui.RenderBankerRequest(&req, cache, opts), req, req.Agents
	} else {
		var req models.CreditRequest
		if err := snap.Decode(&req); err != nil {
			return err
		}
		text, view.Request, bundle = ui.RenderClientRequest(&req, cache, opts), req, req.Agents
	}

	if isStructuredOutput() {
		view.Explanations = explanationsOf(bundle, cache)
		return printOutput(out, view)
	}
	fmt.Fprintln(out, ui.StyleWarning.Render("Copie hors ligne du "+ui.FormatDateTime(snap.FetchedAt)))
	_, err = fmt.Fprint(out, text)
	return err
}

// selectRequestInteractive presents a prompt to the user to select a request.
func selectRequestInteractive(ctx context.Context, client *api.Client, sess *session.Session, st *snapshot.Store) (string, error) {
	if !ui.IsInteractive() {
		return "", errors.New("a request id is required when not running in a terminal")
	}

	type item struct {
		ID      string
		Status  string
		Created string
		Label   string
	}
	var items []item
	add := func(core models.RequestCore, label string) {
		items = append(items, item{
			ID:      core.ID,
			Status:  ui.StatusLabel(core.Status),
			Created: ui.FormatDateTime(core.CreatedAt.Time),
			Label:   label,
		})
	}

	if sess.IsBanker() {
		var listing bankerListing
		var err error
		if client == nil {
			listing, err = offlineBankerListing(ctx, st, sess)
		} else {
			listing, err = fetchBankerListing(ctx, client, sess, st)
		}
		if err != nil {
			return "", err
		}
		for _, r := range append(listing.Pending, listing.Decided...) {
			add(r.RequestCore, r.ClientID+" · "+ui.FormatAmount(r.Amount))
		}
	} else {
		var reqs []models.CreditRequest
		var err error
		if client == nil {
			reqs, err = offlineClientList(ctx, st)
		} else {
			reqs, err = client.ListClientRequests(ctx)
		}
		if err != nil {
			return "", err
		}
		for _, r := range reqs {
			add(r.RequestCore, ui.Verdict(r.AutoDecision))
		}
	}

	if len(items) == 0 {
		return "", ErrNoRequestsFound
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}?",
		Active:   `> {{ .ID | cyan }} {{ .Label }} ({{ .Status }})`,
		Inactive: `  {{ .ID | faint }} {{ .Label }} ({{ .Status }})`,
		Selected: `{{ "✔" | green }} {{ .ID | faint }}`,
		Details: `
--------- Demande ----------
{{ "ID:\t" | faint }} {{ .ID }}
{{ "Statut:\t" | faint }} {{ .Status }}
{{ "Créée le:\t" | faint }} {{ .Created }}`,
	}

	searcher := func(input string, index int) bool {
		it := items[index]
		input = strings.ToLower(input)
		return strings.Contains(strings.ToLower(it.ID), input) || strings.Contains(strings.ToLower(it.Label), input)
	}

	prompt := promptui.Select{
		Label:     "Choisissez une demande",
		Items:     items,
		Templates: templates,
		Searcher:  searcher,
	}
	i, _, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return items[i].ID, nil
}

func runRequestsWatch(cmd *cobra.Command, args []string) error {
	sess, err := requireSession()
	if err != nil {
		return err
	}
	client, err := newClient(sess)
	if err != nil {
		return err
	}
	st := openSnapshots()
	defer closeSnapshots(st)
	cache := newCache()

	cfg := GetConfig()
	interval := time.Duration(cfg.Poll.ClientIntervalSeconds) * time.Second
	if sess.IsBanker() {
		interval = time.Duration(cfg.Poll.BankerIntervalSeconds) * time.Second
	}

	title := "Demandes"
	key := "list:" + string(sess.Role)
	var fetch poll.FetchFunc[string]
	if len(args) == 1 {
		id := args[0]
		title = "Demande #" + id
		key = "request:" + string(sess.Role) + ":" + id
		fetch = func(ctx context.Context) (string, error) {
			return renderRequest(ctx, client, sess, id, cache, st, renderOptions())
		}
	} else if sess.IsBanker() {
		fetch = func(ctx context.Context) (string, error) {
			listing, err := fetchBankerListing(ctx, client, sess, st)
			if err != nil {
				return "", err
			}
			return ui.RenderBankerLists(listing.Pending, listing.Decided, sess.Since(), time.Now(), ui.TerminalWidth()), nil
		}
	} else {
		fetch = func(ctx context.Context) (string, error) {
			reqs, err := client.ListClientRequests(ctx)
			if err != nil {
				return "", err
			}
			return ui.RenderClientList(reqs, ui.TerminalWidth()), nil
		}
	}

	p := poll.New(poll.Config{
		Key:           key,
		Interval:      interval,
		MinTriggerGap: time.Duration(cfg.Poll.FocusMinGapMillis) * time.Millisecond,
		Group:         &singleflight.Group{},
	}, fetch)

	if err := ui.RunWatch(cmd.Context(), title, p); err != nil {
		return err
	}
	if cache != nil {
		stats := cache.Stats()
		slog.Debug("explanation cache", "items", stats.Items, "hits", stats.Hits, "misses", stats.Misses)
	}
	return nil
}
