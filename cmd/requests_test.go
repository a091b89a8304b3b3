package cmd

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/josephgoksu/CreditDesk/internal/session"
	"github.com/josephgoksu/CreditDesk/models"
	"github.com/josephgoksu/CreditDesk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSince(t *testing.T) {
	now := time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)

	got, err := parseSince("now", now)
	require.NoError(t, err)
	assert.Equal(t, now, got)

	got, err = parseSince(" NOW ", now)
	require.NoError(t, err)
	assert.Equal(t, now, got)

	got, err = parseSince("2026-03-01T08:00:00+01:00", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC), got)

	got, err = parseSince("2026-03-01", now)
	require.NoError(t, err)
	assert.Equal(t, 2026, got.In(time.Local).Year())
	assert.Equal(t, time.March, got.In(time.Local).Month())
	assert.Equal(t, 1, got.In(time.Local).Day())

	_, err = parseSince("yesterday", now)
	assert.Error(t, err)
}

func TestRequestsList_NotLoggedIn(t *testing.T) {
	setupCLI(t)

	_, err := run(t, "requests", "list")
	assert.ErrorIs(t, err, types.ErrNotLoggedIn)
}

func TestRequestsList_BankerSections(t *testing.T) {
	env := setupCLI(t)
	loginAs(t, models.RoleBanker, "b-1")
	env.backend.on("GET /api/banker/credit-requests", []any{decidedRequestFixture(), bankerRequestFixture(), oldRequestFixture()})

	out, err := run(t, "requests", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Tous les dossiers")
	assert.Contains(t, out, "Demandes non traitées (2)")
	assert.Contains(t, out, "Demandes traitées (1)")
}

func TestRequestsList_SinceIsPersisted(t *testing.T) {
	env := setupCLI(t)
	loginAs(t, models.RoleBanker, "b-1")
	env.backend.on("GET /api/banker/credit-requests", []any{decidedRequestFixture(), bankerRequestFixture(), oldRequestFixture()})

	out, err := run(t, "requests", "list", "--since", "2026-01-01T00:00:00Z", "--output", "json")
	require.NoError(t, err)

	var listing bankerListing
	require.NoError(t, json.Unmarshal([]byte(out), &listing))
	require.Len(t, listing.Pending, 1)
	assert.Equal(t, "42", listing.Pending[0].ID)
	require.Len(t, listing.Decided, 1)
	assert.Equal(t, "41", listing.Decided[0].ID)

	sess, err := session.NewStore(appFs, testSessionFile).Load()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), sess.Since())

	// The filter survives to the next run without the flag.
	out, err = run(t, "requests", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Demandes non traitées (1)")
	assert.Contains(t, out, "Depuis le")

	_, err = run(t, "requests", "list", "--all")
	require.NoError(t, err)
	sess, err = session.NewStore(appFs, testSessionFile).Load()
	require.NoError(t, err)
	assert.True(t, sess.Since().IsZero())
}

func TestRequestsList_InvalidSince(t *testing.T) {
	setupCLI(t)
	loginAs(t, models.RoleBanker, "b-1")

	_, err := run(t, "requests", "list", "--since", "hier")
	assert.Error(t, err)
}

func TestRequestsList_ClientEmpty(t *testing.T) {
	env := setupCLI(t)
	loginAs(t, models.RoleClient, "c-7")
	env.backend.on("GET /api/client/credit-requests", []any{})

	out, err := run(t, "requests", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Aucune demande pour le moment.")
}

func TestRequestsShow_ClientThenOffline(t *testing.T) {
	env := setupCLI(t)
	loginAs(t, models.RoleClient, "c-7")
	env.backend.on("GET /api/client/credit-requests/42", clientRequestFixture())

	out, err := run(t, "requests", "show", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "Votre dossier est en cours d'étude.")
	assert.NotContains(t, out, "Ne pas afficher au client")

	env.backend.on("GET /api/client/credit-requests/42", 500)
	out, err = run(t, "requests", "show", "42", "--offline")
	require.NoError(t, err)
	assert.Contains(t, out, "Copie hors ligne du")
	assert.Contains(t, out, "Votre dossier est en cours d'étude.")
}

func TestRequestsShow_BankerStructured(t *testing.T) {
	env := setupCLI(t)
	loginAs(t, models.RoleBanker, "b-1")
	env.backend.on("GET /api/banker/credit-requests/42", bankerRequestFixture())

	out, err := run(t, "requests", "show", "42", "-o", "json")
	require.NoError(t, err)

	var view struct {
		Request      models.BankerRequest `json:"request"`
		Explanations map[string]struct {
			Agent         string  `json:"agent"`
			GlobalSummary *string `json:"global_summary"`
			Block         string  `json:"block"`
		} `json:"explanations"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "42", view.Request.ID)
	require.Contains(t, view.Explanations, "decision")
	require.Contains(t, view.Explanations, "fraud")
	require.NotNil(t, view.Explanations["fraud"].GlobalSummary)
	assert.Equal(t, "Signal faible", *view.Explanations["fraud"].GlobalSummary)
}

func TestRequestsShow_BankerText(t *testing.T) {
	env := setupCLI(t)
	loginAs(t, models.RoleBanker, "b-1")
	env.backend.on("GET /api/banker/credit-requests/42", bankerRequestFixture())

	out, err := run(t, "requests", "show", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "Détection de fraude")
	assert.Contains(t, out, "IBAN différent")
	assert.Contains(t, out, "Revenus récents")
	assert.Contains(t, out, "Vu avec le client")
}

func TestRequestsShow_NotFound(t *testing.T) {
	setupCLI(t)
	loginAs(t, models.RoleBanker, "b-1")

	_, err := run(t, "requests", "show", "999")
	assert.ErrorIs(t, err, types.ErrNotFound)
}
