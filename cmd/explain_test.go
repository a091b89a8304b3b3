package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/josephgoksu/CreditDesk/internal/ui"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentInputs(t *testing.T) {
	t.Run("whole request", func(t *testing.T) {
		data, err := json.Marshal(bankerRequestFixture())
		require.NoError(t, err)
		results := agentInputs(data, "")
		require.Len(t, results, 2)
		assert.Equal(t, "fraud", results[0].Name)
		assert.Equal(t, "decision", results[1].Name)
	})
	t.Run("single result", func(t *testing.T) {
		results := agentInputs([]byte(`{"name": "similarity", "explanations": {"global_summary": "g"}}`), "fraud")
		require.Len(t, results, 1)
		assert.Equal(t, "similarity", results[0].Name)
		assert.JSONEq(t, `{"global_summary": "g"}`, string(results[0].Explanations))
	})
	t.Run("raw payload", func(t *testing.T) {
		raw := []byte(`{"global_summary": "g"}`)
		results := agentInputs(raw, "decision")
		require.Len(t, results, 1)
		assert.Equal(t, "decision", results[0].Name)
		assert.Equal(t, raw, []byte(results[0].Explanations))
	})
	t.Run("plain text", func(t *testing.T) {
		results := agentInputs([]byte("texte libre"), "fraud")
		require.Len(t, results, 1)
		assert.Equal(t, "texte libre", string(results[0].Explanations))
	})
}

func TestExplain_FileStructured(t *testing.T) {
	setupCLI(t)
	require.NoError(t, afero.WriteFile(appFs, "/in/payload.json", []byte(`{
		"global_summary": "Dossier solide",
		"decision_details": {"summary": "Dossier solide", "recommendation": "approve"}
	}`), 0o644))

	out, err := run(t, "explain", "--agent", "decision", "/in/payload.json", "-o", "json")
	require.NoError(t, err)

	var e struct {
		Agent             string `json:"agent"`
		SummarySuppressed bool   `json:"summary_suppressed"`
		Block             string `json:"block"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &e))
	assert.Equal(t, "decision", e.Agent)
	assert.True(t, e.SummarySuppressed)
	assert.Equal(t, "decision", e.Block)
}

func TestExplain_StdinText(t *testing.T) {
	setupCLI(t)
	rootCmd.SetIn(strings.NewReader(`{"flags": {"LOW_AVG_SIMILARITY": "Peu de dossiers proches"}, "summary": "Profil atypique"}`))

	out, err := run(t, "explain", "-a", "similarity", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Dossiers similaires")
	assert.Contains(t, out, "Profil atypique")
	assert.Contains(t, out, "Similarité moyenne faible")
	assert.Contains(t, out, "Peu de dossiers proches")

	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		assert.LessOrEqual(t, lipgloss.Width(line), ui.TerminalWidth(), line)
	}
}

func TestExplain_CustomerHidesInternal(t *testing.T) {
	setupCLI(t)
	require.NoError(t, afero.WriteFile(appFs, "/in/x.json", []byte(`{
		"customer_explanation": {"summary": "Réponse sous 48h"},
		"internal_explanation": {"summary": "Score limite"}
	}`), 0o644))

	out, err := run(t, "explain", "-a", "explanation", "--customer", "/in/x.json")
	require.NoError(t, err)
	assert.Contains(t, out, "Réponse sous 48h")
	assert.NotContains(t, out, "Score limite")
}

func TestExplain_Errors(t *testing.T) {
	setupCLI(t)

	_, err := run(t, "explain", "/in/missing.json")
	assert.Error(t, err)

	rootCmd.SetIn(strings.NewReader(`"x"`))
	_, err = run(t, "explain", "--follow", "-")
	assert.Error(t, err)
}
