package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/josephgoksu/CreditDesk/models"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const requestYAML = `amount: 15000
duration_months: 48
monthly_income: 3200
monthly_charges: 900
employment_type: salarie
contract_type: CDI
seniority_years: 4
family_status: celibataire
`

func TestDecodeRequestBody(t *testing.T) {
	body, err := decodeRequestBody([]byte(requestYAML))
	require.NoError(t, err)
	assert.Equal(t, 15000.0, body.Amount)
	assert.Equal(t, 48, body.DurationMonths)
	assert.Equal(t, "CDI", body.ContractType)

	body, err = decodeRequestBody([]byte(`{"amount": 900, "duration_months": 12}`))
	require.NoError(t, err)
	assert.Equal(t, 900.0, body.Amount)

	_, err = decodeRequestBody([]byte("amount: [1"))
	assert.Error(t, err)
}

func TestSubmit_FileWithOverridesAndUpload(t *testing.T) {
	env := setupCLI(t)
	loginAs(t, models.RoleClient, "c-7")
	require.NoError(t, afero.WriteFile(appFs, "/docs/demande.yaml", []byte(requestYAML), 0o644))
	require.NoError(t, afero.WriteFile(appFs, "/docs/bulletin.pdf", []byte("%PDF-1.4"), 0o644))
	env.backend.on("POST /api/client/credit-requests/upload", map[string]any{"id": "43", "status": "pending", "auto_decision": "approve"})

	out, err := run(t, "submit", "--file", "/docs/demande.yaml", "--amount", "20000", "--doc", "/docs/bulletin.pdf")
	require.NoError(t, err)
	assert.Contains(t, out, "Demande #43 déposée")

	body := string(env.backend.body("POST /api/client/credit-requests/upload"))
	assert.Contains(t, body, `name="payload"`)
	assert.Contains(t, body, `"amount":20000`)
	assert.Contains(t, body, `"documents":["bulletin.pdf"]`)
	assert.Contains(t, body, `filename="bulletin.pdf"`)
	assert.Contains(t, body, "%PDF-1.4")
}

func TestSubmit_FlagsOnlyJSON(t *testing.T) {
	env := setupCLI(t)
	loginAs(t, models.RoleClient, "c-7")
	env.backend.on("POST /api/client/credit-requests", map[string]any{"id": "44", "status": "pending"})

	_, err := run(t, "submit", "--amount", "5000", "--duration", "24", "--income", "2100",
		"--employment", "salarie", "--contract", "CDD", "--family", "marie")
	require.NoError(t, err)

	var sent models.CreditRequestCreate
	require.NoError(t, json.Unmarshal(env.backend.body("POST /api/client/credit-requests"), &sent))
	assert.Equal(t, 5000.0, sent.Amount)
	assert.Equal(t, "CDD", sent.ContractType)
	assert.NotNil(t, sent.Documents)
	assert.Empty(t, sent.Documents)
}

func TestSubmit_Refusals(t *testing.T) {
	t.Run("banker", func(t *testing.T) {
		setupCLI(t)
		loginAs(t, models.RoleBanker, "b-1")
		_, err := run(t, "submit", "--amount", "5000")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "clients")
	})
	t.Run("invalid body", func(t *testing.T) {
		env := setupCLI(t)
		loginAs(t, models.RoleClient, "c-7")
		_, err := run(t, "submit", "--amount", "5000")
		require.Error(t, err)
		assert.True(t, strings.HasPrefix(err.Error(), "invalid request"))
		assert.False(t, env.backend.called("POST /api/client/credit-requests"))
	})
}

func TestResubmit(t *testing.T) {
	env := setupCLI(t)
	loginAs(t, models.RoleClient, "c-7")
	require.NoError(t, afero.WriteFile(appFs, "/docs/demande.yaml", []byte(requestYAML), 0o644))
	env.backend.on("POST /api/client/credit-requests/42/resubmit", map[string]any{"id": "42", "status": "pending"})

	out, err := run(t, "resubmit", "42", "-f", "/docs/demande.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "Demande #42 redéposée")
}
