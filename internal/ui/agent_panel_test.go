package ui

import (
	"strings"
	"testing"

	"github.com/josephgoksu/CreditDesk/internal/explain"
	"github.com/josephgoksu/CreditDesk/models"
	"github.com/stretchr/testify/assert"
)

func render(name, raw string, opts RenderOptions) string {
	r := models.AgentResult{Name: name, Explanations: []byte(raw)}
	return RenderAgent(r, explain.Normalize(name, []byte(raw)), opts)
}

func TestRenderAgent_Header(t *testing.T) {
	r := models.AgentResult{
		Name:       "fraud",
		Score:      fptr(0.42),
		Confidence: fptr(0.9),
		Flags:      []string{"HIGH_DTI"},
	}
	out := RenderAgent(r, explain.Normalize("fraud", []byte(`"ok"`)), RenderOptions{})

	assert.Contains(t, out, "Détection de fraude")
	assert.Contains(t, out, "Score: 0.42")
	assert.Contains(t, out, "Confiance: 90%")
	assert.Contains(t, out, "Signaux: HIGH_DTI")
	assert.Contains(t, out, "ok")

	customer := RenderAgent(r, explain.Normalize("fraud", []byte(`"ok"`)), RenderOptions{Customer: true})
	assert.NotContains(t, customer, "Signaux")
}

func TestRenderAgent_UnknownAgentKeepsName(t *testing.T) {
	out := render("scoring", `"texte"`, RenderOptions{})
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "scoring"))
}

func TestRenderExplanation_CustomerHidesInternal(t *testing.T) {
	raw := `{
		"customer_explanation": {"summary": "Votre dossier est solide.", "next_steps": ["Signer"]},
		"internal_explanation": {"summary": "Ratio d'endettement bas.", "key_factors": ["DTI 20%"]}
	}`

	banker := render("explanation", raw, RenderOptions{})
	assert.Contains(t, banker, "Client: Votre dossier est solide.")
	assert.Contains(t, banker, "Interne: Ratio d'endettement bas.")
	assert.Contains(t, banker, "• DTI 20%")

	client := render("explanation", raw, RenderOptions{Customer: true})
	assert.Contains(t, client, "Votre dossier est solide.")
	assert.Contains(t, client, "• Signer")
	assert.NotContains(t, client, "Ratio d'endettement")
}

func TestRenderExplanation_Flags(t *testing.T) {
	out := render("document", `{"flag_explanations": {"missing_documents": "Pas de bulletin."}}`, RenderOptions{})

	assert.Contains(t, out, "Détails")
	assert.Contains(t, out, "Documents manquants (missing_documents): Pas de bulletin.")
}

func TestRenderExplanation_ListsAreBounded(t *testing.T) {
	raw := `{"customer_explanation": {"summary": "s", "main_reasons": ["a", "b", "c", "d"]}}`
	out := render("explanation", raw, RenderOptions{MaxItems: 2})

	assert.Contains(t, out, "• a")
	assert.Contains(t, out, "• b")
	assert.NotContains(t, out, "• c")
	assert.Contains(t, out, "… 2 éléments supplémentaires")
}

func TestRenderExplanation_Decision(t *testing.T) {
	raw := `{
		"global_summary": "Profil risqué.",
		"decision_details": {
			"recommendation": "refuser",
			"confidence": 0.8,
			"summary": "profil  risqué.",
			"human_review_required": true,
			"reasons": ["HUMAN_REVIEW_REQUIRED"],
			"conflicts": [{"type": "fraud_vs_docs", "severity": "high", "description": "Écart"}]
		}
	}`
	out := render("decision", raw, RenderOptions{})

	assert.Contains(t, out, "Recommandation:")
	assert.Contains(t, out, "Refuser")
	assert.Contains(t, out, "confiance 80%")
	assert.Contains(t, out, "Revue humaine requise.")
	assert.Contains(t, out, "[high] fraud_vs_docs: Écart")
	// The global summary repeats the block summary and is shown once.
	assert.Equal(t, 1, strings.Count(strings.ToLower(out), "risqué."))
}

func TestRenderExplanation_Similarity(t *testing.T) {
	raw := `{"similarity_details": {
		"breakdown": {"ok": 6, "default": 3, "fraud": 1},
		"cases": [{"case_id": "C-1", "similarity_pct": 91, "status": "OK"}],
		"report": "Dix cas proches."
	}}`
	out := render("similarity", raw, RenderOptions{})

	assert.Contains(t, out, "Cas similaires: 10")
	assert.Contains(t, out, "OK 60% (6) · Défaut 30% (3) · Fraude 10% (1)")
	assert.Contains(t, out, "C-1")
	assert.Contains(t, out, "Dix cas proches.")
}

func TestRenderExplanation_Document(t *testing.T) {
	raw := `{
		"global_summary": "Résumé masqué",
		"document_details": {"consistency_level": "low", "missing_documents": ["missing_documents"]}
	}`
	out := render("document", raw, RenderOptions{})

	assert.Contains(t, out, "Cohérence: faible")
	assert.NotContains(t, out, "Résumé masqué")
}

func TestRenderExplanation_Fallbacks(t *testing.T) {
	dump := render("fraud", `[1, {"k": "v"}]`, RenderOptions{})
	assert.Contains(t, dump, "Sortie brute")
	assert.Contains(t, dump, "k: v")

	empty := render("fraud", ``, RenderOptions{})
	assert.Contains(t, empty, "Aucune explication disponible.")
}

func TestStackedBar(t *testing.T) {
	one, two := 1, 3
	b := explain.Breakdown{OK: &one, Default: &two}

	bar := StackedBar(b, 8)
	assert.Equal(t, 8, strings.Count(bar, "█"))
	assert.Equal(t, strings.Repeat("░", 4), StackedBar(explain.Breakdown{}, 4))
	assert.Empty(t, StackedBar(b, 0))
}

func TestStackedBar_NegativeCounts(t *testing.T) {
	neg, ten := -5, 10
	b := explain.Breakdown{OK: &neg, Default: &ten}

	assert.NotPanics(t, func() {
		assert.Equal(t, 8, strings.Count(StackedBar(b, 8), "█"))
	})
	assert.NotPanics(t, func() {
		out := render("similarity", `{"similarity_details": {"breakdown": {"ok": -5, "default": 10, "fraud": 0}, "report": "r"}}`, RenderOptions{})
		assert.Contains(t, out, "r")
	})
}

func TestAgentTitle(t *testing.T) {
	for _, a := range explain.Agents {
		assert.NotEqual(t, "Agent", AgentTitle(a), a.String())
	}
	assert.Equal(t, "Agent", AgentTitle(explain.AgentUnknown))
}
