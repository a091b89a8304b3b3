package ui

import (
	"encoding/json"
	"testing"

	"github.com/josephgoksu/CreditDesk/models"
	"github.com/stretchr/testify/assert"
)

func TestRenderTranscript(t *testing.T) {
	resp := &models.AgentChatResponse{
		AgentName: "fraud",
		Messages: []models.AgentChatMessage{
			{Role: "banker", Content: "Pourquoi ce score ?", CreatedAt: ts("2026-05-01T09:00:00")},
			{Role: "agent", Content: "```json\n{\"answer\": \"Revenus incohérents\"}\n```"},
			{Role: "assistant", Content: "Réponse libre", StructuredOutput: json.RawMessage(`{"risk": "high"}`)},
		},
	}

	out := RenderTranscript(resp, RenderOptions{})

	assert.Contains(t, out, "Conversation · Détection de fraude")
	assert.Contains(t, out, "Banquier 01/05/2026 09:00")
	assert.Contains(t, out, "  Pourquoi ce score ?")
	assert.Contains(t, out, "  answer: Revenus incohérents")
	assert.NotContains(t, out, "```")
	assert.Contains(t, out, "  Réponse libre")
	assert.Contains(t, out, "Sortie structurée:")
	assert.Contains(t, out, "risk: high")
}

func TestRenderTranscript_Empty(t *testing.T) {
	out := RenderTranscript(&models.AgentChatResponse{AgentName: "custom"}, RenderOptions{})
	assert.Contains(t, out, "custom")
	assert.Contains(t, out, "Aucun message.")
}

func TestIndent(t *testing.T) {
	assert.Equal(t, "> a\n\n> b\n", indent("a\n\nb\n", "> "))
	assert.Equal(t, "> a", indent("a", "> "))
}
