package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestCleanLLMText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain text", input: "  hello  ", want: "hello"},
		{name: "json fence", input: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "uppercase tag", input: "```JSON\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", input: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "repeated fences", input: "```json\n```json\n{\"a\":1}\n```\n```", want: `{"a":1}`},
		{name: "answer prefix", input: "Réponse: {\"a\":1}", want: `{"a":1}`},
		{name: "prefix without accent", input: "REPONSE : texte", want: "texte"},
		{name: "prefix then fence", input: "Réponse:\n```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "fence only", input: "```", want: ""},
		{name: "prefix not at start is kept", input: "Voici la réponse: ok", want: "Voici la réponse: ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanLLMText(tt.input))
		})
	}
}

func TestDecodeJSONObject_Whole(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantOK      bool
		wantCleaned string
		wantField   string
	}{
		{name: "object", input: `{"global_summary":"hi"}`, wantOK: true, wantField: "hi"},
		{name: "fenced object", input: "```json\n{\"global_summary\":\"hi\"}\n```", wantOK: true, wantField: "hi"},
		{name: "prose", input: "Le dossier est complet.", wantOK: false, wantCleaned: "Le dossier est complet."},
		{name: "object embedded in prose is not extracted", input: `Analyse: voir {"global_summary":"hi"}`, wantOK: false, wantCleaned: `Analyse: voir {"global_summary":"hi"}`},
		{name: "array is not an object", input: `[1,2,3]`, wantOK: false, wantCleaned: `[1,2,3]`},
		{name: "number is not an object", input: `42`, wantOK: false, wantCleaned: `42`},
		{name: "trailing comma kept as text", input: `{"global_summary":"hi",}`, wantOK: false, wantCleaned: `{"global_summary":"hi",}`},
		{name: "truncated object kept as text", input: `{"global_summary":"hi`, wantOK: false, wantCleaned: `{"global_summary":"hi`},
		{name: "double encoded", input: `"{\"global_summary\":\"hi\"}"`, wantOK: true, wantField: "hi"},
		{name: "empty", input: "   ", wantOK: false, wantCleaned: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeJSONObject(tt.input, ModeWhole)
			assert.Equal(t, tt.wantOK, got.OK)
			if tt.wantOK {
				assert.Equal(t, tt.wantField, got.Object.Get("global_summary").String())
				return
			}
			assert.Equal(t, tt.wantCleaned, got.Cleaned)
		})
	}
}

func TestDecodeJSONObject_Embedded(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
	}{
		{name: "trailing object in prose", input: `Voici l'analyse: {"global_summary":"hi"}`, wantOK: true},
		{name: "object followed by text", input: `{"global_summary":"hi"} merci`, wantOK: true},
		{name: "fenced after prefix", input: "Réponse: ```json\n{\"global_summary\":\"hi\"}\n```", wantOK: true},
		{name: "trailing comma repaired", input: `Note: {"global_summary":"hi",}`, wantOK: true},
		{name: "truncated object repaired", input: `{"global_summary":"hi`, wantOK: true},
		{name: "no object", input: "rien ici", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeJSONObject(tt.input, ModeEmbedded)
			assert.Equal(t, tt.wantOK, got.OK)
			if tt.wantOK {
				assert.Equal(t, "hi", got.Object.Get("global_summary").String())
			}
		})
	}
}

func TestSanitizeControlChars(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "raw newline in string", input: "{\"k\": \"a\nb\"}", want: `{"k": "a\nb"}`},
		{name: "raw tab in string", input: "{\"k\": \"a\tb\"}", want: `{"k": "a\tb"}`},
		{name: "newline outside string kept", input: "{\n\"k\": 1}", want: "{\n\"k\": 1}"},
		{name: "invalid escape doubled", input: `{"k": "\d+"}`, want: `{"k": "\\d+"}`},
		{name: "valid escapes preserved", input: `{"k": "say \"hi\"\n"}`, want: `{"k": "say \"hi\"\n"}`},
		{name: "escaped backslash preserved", input: `{"k": "a\\b"}`, want: `{"k": "a\\b"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeControlChars(tt.input))
		})
	}
}

func TestRepairJSON(t *testing.T) {
	inputs := []string{
		`{"a": "x", "b": "y",}`,
		`{'a': 'x'}`,
		"{\"a\": \"x\"\n\"b\": \"y\"}",
		`{"a": ["x", "y"`,
		`{"path": "C:\code\project"}`,
	}
	for _, in := range inputs {
		assert.True(t, gjson.Valid(repairJSON(in)), "repairJSON(%q) should be valid JSON", in)
	}
}

func TestNormalizeSpace(t *testing.T) {
	assert.Equal(t, "a b c", NormalizeSpace("  a \n b\t\tc "))
	assert.Equal(t, "", NormalizeSpace("   "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab...", Truncate("abcdefgh", 5))
	assert.Equal(t, "é", Truncate("éé", 1))
}
