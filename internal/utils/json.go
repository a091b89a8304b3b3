package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// DecodeMode selects how much of a string must be JSON.
type DecodeMode int

const (
	// ModeWhole requires the entire cleaned string to be one valid JSON
	// object. Prose around an object, or a malformed object, makes the
	// decode fail.
	ModeWhole DecodeMode = iota

	// ModeEmbedded decodes the first JSON object found in the cleaned
	// string and ignores leading prose and trailing text. Malformed objects
	// are repaired when possible.
	ModeEmbedded
)

// maxUnquoteDepth bounds how many layers of JSON string encoding are peeled
// off a double-encoded payload.
const maxUnquoteDepth = 2

// Pre-compiled regexes for cleaning and repairing LLM output.
var (
	// Opening fence with an optional language tag: ```json, ```JSON, ```
	leadingFenceRegex = regexp.MustCompile("^\\s*```[A-Za-z0-9_+-]*[ \\t]*\\r?\\n?")
	// Closing fence, possibly followed by whitespace
	trailingFenceRegex = regexp.MustCompile("\\r?\\n?[ \\t]*```\\s*$")
	// "Réponse:", "Reponse :", "Response:", "Answer:" at the very start
	answerPrefixRegex = regexp.MustCompile(`(?i)^\s*(r[ée]ponse|response|answer|r[ée]sultat)\s*:\s*`)

	missingCommaBeforeKeyRegex  = regexp.MustCompile(`(")\s*\n\s*("[\w][^"]*"\s*:)`)
	missingCommaAfterValueRegex = regexp.MustCompile(`(\d|true|false|null)\s*\n\s*("[\w][^"]*"\s*:)`)
	missingCommaAfterBraceRegex = regexp.MustCompile(`([}\]])\s*\n?\s*("[\w])`)
	trailingCommaRegex          = regexp.MustCompile(`,\s*([}\]])`)
	singleQuoteKeyRegex         = regexp.MustCompile(`([{,]\s*)'(\w+)'(\s*:)`)
	singleQuoteValueRegex       = regexp.MustCompile(`(:\s*)'((?:[^'\\]|\\.)*)'(\s*[,}\]])`)
)

// Decoded is the outcome of a best-effort decode. Cleaned is always set so
// callers can fall back to the literal text when OK is false.
type Decoded struct {
	Object  gjson.Result
	Cleaned string
	OK      bool
}

// CleanLLMText strips markdown code fences (any number, any language tag)
// and a leading answer prefix such as "Réponse:" from s.
func CleanLLMText(s string) string {
	cleaned := strings.TrimSpace(s)
	for {
		next := answerPrefixRegex.ReplaceAllString(cleaned, "")
		next = leadingFenceRegex.ReplaceAllString(next, "")
		next = trailingFenceRegex.ReplaceAllString(next, "")
		next = strings.TrimSpace(next)
		if next == cleaned {
			return cleaned
		}
		cleaned = next
	}
}

// DecodeJSONObject cleans s and attempts to decode a JSON object from it.
// It never fails loudly: on any problem OK is false and Cleaned holds the
// text the caller should display instead.
func DecodeJSONObject(s string, mode DecodeMode) Decoded {
	return decodeJSONObject(s, mode, 0)
}

func decodeJSONObject(s string, mode DecodeMode, depth int) Decoded {
	cleaned := CleanLLMText(s)
	out := Decoded{Cleaned: cleaned}
	if cleaned == "" {
		return out
	}

	// A JSON string literal wrapping the real payload
	if depth < maxUnquoteDepth && strings.HasPrefix(cleaned, `"`) {
		if inner := gjson.Parse(cleaned); gjson.Valid(cleaned) && inner.Type == gjson.String {
			nested := decodeJSONObject(inner.Str, mode, depth+1)
			if nested.OK {
				return nested
			}
			out.Cleaned = nested.Cleaned
			return out
		}
	}

	var candidate string
	switch mode {
	case ModeEmbedded:
		idx := strings.IndexByte(cleaned, '{')
		if idx == -1 {
			return out
		}
		candidate = cleaned[idx:]
	default:
		if !strings.HasPrefix(cleaned, "{") {
			return out
		}
		candidate = cleaned
	}

	if obj, ok := parseObject(candidate, mode); ok {
		out.Object = obj
		out.OK = true
		return out
	}

	// Whole-string payloads that fail to parse are shown as written.
	if mode != ModeEmbedded {
		return out
	}
	repaired := repairJSON(candidate)
	if repaired != candidate {
		if obj, ok := parseObject(repaired, mode); ok {
			out.Object = obj
			out.OK = true
		}
	}
	return out
}

// parseObject decodes a single JSON object from text. In ModeEmbedded the
// decoder stops after the first value so trailing prose is ignored; in
// ModeWhole anything after the object invalidates the decode.
func parseObject(text string, mode DecodeMode) (gjson.Result, bool) {
	if mode == ModeWhole {
		if !gjson.Valid(text) {
			return gjson.Result{}, false
		}
		res := gjson.Parse(text)
		return res, res.IsObject()
	}

	var raw json.RawMessage
	dec := json.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(&raw); err != nil {
		return gjson.Result{}, false
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return gjson.Result{}, false
	}
	res := gjson.ParseBytes(trimmed)
	return res, res.IsObject()
}

// repairJSON fixes common syntax errors in model-produced JSON: raw control
// characters in strings, missing or trailing commas, single quotes and
// truncated output.
func repairJSON(input string) string {
	result := sanitizeControlChars(input)

	result = missingCommaBeforeKeyRegex.ReplaceAllString(result, `$1, $2`)
	result = missingCommaAfterValueRegex.ReplaceAllString(result, `$1, $2`)
	result = missingCommaAfterBraceRegex.ReplaceAllString(result, `$1, $2`)
	result = trailingCommaRegex.ReplaceAllString(result, `$1`)
	result = singleQuoteKeyRegex.ReplaceAllString(result, `$1"$2"$3`)
	result = singleQuoteValueRegex.ReplaceAllStringFunc(result, func(match string) string {
		parts := singleQuoteValueRegex.FindStringSubmatch(match)
		if len(parts) != 4 {
			return match
		}
		value := strings.ReplaceAll(parts[2], `\'`, `'`)
		value = strings.ReplaceAll(value, `"`, `\"`)
		return parts[1] + `"` + value + `"` + parts[3]
	})

	return closeTruncated(result)
}

// sanitizeControlChars escapes literal control characters inside JSON strings
// and doubles backslashes that do not start a valid JSON escape (regexes and
// Windows paths such as "\d+" or "C:\code").
func sanitizeControlChars(input string) string {
	var sb strings.Builder
	sb.Grow(len(input))

	inString := false
	escaped := false
	for i := 0; i < len(input); i++ {
		c := input[i]
		switch {
		case escaped:
			sb.WriteByte(c)
			escaped = false
		case c == '\\' && inString:
			if i+1 < len(input) && !strings.ContainsRune(`"\/bfnrtu`, rune(input[i+1])) {
				sb.WriteString(`\\`)
				continue
			}
			sb.WriteByte(c)
			escaped = true
		case c == '"':
			inString = !inString
			sb.WriteByte(c)
		case inString && c == '\n':
			sb.WriteString(`\n`)
		case inString && c == '\r':
			sb.WriteString(`\r`)
		case inString && c == '\t':
			sb.WriteString(`\t`)
		case inString && c < 0x20:
			sb.WriteString(fmt.Sprintf(`\u%04x`, c))
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// closeTruncated terminates an unfinished string and balances brackets,
// which is what a response cut off by a token limit usually needs.
func closeTruncated(input string) string {
	quotes := 0
	escaped := false
	for _, c := range input {
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			quotes++
		}
	}
	if quotes%2 != 0 {
		input += `"`
	}

	openBrackets := strings.Count(input, "[") - strings.Count(input, "]")
	openBraces := strings.Count(input, "{") - strings.Count(input, "}")
	for i := 0; i < openBrackets; i++ {
		input += "]"
	}
	for i := 0; i < openBraces; i++ {
		input += "}"
	}
	return input
}
