package explain

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"

	"github.com/josephgoksu/CreditDesk/internal/utils"
)

// ShapeKind is the variant of an explanations payload after coercion.
type ShapeKind int

const (
	// ShapeEmpty: missing, null or blank payload.
	ShapeEmpty ShapeKind = iota
	// ShapeStructured: an object already in the current layout.
	ShapeStructured
	// ShapeLegacy: an object carrying {flags: {...}, summary: "..."}.
	ShapeLegacy
	// ShapeText: a string that did not decode to an object; it became the
	// global summary.
	ShapeText
	// ShapeOpaque: an array, number or boolean. Nothing is extracted but the
	// raw value is kept for display.
	ShapeOpaque
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeStructured:
		return "structured"
	case ShapeLegacy:
		return "legacy"
	case ShapeText:
		return "text"
	case ShapeOpaque:
		return "opaque"
	default:
		return "empty"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ShapeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

const emptyObject = "{}"

// Payload is the coerced explanations value. Doc is always a JSON object in
// the current layout; Raw holds the original value of opaque payloads.
type Payload struct {
	Kind ShapeKind
	// FromString is set when the object was decoded out of a string payload.
	FromString bool
	Doc        string
	Raw        string
}

// Get reads a gjson path from the coerced object.
func (p Payload) Get(path string) gjson.Result {
	return gjson.Get(p.Doc, path)
}

// Value returns the payload as a gjson value suitable for generic display:
// the original value for opaque payloads, the coerced object otherwise.
func (p Payload) Value() gjson.Result {
	if p.Kind == ShapeOpaque {
		return gjson.Parse(p.Raw)
	}
	return gjson.Parse(p.Doc)
}

// IsEmpty reports whether there is nothing at all to show.
func (p Payload) IsEmpty() bool {
	if p.Kind == ShapeOpaque {
		v := gjson.Parse(p.Raw)
		if v.IsArray() {
			return len(v.Array()) == 0
		}
		return p.Raw == ""
	}
	if p.Doc == "" {
		return true
	}
	empty := true
	gjson.Parse(p.Doc).ForEach(func(_, _ gjson.Result) bool {
		empty = false
		return false
	})
	return empty
}

// MarshalJSON emits the shape and the coerced document.
func (p Payload) MarshalJSON() ([]byte, error) {
	doc := p.Doc
	if p.Kind == ShapeOpaque {
		doc = p.Raw
	}
	if doc == "" || !gjson.Valid(doc) {
		doc = emptyObject
	}
	return json.Marshal(struct {
		Shape    ShapeKind       `json:"shape"`
		Document json.RawMessage `json:"document"`
	}{Shape: p.Kind, Document: json.RawMessage(doc)})
}

// MarshalYAML mirrors MarshalJSON for YAML output.
func (p Payload) MarshalYAML() (any, error) {
	var doc any
	if err := json.Unmarshal([]byte(p.Value().Raw), &doc); err != nil {
		doc = map[string]any{}
	}
	return map[string]any{
		"shape":    p.Kind.String(),
		"document": doc,
	}, nil
}

var _ yaml.Marshaler = Payload{}

func emptyPayload() Payload {
	return Payload{Kind: ShapeEmpty, Doc: emptyObject}
}

// Coerce classifies raw explanations JSON and brings it into the structured
// layout. Bytes that are not valid JSON are treated as a text payload. It
// never panics and never returns an error.
func Coerce(raw []byte) Payload {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return emptyPayload()
	}
	if !gjson.ValidBytes(trimmed) {
		return coerceText(string(trimmed))
	}
	return CoerceValue(gjson.ParseBytes(trimmed))
}

// CoerceValue is Coerce for an already parsed value.
func CoerceValue(v gjson.Result) Payload {
	switch {
	case !v.Exists() || v.Type == gjson.Null:
		return emptyPayload()
	case v.Type == gjson.String:
		return coerceText(v.Str)
	case v.IsObject():
		return coerceObject(v.Raw)
	default:
		return Payload{Kind: ShapeOpaque, Doc: emptyObject, Raw: v.Raw}
	}
}

// coerceText decodes a string payload. Only a string that is entirely one
// JSON object (after removing fences and answer prefixes) is treated as
// structured; anything else becomes the global summary verbatim.
func coerceText(s string) Payload {
	decoded := utils.DecodeJSONObject(s, utils.ModeWhole)
	if decoded.OK {
		p := coerceObject(decoded.Object.Raw)
		p.FromString = true
		return p
	}
	if decoded.Cleaned == "" {
		return emptyPayload()
	}
	doc, err := sjson.Set(emptyObject, "global_summary", decoded.Cleaned)
	if err != nil {
		return emptyPayload()
	}
	return Payload{Kind: ShapeText, FromString: true, Doc: doc}
}

// coerceObject detects the legacy {flags, summary} layout and remaps it.
// The legacy check wins over treating the object as current: an object is
// legacy when "flags" is a map and "flag_explanations" is absent.
func coerceObject(raw string) Payload {
	obj := gjson.Parse(raw)
	flags := obj.Get("flags")
	if !flags.IsObject() || obj.Get("flag_explanations").Exists() {
		return Payload{Kind: ShapeStructured, Doc: raw}
	}

	doc, err := sjson.SetRaw(raw, "flag_explanations", flags.Raw)
	if err != nil {
		return Payload{Kind: ShapeStructured, Doc: raw}
	}
	doc = deleteKey(doc, "flags")
	if summary := obj.Get("summary"); summary.Type == gjson.String {
		if next, err := sjson.Set(doc, "global_summary", summary.Str); err == nil {
			doc = next
		}
		doc = deleteKey(doc, "summary")
	}
	return Payload{Kind: ShapeLegacy, Doc: doc}
}

func deleteKey(doc, key string) string {
	next, err := sjson.Delete(doc, key)
	if err != nil {
		return doc
	}
	return next
}
