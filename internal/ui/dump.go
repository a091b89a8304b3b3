package ui

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultMaxItems bounds the entries shown per level of a dump.
const DefaultMaxItems = 8

// RenderDump renders any JSON value as an indented key/value tree, in
// document order, showing at most maxItems entries per object or array.
func RenderDump(v gjson.Result, maxItems int) string {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	var sb strings.Builder
	if isComposite(v) {
		dumpComposite(&sb, v, 0, maxItems)
	} else {
		sb.WriteString(dumpScalar(v))
		sb.WriteString("\n")
	}
	return sb.String()
}

func isComposite(v gjson.Result) bool {
	return v.IsObject() || v.IsArray()
}

func dumpScalar(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		if v.Raw == "" {
			return Placeholder
		}
		return "null"
	case gjson.String:
		return v.Str
	default:
		return v.Raw
	}
}

func dumpComposite(sb *strings.Builder, v gjson.Result, depth, maxItems int) {
	indent := strings.Repeat("  ", depth)
	total := 0
	v.ForEach(func(key, item gjson.Result) bool {
		total++
		if total > maxItems {
			return true
		}
		prefix := "- "
		if v.IsObject() {
			prefix = StyleLabel.Render(key.String()) + ": "
		}
		if isComposite(item) && !isEmptyComposite(item) {
			sb.WriteString(indent + strings.TrimRight(prefix, " ") + "\n")
			dumpComposite(sb, item, depth+1, maxItems)
			return true
		}
		value := dumpScalar(item)
		if isComposite(item) {
			value = StyleSubtle.Render(Placeholder)
		}
		sb.WriteString(indent + prefix + value + "\n")
		return true
	})
	if total == 0 && depth == 0 {
		sb.WriteString(StyleSubtle.Render(Placeholder) + "\n")
	}
	if extra := total - maxItems; extra > 0 {
		noun := "éléments"
		if v.IsObject() {
			noun = "champs"
		}
		sb.WriteString(indent + StyleSubtle.Render(fmt.Sprintf("… %d %s supplémentaires", extra, noun)) + "\n")
	}
}

func isEmptyComposite(v gjson.Result) bool {
	empty := true
	v.ForEach(func(_, _ gjson.Result) bool {
		empty = false
		return false
	})
	return empty
}
