package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestRenderDump_Order(t *testing.T) {
	out := RenderDump(gjson.Parse(`{"zeta": 1, "alpha": "a", "nested": {"k": true}, "list": ["x", "y"]}`), 8)

	assert.Equal(t, "zeta: 1\nalpha: a\nnested:\n  k: true\nlist:\n  - x\n  - y\n", out)
}

func TestRenderDump_BoundsEachLevel(t *testing.T) {
	out := RenderDump(gjson.Parse(`{"a": 1, "b": 2, "c": 3, "arr": [1, 2, 3, 4]}`), 2)

	assert.Equal(t, "a: 1\nb: 2\n… 2 champs supplémentaires\n", out)

	out = RenderDump(gjson.Parse(`{"arr": [1, 2, 3, 4, 5]}`), 3)
	assert.Equal(t, "arr:\n  - 1\n  - 2\n  - 3\n  … 2 éléments supplémentaires\n", out)
}

func TestRenderDump_Scalars(t *testing.T) {
	assert.Equal(t, "3.5\n", RenderDump(gjson.Parse(`3.5`), 0))
	assert.Equal(t, "null\n", RenderDump(gjson.Parse(`null`), 0))
	assert.Equal(t, "texte\n", RenderDump(gjson.Parse(`"texte"`), 0))
	assert.Equal(t, Placeholder+"\n", RenderDump(gjson.Parse(`{}`), 0))
	assert.Equal(t, "k: "+Placeholder+"\n", RenderDump(gjson.Parse(`{"k": []}`), 0))
	assert.Equal(t, "k: null\n", RenderDump(gjson.Parse(`{"k": null}`), 0))
}

func TestRenderDump_DefaultLimit(t *testing.T) {
	out := RenderDump(gjson.Parse(`[1,2,3,4,5,6,7,8,9,10]`), 0)
	assert.Contains(t, out, "… 2 éléments supplémentaires")
}
