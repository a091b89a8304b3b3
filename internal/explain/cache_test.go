package explain

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_HitsReturnEqualClones(t *testing.T) {
	c, err := NewCache(4)
	require.NoError(t, err)

	raw := []byte(`{"global_summary": "g", "flag_explanations": {"A": "a"}}`)
	first := c.Normalize("fraud", raw)
	second := c.Normalize("fraud", raw)
	assert.Equal(t, first, second)

	second.Flags[0].Text = "mutated"
	third := c.Normalize("fraud", raw)
	assert.Equal(t, "a", third.Flags[0].Text)

	stats := c.Stats()
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 1, stats.Items)
}

func TestCache_KeyIncludesAgent(t *testing.T) {
	c, err := NewCache(4)
	require.NoError(t, err)

	raw := []byte(`{"decision_details": {"summary": "s"}}`)
	assert.Equal(t, BlockNone, c.Normalize("fraud", raw).Block)
	assert.Equal(t, BlockDecision, c.Normalize("decision", raw).Block)
	assert.Equal(t, BlockDecision, c.Normalize(" DECISION ", raw).Block)
	assert.Equal(t, uint64(1), c.Stats().Hits)
}

func TestCache_Evicts(t *testing.T) {
	c, err := NewCache(1)
	require.NoError(t, err)

	c.Normalize("fraud", []byte(`"a"`))
	c.Normalize("fraud", []byte(`"b"`))
	c.Normalize("fraud", []byte(`"a"`))

	assert.Equal(t, uint64(0), c.Stats().Hits)
	assert.Equal(t, 1, c.Stats().Items)

	c.Purge()
	assert.Equal(t, 0, c.Stats().Items)
}

func TestCache_NilCacheNormalizes(t *testing.T) {
	var c *Cache
	e := c.Normalize("fraud", []byte(`"texte"`))
	require.NotNil(t, e.GlobalSummary)
	assert.Equal(t, "texte", *e.GlobalSummary)
}

func TestCache_ConcurrentUse(t *testing.T) {
	c, err := NewCache(0)
	require.NoError(t, err)

	raw := []byte(`{"flag_explanations": {"LOW_AVG_SIMILARITY": "x"}, "similarity_details": {"report": "r"}}`)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e := c.Normalize("similarity", raw)
			e.Flags[0].Text = "mine"
		}()
	}
	wg.Wait()

	assert.Equal(t, "x", c.Normalize("similarity", raw).Flags[0].Text)
}
