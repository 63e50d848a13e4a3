package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFTSIndexSearchRanksExactOverPrefix(t *testing.T) {
	idx := newFTSIndex(0)
	idx.Index("a", "the cat sat on the mat", time.Now())
	idx.Index("b", "category theory is a branch of mathematics", time.Now())

	results := idx.Search("cat", 10)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
}

func TestFTSIndexRemove(t *testing.T) {
	idx := newFTSIndex(0)
	idx.Index("a", "hello world", time.Now())
	idx.Remove("a")

	results := idx.Search("hello", 10)
	assert.Empty(t, results)
	assert.Equal(t, 0, idx.docCount)
}

func TestFTSIndexReindexReplacesOldTokens(t *testing.T) {
	idx := newFTSIndex(0)
	idx.Index("a", "alpha beta gamma", time.Now())
	idx.Index("a", "delta epsilon", time.Now())

	assert.Empty(t, idx.Search("alpha", 10))
	results := idx.Search("delta", 10)
	require.Len(t, results, 1)
}

func TestFTSIndexEmptyQueryOrCorpus(t *testing.T) {
	idx := newFTSIndex(0)
	assert.Empty(t, idx.Search("anything", 10))

	idx.Index("a", "something", time.Now())
	assert.Empty(t, idx.Search("", 10))
}

func TestTokenizeDropsStopWordsAndShortTokens(t *testing.T) {
	tokens := tokenize("the a is to of cat sat mat")
	assert.Equal(t, []string{"cat", "sat", "mat"}, tokens)
}

func TestFTSIndexRecencyWeightPrefersNewerEntryWithEqualRelevance(t *testing.T) {
	idx := newFTSIndex(72 * time.Hour)
	idx.Index("old", "quarterly roadmap review", time.Now().Add(-96*time.Hour))
	idx.Index("new", "quarterly roadmap review", time.Now())

	results := idx.Search("quarterly roadmap review", 10)
	require.Len(t, results, 2)
	assert.Equal(t, "new", results[0].ID, "the more recent entry should outrank an equally-relevant older one")
}

func TestFTSIndexZeroHalfLifeDoesNotDecay(t *testing.T) {
	idx := newFTSIndex(0)
	idx.Index("old", "long term fact about the project", time.Now().Add(-24*365*time.Hour))

	results := idx.Search("long term fact", 10)
	require.Len(t, results, 1)
	assert.Greater(t, results[0].Score, 0.0)
}
