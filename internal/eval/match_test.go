package eval

import (
	"testing"

	"github.com/nickromney-org/release-radar/internal/classify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func truthOf(texts ...string) []GroundTruthEntry {
	var out []GroundTruthEntry
	for _, t := range texts {
		out = append(out, GroundTruthEntry{Version: "1.0.0", Category: "Feature", Text: t})
	}
	return out
}

func itemsOf(texts ...string) []classify.ChangeItem {
	var out []classify.ChangeItem
	for _, t := range texts {
		out = append(out, classify.ChangeItem{Category: classify.Feature, OriginalText: t})
	}
	return out
}

func TestMatch_OneToOne(t *testing.T) {
	truth := truthOf("Added the /usage command", "Fixed crash when resizing")
	items := itemsOf("Fixed crash when resizing", "Added the /usage command")

	pairs := Match(truth, items, 0.6)

	require.Len(t, pairs, 2)
	assert.Equal(t, Pair{TruthIndex: 0, ItemIndex: 1, Score: 1}, pairs[0])
	assert.Equal(t, Pair{TruthIndex: 1, ItemIndex: 0, Score: 1}, pairs[1])
}

func TestMatch_GreedyPrefersBestScore(t *testing.T) {
	// Both truth entries resemble the same item; the exact one wins it
	truth := truthOf("Added model picker", "Added model picker to settings")
	items := itemsOf("Added model picker to settings")

	pairs := Match(truth, items, 0.5)

	require.Len(t, pairs, 1)
	assert.Equal(t, 1, pairs[0].TruthIndex)
}

func TestMatch_TiesBrokenByOrder(t *testing.T) {
	truth := truthOf("Added hooks", "Added hooks")
	items := itemsOf("Added hooks", "Added hooks")

	pairs := Match(truth, items, 0.6)

	require.Len(t, pairs, 2)
	assert.Equal(t, 0, pairs[0].ItemIndex)
	assert.Equal(t, 1, pairs[1].ItemIndex)
}

func TestMatch_BelowThresholdNeverMatches(t *testing.T) {
	truth := truthOf("Added the /usage command")
	items := itemsOf("Improved terminal rendering performance")

	assert.Empty(t, Match(truth, items, 0.6))
}

func TestMatch_UsesSummary(t *testing.T) {
	truth := truthOf("Adds a /usage command to show plan limits")
	items := []classify.ChangeItem{{
		Category:     classify.Feature,
		OriginalText: "New: /usage",
		Summary:      "Adds a /usage command to show plan limits",
	}}

	pairs := Match(truth, items, 0.6)
	require.Len(t, pairs, 1)
	assert.InDelta(t, 1.0, pairs[0].Score, 1e-9)
}

func TestMatch_Deterministic(t *testing.T) {
	truth := truthOf("Added a", "Added b thing", "Improved c", "Changed d default")
	items := itemsOf("Changed d default", "Added b thing", "Added a", "Improved c")

	first := Match(truth, items, 0.6)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Match(truth, items, 0.6))
	}
}
