package eval

import (
	"sort"

	"github.com/nickromney-org/release-radar/internal/classify"
)

// DefaultThreshold is the minimum similarity for a match
const DefaultThreshold = 0.6

// Pair is one ground-truth entry matched to one classified item
type Pair struct {
	TruthIndex int     `json:"truth_index" yaml:"truth_index"`
	ItemIndex  int     `json:"item_index" yaml:"item_index"`
	Score      float64 `json:"score" yaml:"score"`
}

// ItemScore scores a ground-truth text against a classified item using the
// better of its original text and its summary
func ItemScore(truth string, item classify.ChangeItem) float64 {
	return max(Similarity(truth, item.OriginalText), Similarity(truth, item.Summary))
}

// Match assigns ground-truth entries to items one-to-one. Candidate pairs at
// or above threshold are taken greedily by descending score; ties go to the
// lower truth index, then the lower item index. The result is ordered by
// truth index.
func Match(truth []GroundTruthEntry, items []classify.ChangeItem, threshold float64) []Pair {
	var candidates []Pair
	for ti, t := range truth {
		for ii, item := range items {
			score := ItemScore(t.Text, item)
			if score < threshold {
				continue
			}
			candidates = append(candidates, Pair{TruthIndex: ti, ItemIndex: ii, Score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.TruthIndex != b.TruthIndex {
			return a.TruthIndex < b.TruthIndex
		}
		return a.ItemIndex < b.ItemIndex
	})

	usedTruth := make(map[int]bool)
	usedItem := make(map[int]bool)
	var pairs []Pair
	for _, c := range candidates {
		if usedTruth[c.TruthIndex] || usedItem[c.ItemIndex] {
			continue
		}
		usedTruth[c.TruthIndex] = true
		usedItem[c.ItemIndex] = true
		pairs = append(pairs, c)
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].TruthIndex < pairs[j].TruthIndex })
	return pairs
}
