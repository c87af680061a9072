package eval

import (
	"time"

	"github.com/nickromney-org/release-radar/internal/classify"
)

// Outcome is the notify-decision result for one entry or item
type Outcome string

const (
	TruePositive  Outcome = "TP"
	FalseNegative Outcome = "FN"
	FalsePositive Outcome = "FP"
	TrueNegative  Outcome = "TN"
	Unlabelled    Outcome = "unlabelled"
)

// NoMatch is the confusion-matrix column for ground truth nothing matched
const NoMatch = "(none)"

// Options tunes an evaluation
type Options struct {
	Threshold float64
}

// Counts aggregates notify-decision outcomes
type Counts struct {
	TruePositives  int `json:"tp" yaml:"tp"`
	FalseNegatives int `json:"fn" yaml:"fn"`
	FalsePositives int `json:"fp" yaml:"fp"`
	TrueNegatives  int `json:"tn" yaml:"tn"`
	Unlabelled     int `json:"unlabelled" yaml:"unlabelled"`
	Matched        int `json:"matched" yaml:"matched"`
	CategoryAgree  int `json:"category_agree" yaml:"category_agree"`
}

func (c *Counts) add(o Counts) {
	c.TruePositives += o.TruePositives
	c.FalseNegatives += o.FalseNegatives
	c.FalsePositives += o.FalsePositives
	c.TrueNegatives += o.TrueNegatives
	c.Unlabelled += o.Unlabelled
	c.Matched += o.Matched
	c.CategoryAgree += o.CategoryAgree
}

// Recall is TP / (TP + FN); 1 when there is nothing to find
func (c Counts) Recall() float64 {
	if c.TruePositives+c.FalseNegatives == 0 {
		return 1
	}
	return float64(c.TruePositives) / float64(c.TruePositives+c.FalseNegatives)
}

// Precision is TP / (TP + FP); 1 when nothing was flagged
func (c Counts) Precision() float64 {
	if c.TruePositives+c.FalsePositives == 0 {
		return 1
	}
	return float64(c.TruePositives) / float64(c.TruePositives+c.FalsePositives)
}

// EntryResult is the outcome for one ground-truth entry
type EntryResult struct {
	Category        string  `json:"category" yaml:"category"`
	Text            string  `json:"text" yaml:"text"`
	Outcome         Outcome `json:"outcome" yaml:"outcome"`
	MatchedCategory string  `json:"matched_category,omitempty" yaml:"matched_category,omitempty"`
	MatchedText     string  `json:"matched_text,omitempty" yaml:"matched_text,omitempty"`
	Score           float64 `json:"score,omitempty" yaml:"score,omitempty"`
}

// ItemResult is a classified item that matched no ground truth
type ItemResult struct {
	Category string  `json:"category" yaml:"category"`
	Text     string  `json:"text" yaml:"text"`
	Outcome  Outcome `json:"outcome" yaml:"outcome"`
}

// VersionReport holds the results for one release
type VersionReport struct {
	Version   string        `json:"version" yaml:"version"`
	NoOutput  bool          `json:"no_output,omitempty" yaml:"no_output,omitempty"`
	Counts    Counts        `json:"counts" yaml:"counts"`
	Entries   []EntryResult `json:"entries" yaml:"entries"`
	Unmatched []ItemResult  `json:"unmatched_items,omitempty" yaml:"unmatched_items,omitempty"`
}

// Report is the full evaluation result
type Report struct {
	GeneratedAt time.Time                 `json:"generated_at" yaml:"generated_at"`
	Threshold   float64                   `json:"threshold" yaml:"threshold"`
	Total       Counts                    `json:"total" yaml:"total"`
	Confusion   map[string]map[string]int `json:"confusion" yaml:"confusion"`
	Versions    []VersionReport           `json:"versions" yaml:"versions"`
}

// Passed reports whether no notify-worthy entry was missed
func (r *Report) Passed() bool {
	return r.Total.FalseNegatives == 0
}

var now = time.Now

// Evaluate scores classified releases against ground truth. Only versions
// present in the ground truth are scored. A notify-worthy entry is a false
// negative when nothing matched it or the matched item would not be
// notified, whatever its exact category. Unlabelled entries take part in
// matching but are not scored.
func Evaluate(truth []GroundTruthEntry, outputs map[string]classify.ClassifiedRelease, opts Options) *Report {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}

	report := &Report{
		GeneratedAt: now().UTC(),
		Threshold:   opts.Threshold,
		Confusion:   make(map[string]map[string]int),
	}

	order, groups := GroupByVersion(truth)
	for _, ver := range order {
		release, ok := outputs[ver]
		vr := evaluateVersion(ver, groups[ver], release, ok, opts.Threshold, report.Confusion)
		report.Total.add(vr.Counts)
		report.Versions = append(report.Versions, vr)
	}

	return report
}

func evaluateVersion(ver string, truth []GroundTruthEntry, release classify.ClassifiedRelease, hasOutput bool, threshold float64, confusion map[string]map[string]int) VersionReport {
	vr := VersionReport{Version: ver, NoOutput: !hasOutput}

	var pairs []Pair
	if hasOutput {
		pairs = Match(truth, release.Items, threshold)
	}
	byTruth := make(map[int]Pair, len(pairs))
	matchedItems := make(map[int]bool, len(pairs))
	for _, p := range pairs {
		byTruth[p.TruthIndex] = p
		matchedItems[p.ItemIndex] = true
	}

	for ti, t := range truth {
		res := EntryResult{Category: t.Category, Text: t.Text}
		p, matched := byTruth[ti]
		var item classify.ChangeItem
		if matched {
			item = release.Items[p.ItemIndex]
			res.MatchedCategory = string(item.Category)
			res.MatchedText = item.Text()
			res.Score = p.Score
		}

		switch {
		case !t.Labelled():
			res.Outcome = Unlabelled
			vr.Counts.Unlabelled++
		case t.NotifyWorthy():
			if matched && item.Category.Notify() {
				res.Outcome = TruePositive
				vr.Counts.TruePositives++
			} else {
				res.Outcome = FalseNegative
				vr.Counts.FalseNegatives++
			}
		default:
			if matched && item.Category.Notify() {
				res.Outcome = FalsePositive
				vr.Counts.FalsePositives++
			} else {
				res.Outcome = TrueNegative
				vr.Counts.TrueNegatives++
			}
		}

		if t.Labelled() {
			col := NoMatch
			if matched {
				vr.Counts.Matched++
				col = string(item.Category)
				if c, _ := classify.ParseCategory(t.Category); c == item.Category {
					vr.Counts.CategoryAgree++
				}
			}
			row := string(canonicalCategory(t.Category))
			if confusion[row] == nil {
				confusion[row] = make(map[string]int)
			}
			confusion[row][col]++
		}

		vr.Entries = append(vr.Entries, res)
	}

	if hasOutput {
		for ii, item := range release.Items {
			if matchedItems[ii] || !item.Category.Notify() {
				continue
			}
			vr.Unmatched = append(vr.Unmatched, ItemResult{
				Category: string(item.Category),
				Text:     item.Text(),
				Outcome:  FalsePositive,
			})
			vr.Counts.FalsePositives++
		}
	}

	return vr
}

func canonicalCategory(s string) classify.Category {
	c, _ := classify.ParseCategory(s)
	return c
}
