package eval

import (
	"regexp"
	"strings"

	"github.com/nickromney-org/release-radar/internal/classify"
	"github.com/nickromney-org/release-radar/internal/version"
)

var (
	bulletLine = regexp.MustCompile(`^- (.+)`)

	leadingVerbs = map[string]classify.Category{
		"added":      classify.Feature,
		"fixed":      classify.Bugfix,
		"improved":   classify.Improvement,
		"changed":    classify.Change,
		"removed":    classify.Change,
		"deprecated": classify.Change,
		"breaking":   classify.Breaking,
	}
)

// DraftGroundTruth builds a first-pass ground truth from release bodies by
// reading each "- " bullet and guessing its category from the leading verb.
// Bullets without a known verb are marked Unknown for a human to label.
func DraftGroundTruth(releases []version.Release) []GroundTruthEntry {
	var entries []GroundTruthEntry
	for _, r := range releases {
		if !r.HasText() {
			continue
		}
		for _, line := range strings.Split(r.Body, "\n") {
			m := bulletLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
			if m == nil {
				continue
			}
			text := strings.TrimSpace(m[1])
			entries = append(entries, GroundTruthEntry{
				Version:  r.String(),
				Category: guessCategory(text),
				Text:     text,
			})
		}
	}
	return entries
}

func guessCategory(text string) string {
	clean := platformTag.ReplaceAllString(text, "")
	fields := strings.Fields(clean)
	if len(fields) == 0 {
		return Unknown
	}
	verb := strings.TrimRight(strings.ToLower(fields[0]), ":")
	if c, ok := leadingVerbs[verb]; ok {
		return string(c)
	}
	return Unknown
}
