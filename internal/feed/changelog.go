package feed

import (
	"regexp"
	"strings"
)

var changelogHeader = regexp.MustCompile(`(?m)^## (\d+\.\d+\.\d+)[ \t\r]*$`)

// ParseChangelog splits an aggregated changelog into per-version sections
// keyed by the bare version string ("2.1.49"). Sections are trimmed; text
// before the first header is ignored. The first occurrence of a version wins.
func ParseChangelog(doc string) map[string]string {
	sections := make(map[string]string)

	matches := changelogHeader.FindAllStringSubmatchIndex(doc, -1)
	for i, m := range matches {
		ver := doc[m[2]:m[3]]
		start := m[1]
		end := len(doc)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		if _, seen := sections[ver]; seen {
			continue
		}
		sections[ver] = strings.TrimSpace(doc[start:end])
	}

	return sections
}
