// Package classify turns untrusted oracle output into validated,
// categorised release items and decides what is worth a notification.
package classify

import (
	"log/slog"
	"strings"

	"github.com/nickromney-org/release-radar/internal/oracle"
)

// Rejection records an oracle item the policy refused
type Rejection struct {
	Index  int
	Item   oracle.Item
	Reason string
}

// Policy validates oracle items against the category taxonomy and applies
// the exclusion and security rules
type Policy struct {
	logger *slog.Logger
}

// NewPolicy creates a policy; nil logger means slog.Default()
func NewPolicy(logger *slog.Logger) *Policy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Policy{logger: logger}
}

// Apply validates raw oracle items for one release. Items with a category
// outside the taxonomy, or with no text at all, are rejected and excluded
// from the result. Security fixes are forced to Change. Bugfix items never
// reach NotifyItems.
func (p *Policy) Apply(ver string, raw []oracle.Item) (ClassifiedRelease, []Rejection) {
	release := ClassifiedRelease{Version: ver}
	var rejected []Rejection

	for i, r := range raw {
		category, err := ParseCategory(r.Category)
		if err != nil {
			p.logger.Warn("rejecting item with unknown category",
				"version", ver, "index", i, "category", r.Category)
			rejected = append(rejected, Rejection{Index: i, Item: r, Reason: err.Error()})
			continue
		}

		item := ChangeItem{
			OriginalText: strings.TrimSpace(r.OriginalText),
			Category:     category,
			Summary:      strings.TrimSpace(r.Summary),
		}
		if item.OriginalText == "" && item.Summary == "" {
			p.logger.Warn("rejecting item with no text", "version", ver, "index", i)
			rejected = append(rejected, Rejection{Index: i, Item: r, Reason: "item has no text"})
			continue
		}

		if item.Category != Change && isSecurityFix(item) {
			p.logger.Info("reclassifying security fix as Change",
				"version", ver, "index", i, "from", item.Category)
			item.Category = Change
		}

		release.Items = append(release.Items, item)
		if item.Category.Notify() {
			release.NotifyItems = append(release.NotifyItems, item)
		}
	}

	return release, rejected
}
