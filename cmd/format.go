package cmd

import (
	"fmt"
	"time"
)

// formatUKDate formats a date in UK format: "25 Jul 2024"
func formatUKDate(t time.Time) string {
	return t.Format("2 Jan 2006")
}

// formatDaysAgo returns a human-readable age. Negative values come from
// clock skew between GitHub and the runner and read as today.
func formatDaysAgo(days int) string {
	switch {
	case days <= 0:
		return "today"
	case days == 1:
		return "1 day ago"
	default:
		return fmt.Sprintf("%d days ago", days)
	}
}

// formatReleased describes when a release was published relative to now
func formatReleased(published, now time.Time) string {
	days := int(now.Sub(published).Hours() / 24)
	return fmt.Sprintf("Released %s (%s)", formatUKDate(published), formatDaysAgo(days))
}
