package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	colour "github.com/fatih/color"

	"github.com/nickromney-org/release-radar/internal/config"
	"github.com/nickromney-org/release-radar/internal/pipeline"
)

type releaseJSON struct {
	Version     string `json:"version"`
	Outcome     string `json:"outcome"`
	Source      string `json:"source,omitempty"`
	Items       int    `json:"items"`
	NotifyItems int    `json:"notify_items"`
	URL         string `json:"url,omitempty"`
	Error       string `json:"error,omitempty"`
}

type summaryJSON struct {
	RunID          string        `json:"run_id"`
	DryRun         bool          `json:"dry_run"`
	Release        string        `json:"release,omitempty"`
	PreviousMarker string        `json:"previous_marker,omitempty"`
	Marker         string        `json:"marker,omitempty"`
	Pending        int           `json:"pending"`
	Releases       []releaseJSON `json:"releases"`
}

func newSummaryJSON(summary *pipeline.Summary) summaryJSON {
	out := summaryJSON{
		RunID:          summary.RunID,
		DryRun:         summary.DryRun,
		Release:        summary.Override,
		PreviousMarker: summary.PreviousMarker,
		Marker:         summary.Marker,
		Pending:        summary.Pending,
		Releases:       make([]releaseJSON, 0, len(summary.Results)),
	}
	for _, r := range summary.Results {
		rj := releaseJSON{
			Version:     r.Version,
			Outcome:     string(r.Outcome),
			Source:      string(r.Source),
			Items:       r.Items,
			NotifyItems: r.NotifyItems,
			URL:         r.URL,
		}
		if r.Err != nil {
			rj.Error = r.Err.Error()
		}
		out.Releases = append(out.Releases, rj)
	}
	return out
}

func outputJSON(w io.Writer, summary *pipeline.Summary) error {
	data, err := json.MarshalIndent(newSummaryJSON(summary), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func outputTerminal(w io.Writer, settings *config.Settings, summary *pipeline.Summary) {
	fmt.Fprintln(w)
	if summary.DryRun {
		yellow.Fprintln(w, "Dry run: nothing was sent and state was not updated")
	}

	if len(summary.Results) == 0 {
		if summary.Override != "" {
			grey.Fprintf(w, "Release %s not found in %s\n", summary.Override, settings.Repository.FullName())
		} else {
			green.Fprintf(w, "✅ No new releases of %s", settings.Repository.Project)
			if summary.Marker != "" {
				grey.Fprintf(w, " (last processed: %s)", summary.Marker)
			}
			fmt.Fprintln(w)
		}
		return
	}

	for _, r := range summary.Results {
		c := getOutcomeColour(r.Outcome)
		c.Fprintf(w, "%s %-10s %s", getOutcomeIcon(r.Outcome), r.Version, getOutcomeText(r.Outcome))
		if r.Items > 0 {
			grey.Fprintf(w, " (%d items, %d to notify)", r.Items, r.NotifyItems)
		}
		if !r.PublishedAt.IsZero() {
			grey.Fprintf(w, " %s", formatReleased(r.PublishedAt, time.Now()))
		}
		fmt.Fprintln(w)
		if r.Err != nil {
			red.Fprintf(w, "   %v\n", r.Err)
		}
	}

	if summary.Override == "" && !summary.DryRun {
		fmt.Fprintln(w)
		if summary.Advanced() {
			cyan.Fprintf(w, "Marker: %s → %s\n", displayMarker(summary.PreviousMarker), summary.Marker)
		} else {
			grey.Fprintf(w, "Marker unchanged: %s\n", displayMarker(summary.Marker))
		}
	}

	grey.Fprintf(w, "Checked at: %s\n", time.Now().UTC().Format("2 Jan 2006 15:04:05 MST"))
}

func outputCI(w io.Writer, settings *config.Settings, summary *pipeline.Summary) error {
	fmt.Fprintln(w, "::group::📡 Release Radar")
	fmt.Fprintf(w, "Repository: %s\n", settings.Repository.FullName())
	fmt.Fprintf(w, "Run: %s\n", summary.RunID)
	fmt.Fprintf(w, "Marker: %s\n", displayMarker(summary.Marker))
	for _, r := range summary.Results {
		fmt.Fprintf(w, "  %-10s %s\n", r.Version, getOutcomeText(r.Outcome))
	}
	fmt.Fprintln(w, "::endgroup::")

	for _, r := range summary.Results {
		switch r.Outcome {
		case pipeline.OutcomeFailed:
			fmt.Fprintf(w, "::error title=Release %s failed::%v\n", r.Version, r.Err)
		case pipeline.OutcomeSkipped:
			fmt.Fprintf(w, "::warning title=Release %s skipped::will be retried on the next run\n", r.Version)
		case pipeline.OutcomeNotified, pipeline.OutcomeBugfixOnly:
			fmt.Fprintf(w, "::notice title=Release %s::%s\n", r.Version, getOutcomeText(r.Outcome))
		}
	}

	// Write markdown summary to $GITHUB_STEP_SUMMARY
	if summaryFile := os.Getenv("GITHUB_STEP_SUMMARY"); summaryFile != "" {
		if err := writeGitHubSummary(summaryFile, settings, summary); err != nil {
			fmt.Fprintf(w, "::warning::Failed to write job summary: %v\n", err)
		}
	}

	return nil
}

func writeGitHubSummary(summaryFile string, settings *config.Settings, summary *pipeline.Summary) error {
	f, err := os.OpenFile(summaryFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(f, "## 📡 Release Radar: %s\n\n", settings.Repository.Project)

	if len(summary.Results) == 0 {
		fmt.Fprintf(f, "No new releases (last processed: %s)\n", displayMarker(summary.Marker))
	} else {
		fmt.Fprintf(f, "| Version | Outcome | Items | Notified |\n")
		fmt.Fprintf(f, "|---------|---------|-------|----------|\n")
		for _, r := range summary.Results {
			ver := r.Version
			if r.URL != "" {
				ver = fmt.Sprintf("[%s](%s)", r.Version, r.URL)
			}
			fmt.Fprintf(f, "| %s | %s %s | %d | %d |\n",
				ver, getOutcomeIcon(r.Outcome), getOutcomeText(r.Outcome), r.Items, r.NotifyItems)
		}
	}

	fmt.Fprintf(f, "\n*Checked at: %s*\n", time.Now().UTC().Format("2 Jan 2006 15:04:05 MST"))
	fmt.Fprintf(f, "\n---\n\n")

	return nil
}

func displayMarker(marker string) string {
	if marker == "" {
		return "(none)"
	}
	return marker
}

func getOutcomeText(o pipeline.Outcome) string {
	switch o {
	case pipeline.OutcomeNotified:
		return "Notified"
	case pipeline.OutcomeBugfixOnly:
		return "Bugfix only"
	case pipeline.OutcomeEmpty:
		return "No change notes"
	case pipeline.OutcomeFailed:
		return "Failed"
	case pipeline.OutcomeSkipped:
		return "Skipped"
	default:
		return "Unknown"
	}
}

func getOutcomeIcon(o pipeline.Outcome) string {
	switch o {
	case pipeline.OutcomeNotified:
		return "✅"
	case pipeline.OutcomeBugfixOnly:
		return "🔧"
	case pipeline.OutcomeEmpty:
		return "➖"
	case pipeline.OutcomeFailed:
		return "🚫"
	case pipeline.OutcomeSkipped:
		return "⏭️"
	default:
		return "❓"
	}
}

func getOutcomeColour(o pipeline.Outcome) *colour.Color {
	switch o {
	case pipeline.OutcomeNotified:
		return green
	case pipeline.OutcomeBugfixOnly:
		return cyan
	case pipeline.OutcomeFailed:
		return red
	case pipeline.OutcomeSkipped:
		return yellow
	default:
		return grey
	}
}
