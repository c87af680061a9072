package pipeline

import (
	"time"

	"github.com/nickromney-org/release-radar/internal/version"
)

// Outcome is the result of processing one release
type Outcome string

const (
	OutcomeNotified   Outcome = "notified"
	OutcomeBugfixOnly Outcome = "bugfix_only"
	OutcomeEmpty      Outcome = "empty"
	OutcomeFailed     Outcome = "failed"
	OutcomeSkipped    Outcome = "skipped"
)

// ReleaseResult records what happened to one release
type ReleaseResult struct {
	Version     string
	URL         string
	PublishedAt time.Time
	Source      version.Source
	Outcome     Outcome
	Items       int
	NotifyItems int
	Err         error
}

// Summary describes a finished run
type Summary struct {
	RunID    string
	DryRun   bool
	Override string

	// PreviousMarker is the marker loaded at the start of the run
	PreviousMarker string
	// Marker is the marker after the run
	Marker string

	Pending int
	Results []ReleaseResult
}

// Count returns how many releases ended with outcome o
func (s *Summary) Count(o Outcome) int {
	n := 0
	for _, r := range s.Results {
		if r.Outcome == o {
			n++
		}
	}
	return n
}

// Advanced reports whether the run moved the marker
func (s *Summary) Advanced() bool {
	return s.Marker != s.PreviousMarker
}

func (s *Summary) skip(releases []version.Release) {
	for _, rel := range releases {
		s.Results = append(s.Results, ReleaseResult{
			Version:     rel.String(),
			URL:         rel.URL,
			PublishedAt: rel.PublishedAt,
			Outcome:     OutcomeSkipped,
		})
	}
}
