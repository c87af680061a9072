package version

import (
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// Source records where a release's change-note text came from
type Source string

const (
	SourceReleaseBody       Source = "release_body"
	SourceChangelogFallback Source = "changelog_fallback"
)

// Release represents one published upstream release
type Release struct {
	Version     *semver.Version
	Body        string
	Source      Source
	URL         string
	PublishedAt time.Time
}

// String returns the canonical version string (no "v" prefix)
func (r Release) String() string {
	if r.Version == nil {
		return ""
	}
	return r.Version.String()
}

// HasText reports whether the release carries any change-note text
func (r Release) HasText() bool {
	return strings.TrimSpace(r.Body) != ""
}

// WithText returns a copy of the release carrying the given text and provenance
func (r Release) WithText(body string, source Source) Release {
	r.Body = body
	r.Source = source
	return r
}

// Parse parses a version string, accepting an optional "v" prefix
func Parse(s string) (*semver.Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty version")
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return v, nil
}

// Tag returns the conventional "v"-prefixed tag for a version string
func Tag(s string) string {
	if strings.HasPrefix(s, "v") {
		return s
	}
	return "v" + s
}
