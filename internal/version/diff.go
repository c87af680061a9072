package version

import (
	"log/slog"
	"sort"

	"github.com/Masterminds/semver/v3"
)

// DiffEngine works out which releases have not been processed yet
type DiffEngine struct {
	logger *slog.Logger
}

// NewDiffEngine creates a diff engine. A nil logger uses slog.Default().
func NewDiffEngine(logger *slog.Logger) *DiffEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiffEngine{logger: logger}
}

// Pending returns the releases newer than lastProcessed, oldest first.
//
// With no marker only the newest release is returned, so a first deploy
// does not replay the whole history. If the marker is no longer in the feed
// the engine falls back to the newest release and logs a warning.
func (d *DiffEngine) Pending(releases []Release, lastProcessed *semver.Version) []Release {
	releases = Dedupe(releases)
	if len(releases) == 0 {
		return nil
	}

	latest := Latest(releases)

	if lastProcessed == nil {
		d.logger.Info("no processed marker, returning latest release only",
			"latest", latest.String())
		return []Release{latest}
	}

	if !Contains(releases, lastProcessed) {
		d.logger.Warn("processed marker not found in feed, falling back to latest release",
			"marker", lastProcessed.String(),
			"latest", latest.String())
		return []Release{latest}
	}

	var newer []Release
	for _, r := range releases {
		if r.Version.GreaterThan(lastProcessed) {
			newer = append(newer, r)
		}
	}
	SortAscending(newer)

	d.logger.Info("computed pending releases",
		"marker", lastProcessed.String(),
		"pending", len(newer))

	return newer
}

// Contains checks if a version exists in the releases list
func Contains(releases []Release, v *semver.Version) bool {
	for _, r := range releases {
		if r.Version.Equal(v) {
			return true
		}
	}
	return false
}

// Latest returns the release with the highest version. The slice must not be empty.
func Latest(releases []Release) Release {
	latest := releases[0]
	for _, r := range releases[1:] {
		if r.Version.GreaterThan(latest.Version) {
			latest = r
		}
	}
	return latest
}

// SortAscending sorts releases by semantic version, oldest first
func SortAscending(releases []Release) {
	sort.SliceStable(releases, func(i, j int) bool {
		return releases[i].Version.LessThan(releases[j].Version)
	})
}

// Dedupe drops releases without a version and later duplicates of the same
// version. Earlier entries are authoritative.
func Dedupe(releases []Release) []Release {
	seen := make(map[string]bool)
	var out []Release

	for _, r := range releases {
		if r.Version == nil {
			continue
		}
		key := r.Version.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}

	return out
}
