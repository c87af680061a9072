// Package cache stores release snapshots (including change-note text) so
// evaluations can be rerun offline against the exact texts that were
// labelled.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/nickromney-org/release-radar/internal/version"
)

// Snapshot represents the structure of a snapshot file
type Snapshot struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Repository  string        `json:"repository,omitempty"`
	Releases    []jsonRelease `json:"releases"`
}

// jsonRelease is the JSON representation of a release
type jsonRelease struct {
	Version     string         `json:"version"`
	PublishedAt time.Time      `json:"published_at"`
	URL         string         `json:"url"`
	Body        string         `json:"body"`
	Source      version.Source `json:"source,omitempty"`
}

// toVersionRelease converts jsonRelease to version.Release
func (jr *jsonRelease) toVersionRelease() (version.Release, error) {
	ver, err := semver.NewVersion(jr.Version)
	if err != nil {
		return version.Release{}, fmt.Errorf("invalid version %q: %w", jr.Version, err)
	}

	source := jr.Source
	if source == "" {
		source = version.SourceReleaseBody
	}

	return version.Release{
		Version:     ver,
		Body:        jr.Body,
		Source:      source,
		PublishedAt: jr.PublishedAt,
		URL:         jr.URL,
	}, nil
}

func fromVersionRelease(r version.Release) jsonRelease {
	return jsonRelease{
		Version:     r.String(),
		PublishedAt: r.PublishedAt,
		URL:         r.URL,
		Body:        r.Body,
		Source:      r.Source,
	}
}

// Manager reads and writes release snapshots
type Manager struct {
	now func() time.Time
}

// NewManager creates a new snapshot manager
func NewManager() *Manager {
	return &Manager{now: time.Now}
}

// Load reads a snapshot file. Entries with invalid versions are skipped.
func (m *Manager) Load(path string) ([]version.Release, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}

	releases := make([]version.Release, 0, len(snapshot.Releases))
	for _, jr := range snapshot.Releases {
		rel, err := jr.toVersionRelease()
		if err != nil {
			// Skip invalid releases but continue processing
			continue
		}
		releases = append(releases, rel)
	}

	return releases, nil
}

// Save writes releases to a snapshot file, creating parent directories
func (m *Manager) Save(path, repository string, releases []version.Release) error {
	snapshot := Snapshot{
		GeneratedAt: m.now().UTC(),
		Repository:  repository,
		Releases:    make([]jsonRelease, 0, len(releases)),
	}
	for _, r := range releases {
		snapshot.Releases = append(snapshot.Releases, fromVersionRelease(r))
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	return nil
}

// Select returns the releases whose versions are listed, in the listed order.
// Versions missing from the snapshot are returned separately.
func Select(releases []version.Release, versions []string) (found []version.Release, missing []string) {
	byVersion := make(map[string]version.Release, len(releases))
	for _, r := range releases {
		byVersion[r.String()] = r
	}

	for _, v := range versions {
		parsed, err := version.Parse(v)
		if err != nil {
			missing = append(missing, v)
			continue
		}
		r, ok := byVersion[parsed.String()]
		if !ok {
			missing = append(missing, v)
			continue
		}
		found = append(found, r)
	}
	return found, missing
}
