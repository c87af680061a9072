// Package state persists the marker of the most recently processed release.
package state

import (
	"context"
	"time"

	"github.com/Masterminds/semver/v3"
)

// Marker is the single persisted record of processing progress
type Marker struct {
	LastVersion string    `json:"last_version"`
	LastChecked time.Time `json:"last_checked"`
}

// IsZero reports whether no release has been processed yet
func (m Marker) IsZero() bool {
	return m.LastVersion == ""
}

// Version parses the marker's version; nil when the marker is empty
func (m Marker) Version() (*semver.Version, error) {
	if m.IsZero() {
		return nil, nil
	}
	return semver.NewVersion(m.LastVersion)
}

// Store loads and advances the processed marker.
//
// Advance must replace the record atomically: readers see either the old
// marker or the new one, never a partial write.
type Store interface {
	Load(ctx context.Context) (Marker, error)
	Advance(ctx context.Context, version string) error
}

// Backend names accepted by Open
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open returns the store for a backend name
func Open(backend, path, project string) (Store, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(path), nil
	case BackendSQLite:
		return NewSQLiteStore(path, project)
	default:
		return nil, &UnknownBackendError{Backend: backend}
	}
}

// UnknownBackendError is returned by Open for unsupported backends
type UnknownBackendError struct {
	Backend string
}

func (e *UnknownBackendError) Error() string {
	return "unknown state backend: " + e.Backend
}

var now = func() time.Time { return time.Now().UTC() }
