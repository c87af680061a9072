package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nickromney-org/release-radar/internal/github"
	"github.com/nickromney-org/release-radar/internal/version"
)

var (
	// ErrUnavailable means the release listing could not be obtained. It is
	// transient: the next scheduled run retries.
	ErrUnavailable = errors.New("release feed unavailable")

	// ErrChangelogExhausted means a release had a blank body and the
	// changelog fallback could not be fetched either.
	ErrChangelogExhausted = errors.New("no release text available")
)

// Source is the upstream API the feed reads from
type Source interface {
	ListReleases(ctx context.Context, max int) ([]version.Release, error)
	GetReleaseByTag(ctx context.Context, ver string) (*version.Release, error)
	GetChangelog(ctx context.Context) (string, error)
}

// Feed lists releases and resolves each release's change-note text
type Feed struct {
	src    Source
	max    int
	logger *slog.Logger

	once      sync.Once
	sections  map[string]string
	changeErr error
}

// New creates a feed over src listing at most max releases per run
func New(src Source, max int, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{src: src, max: max, logger: logger}
}

// Releases lists the published releases, newest first
func (f *Feed) Releases(ctx context.Context) ([]version.Release, error) {
	releases, err := f.src.ListReleases(ctx, f.max)
	if err != nil {
		if github.IsRateLimit(err) {
			f.logger.Warn("GitHub rate limit reached", "error", err)
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	f.logger.Debug("fetched releases", "count", len(releases))
	return releases, nil
}

// Release fetches a single release by version. It returns (nil, nil) when
// no such release exists.
func (f *Feed) Release(ctx context.Context, ver string) (*version.Release, error) {
	release, err := f.src.GetReleaseByTag(ctx, ver)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return release, nil
}

// ResolveText returns the release carrying the text to classify. A non-blank
// release body wins; otherwise the changelog section for the version is used.
// A version the changelog does not mention resolves to empty text.
func (f *Feed) ResolveText(ctx context.Context, r version.Release) (version.Release, error) {
	if r.HasText() {
		return r.WithText(r.Body, version.SourceReleaseBody), nil
	}

	sections, err := f.changelog(ctx)
	if err != nil {
		return r, fmt.Errorf("%w for %s: %w", ErrChangelogExhausted, r.String(), err)
	}

	body, ok := sections[r.String()]
	if !ok {
		f.logger.Info("release has no body and no changelog section", "version", r.String())
		return r.WithText("", version.SourceReleaseBody), nil
	}

	f.logger.Debug("using changelog section", "version", r.String(), "bytes", len(body))
	return r.WithText(body, version.SourceChangelogFallback), nil
}

// changelog fetches and parses the changelog at most once per Feed
func (f *Feed) changelog(ctx context.Context) (map[string]string, error) {
	f.once.Do(func() {
		doc, err := f.src.GetChangelog(ctx)
		if err != nil {
			f.logger.Warn("failed to fetch changelog", "error", err)
			f.changeErr = err
			return
		}
		f.sections = ParseChangelog(doc)
		f.logger.Info("parsed changelog", "versions", len(f.sections))
	})
	return f.sections, f.changeErr
}
