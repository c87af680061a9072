// Package pipeline wires the feed, diff engine, classifier, notifier and
// state store into one scheduled run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/nickromney-org/release-radar/internal/classify"
	"github.com/nickromney-org/release-radar/internal/notify"
	"github.com/nickromney-org/release-radar/internal/state"
	"github.com/nickromney-org/release-radar/internal/telemetry"
	"github.com/nickromney-org/release-radar/internal/version"
)

// Feed is the subset of feed.Feed the runner needs
type Feed interface {
	Releases(ctx context.Context) ([]version.Release, error)
	Release(ctx context.Context, ver string) (*version.Release, error)
	ResolveText(ctx context.Context, r version.Release) (version.Release, error)
}

// Classifier turns release text into a classified release
type Classifier interface {
	Classify(ctx context.Context, r version.Release) (classify.ClassifiedRelease, error)
}

// Config holds the runner's collaborators
type Config struct {
	Store      state.Store
	Feed       Feed
	Diff       *version.DiffEngine
	Classifier Classifier
	Notifier   notify.Notifier
	Counters   *telemetry.Counters

	// Strict stops the run at the first failed release
	Strict bool

	Logger *slog.Logger
}

// Options control a single run
type Options struct {
	// Release processes only this version and never touches state
	Release string
	// DryRun classifies and renders but never advances the marker
	DryRun bool
}

// Runner executes the release pipeline
type Runner struct {
	store      state.Store
	feed       Feed
	diff       *version.DiffEngine
	classifier Classifier
	notifier   notify.Notifier
	counters   *telemetry.Counters
	strict     bool
	logger     *slog.Logger
}

// New creates a runner. A nil DiffEngine or Logger gets a default.
func New(cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	diff := cfg.Diff
	if diff == nil {
		diff = version.NewDiffEngine(logger)
	}
	return &Runner{
		store:      cfg.Store,
		feed:       cfg.Feed,
		diff:       diff,
		classifier: cfg.Classifier,
		notifier:   cfg.Notifier,
		counters:   cfg.Counters,
		strict:     cfg.Strict,
		logger:     logger,
	}
}

// Run processes every pending release in ascending order. The marker is
// advanced after each successful notification and never past a failure.
// The returned error joins every per-release failure.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	summary := &Summary{RunID: uuid.NewString(), DryRun: opts.DryRun, Override: opts.Release}
	logger := r.logger.With("run_id", summary.RunID)

	ctx, span := telemetry.Tracer("").Start(ctx, "pipeline.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("radar.run.id", summary.RunID),
		attribute.Bool("radar.run.dry_run", opts.DryRun),
	)

	var err error
	if opts.Release != "" {
		err = r.runOverride(ctx, logger, opts, summary)
	} else {
		err = r.runPending(ctx, logger, opts, summary)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	logger.Info("run finished",
		"processed", len(summary.Results),
		"notified", summary.Count(OutcomeNotified),
		"bugfix_only", summary.Count(OutcomeBugfixOnly),
		"empty", summary.Count(OutcomeEmpty),
		"failed", summary.Count(OutcomeFailed),
		"skipped", summary.Count(OutcomeSkipped),
		"marker", summary.Marker)

	return summary, err
}

func (r *Runner) runOverride(ctx context.Context, logger *slog.Logger, opts Options, summary *Summary) error {
	logger = logger.With("release", opts.Release)

	rel, err := r.feed.Release(ctx, opts.Release)
	if err != nil {
		return err
	}
	if rel == nil {
		logger.Info("requested release not found, nothing to do")
		return nil
	}

	result := r.process(ctx, logger, *rel, opts.DryRun)
	summary.Results = append(summary.Results, result)
	r.counters.ReleaseProcessed(ctx, string(result.Outcome))
	return result.Err
}

func (r *Runner) runPending(ctx context.Context, logger *slog.Logger, opts Options, summary *Summary) error {
	marker, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	last, err := marker.Version()
	if err != nil {
		return fmt.Errorf("failed to parse stored marker %q: %w", marker.LastVersion, err)
	}
	summary.Marker = marker.LastVersion
	summary.PreviousMarker = marker.LastVersion

	releases, err := r.feed.Releases(ctx)
	if err != nil {
		return err
	}

	pending := r.diff.Pending(releases, last)
	summary.Pending = len(pending)
	if len(pending) == 0 {
		logger.Info("no new releases", "marker", marker.LastVersion)
		return nil
	}

	var errs []error
	frozen := false

	for i, rel := range pending {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			summary.skip(pending[i:])
			break
		}

		result := r.process(ctx, logger, rel, opts.DryRun)

		if result.Err == nil && !opts.DryRun && !frozen {
			if err := r.advance(ctx, logger, last, rel.Version); err != nil {
				result.Outcome = OutcomeFailed
				result.Err = err
			} else if last == nil || rel.Version.GreaterThan(last) {
				last = rel.Version
				summary.Marker = rel.String()
			}
		}

		summary.Results = append(summary.Results, result)
		r.counters.ReleaseProcessed(ctx, string(result.Outcome))

		if result.Err == nil {
			continue
		}

		errs = append(errs, result.Err)
		if r.strict {
			summary.skip(pending[i+1:])
			break
		}
		if !frozen {
			logger.Warn("marker frozen after failure, later releases will be retried next run",
				"version", rel.String(),
				"marker", summary.Marker)
		}
		frozen = true
	}

	return errors.Join(errs...)
}

// process resolves, classifies and delivers one release
func (r *Runner) process(ctx context.Context, logger *slog.Logger, rel version.Release, dryRun bool) ReleaseResult {
	ver := rel.String()
	logger = logger.With("version", ver)
	result := ReleaseResult{Version: ver, URL: rel.URL, PublishedAt: rel.PublishedAt}

	ctx, span := telemetry.Tracer("").Start(ctx, "pipeline.release")
	defer span.End()
	span.SetAttributes(attribute.String("radar.release.version", ver))

	fail := func(err error) ReleaseResult {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("release failed", "error", err)
		result.Outcome = OutcomeFailed
		result.Err = err
		return result
	}

	resolved, err := r.feed.ResolveText(ctx, rel)
	if err != nil {
		return fail(err)
	}
	result.Source = resolved.Source

	classified, err := r.classifier.Classify(ctx, resolved)
	if err != nil {
		return fail(err)
	}
	if classified.URL == "" {
		classified.URL = rel.URL
	}
	result.Items = len(classified.Items)
	result.NotifyItems = len(classified.NotifyItems)

	switch {
	case classified.Empty():
		result.Outcome = OutcomeEmpty
		if !dryRun {
			logger.Info("release has no change items, nothing to send")
			span.SetAttributes(attribute.String("radar.release.outcome", string(result.Outcome)))
			return result
		}
	case classified.BugfixOnly():
		result.Outcome = OutcomeBugfixOnly
	default:
		result.Outcome = OutcomeNotified
	}

	if err := r.notifier.Notify(ctx, classified); err != nil {
		return fail(err)
	}

	span.SetAttributes(attribute.String("radar.release.outcome", string(result.Outcome)))
	logger.Info("release processed",
		"outcome", result.Outcome,
		"items", result.Items,
		"notify", result.NotifyItems)
	return result
}

// advance moves the marker forward. Versions at or below the current marker
// are never written.
func (r *Runner) advance(ctx context.Context, logger *slog.Logger, current, next *semver.Version) error {
	if current != nil && !next.GreaterThan(current) {
		logger.Warn("refusing to move marker backwards",
			"marker", current.String(),
			"version", next.String())
		return nil
	}

	if err := r.store.Advance(ctx, next.String()); err != nil {
		return fmt.Errorf("failed to advance marker to %s: %w", next.String(), err)
	}
	logger.Debug("marker advanced", "marker", next.String())
	return nil
}
