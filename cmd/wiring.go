package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/nickromney-org/release-radar/internal/classify"
	"github.com/nickromney-org/release-radar/internal/config"
	"github.com/nickromney-org/release-radar/internal/feed"
	"github.com/nickromney-org/release-radar/internal/github"
	"github.com/nickromney-org/release-radar/internal/notify"
	"github.com/nickromney-org/release-radar/internal/oracle"
	"github.com/nickromney-org/release-radar/internal/pipeline"
	"github.com/nickromney-org/release-radar/internal/state"
	"github.com/nickromney-org/release-radar/internal/telemetry"
)

// loadSettings resolves and validates settings before any network call
func loadSettings(mode config.Mode) (*config.Settings, error) {
	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(mode); err != nil {
		return nil, err
	}
	return settings, nil
}

func newGitHubClient(settings *config.Settings) (*github.Client, error) {
	repo := settings.Repository
	client, err := github.NewClient(
		detectGitHubToken(settings.GitHub.Token),
		repo.Owner,
		repo.Repo,
		github.WithChangelog(repo.ChangelogPath, repo.ChangelogRef),
		github.WithTimeout(settings.GitHub.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	return client, nil
}

func newClassifier(settings *config.Settings, counters *telemetry.Counters, logger *slog.Logger) (*classify.Classifier, error) {
	model, err := oracle.NewAnthropic(oracle.AnthropicConfig{
		APIKey:    settings.Oracle.APIKey,
		Model:     settings.Oracle.Model,
		MaxTokens: int64(settings.Oracle.MaxTokens),
		Project:   settings.Repository.Project,
	}, counters, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	resilient := oracle.NewResilient(model, oracle.ResilientConfig{
		Timeout:     settings.Oracle.Timeout,
		MaxAttempts: settings.Oracle.MaxAttempts,
	}, logger)

	return classify.NewClassifier(resilient, classify.NewPolicy(logger), logger), nil
}

type appOptions struct {
	dryRun    bool
	withState bool
	out       io.Writer
}

// app owns the resources of one pipeline run
type app struct {
	runner  *pipeline.Runner
	closers []io.Closer
}

func newApp(settings *config.Settings, opts appOptions) (*app, error) {
	logger := slog.Default().With("project", settings.Repository.FullName())
	counters := telemetry.NewCounters()
	a := &app{}

	client, err := newGitHubClient(settings)
	if err != nil {
		return nil, err
	}

	classifier, err := newClassifier(settings, counters, logger)
	if err != nil {
		return nil, err
	}

	var notifier notify.Notifier
	if opts.dryRun {
		notifier = notify.NewConsole(opts.out, settings.Repository.Project)
	} else {
		slack, err := notify.NewSlack(notify.SlackConfig{
			WebhookURL:  settings.Slack.WebhookURL,
			Project:     settings.Repository.Project,
			Timeout:     settings.Slack.Timeout,
			MaxAttempts: settings.Slack.MaxAttempts,
		}, counters, logger)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
		}
		notifier = slack
	}

	var store state.Store
	if opts.withState {
		store, err = openStore(settings)
		if err != nil {
			return nil, err
		}
		if c, ok := store.(io.Closer); ok {
			a.closers = append(a.closers, c)
		}
	}

	a.runner = pipeline.New(pipeline.Config{
		Store:      store,
		Feed:       feed.New(client, settings.GitHub.MaxReleases, logger),
		Classifier: classifier,
		Notifier:   notifier,
		Counters:   counters,
		Strict:     settings.Strict,
		Logger:     logger,
	})
	return a, nil
}

func openStore(settings *config.Settings) (state.Store, error) {
	store, err := state.Open(settings.State.Backend, settings.State.Path, settings.Repository.FullName())
	if err != nil {
		var unknown *state.UnknownBackendError
		if errors.As(err, &unknown) {
			return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
		}
		return nil, fmt.Errorf("failed to open state: %w", err)
	}
	return store, nil
}

// Close releases the app's resources
func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			slog.Warn("failed to close resource", "error", err)
		}
	}
}
