package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nickromney-org/release-radar/internal/classify"
	"github.com/nickromney-org/release-radar/internal/telemetry"
)

// SlackConfig configures webhook delivery
type SlackConfig struct {
	WebhookURL      string
	Project         string
	Timeout         time.Duration
	MaxAttempts     int
	InitialInterval time.Duration
}

// Slack posts notifications to an incoming webhook
type Slack struct {
	cfg      SlackConfig
	client   *http.Client
	counters *telemetry.Counters
	logger   *slog.Logger
}

// NewSlack creates a webhook notifier
func NewSlack(cfg SlackConfig, counters *telemetry.Counters, logger *slog.Logger) (*Slack, error) {
	if cfg.WebhookURL == "" {
		return nil, fmt.Errorf("slack webhook URL required: set SLACK_WEBHOOK_URL or slack.webhook_url")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Slack{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		counters: counters,
		logger:   logger,
	}, nil
}

// statusError is a non-2xx webhook response
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("webhook returned %d: %s", e.code, e.body)
}

// Notify posts the release. Empty releases are not sent.
func (s *Slack) Notify(ctx context.Context, r classify.ClassifiedRelease) error {
	if r.Empty() {
		s.logger.Debug("empty release, not sending", "version", r.Version)
		return nil
	}

	payload, err := json.Marshal(BuildMessage(s.cfg.Project, r, r.URL))
	if err != nil {
		return fmt.Errorf("%w: failed to encode message: %w", ErrDelivery, err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.cfg.InitialInterval
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(s.cfg.MaxAttempts-1)), ctx)

	attempts := 0
	err = backoff.Retry(func() error {
		attempts++
		err := s.post(ctx, payload)
		if err == nil {
			return nil
		}
		if se, ok := err.(*statusError); ok && se.code != http.StatusTooManyRequests && se.code < 500 {
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		s.logger.Warn("slack delivery failed", "version", r.Version, "attempt", attempts, "error", err)
		return err
	}, policy)
	if err != nil {
		return fmt.Errorf("%w for %s after %d attempt(s): %w", ErrDelivery, r.Version, attempts, err)
	}

	s.counters.NotificationSent(ctx, "slack")
	s.logger.Info("slack notification sent", "version", r.Version, "bugfix_only", r.BugfixOnly())
	return nil
}

func (s *Slack) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode, body: string(bytes.TrimSpace(body))}
	}
	return nil
}
