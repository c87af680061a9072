package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/felixgeelhaar/fortify/timeout"
)

// ResilientConfig bounds retries and per-call latency
type ResilientConfig struct {
	Timeout         time.Duration
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Resilient wraps an Oracle with a per-call timeout and exponential retry
type Resilient struct {
	inner  Oracle
	cfg    ResilientConfig
	logger *slog.Logger
}

// NewResilient wraps inner. Zero config values fall back to defaults.
func NewResilient(inner Oracle, cfg ResilientConfig, logger *slog.Logger) *Resilient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 2 * time.Second
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resilient{inner: inner, cfg: cfg, logger: logger}
}

// Classify calls the wrapped oracle until it succeeds, fails permanently or
// runs out of attempts. Exhaustion wraps ErrInvocation.
func (r *Resilient) Classify(ctx context.Context, req Request) ([]Item, error) {
	t := timeout.New[[]Item](timeout.Config{DefaultTimeout: r.cfg.Timeout})

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.cfg.InitialInterval
	bo.MaxInterval = r.cfg.MaxInterval
	bo.MaxElapsedTime = 0

	attempts := 0
	op := func() ([]Item, error) {
		attempts++
		start := time.Now()

		items, err := t.Execute(ctx, r.cfg.Timeout, func(ctx context.Context) ([]Item, error) {
			return r.inner.Classify(ctx, req)
		})
		if err == nil {
			return items, nil
		}

		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		timedOut := time.Since(start) >= r.cfg.Timeout
		if !timedOut && !IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}

		r.logger.Warn("oracle call failed",
			"version", req.Version,
			"attempt", attempts,
			"max_attempts", r.cfg.MaxAttempts,
			"error", err)
		return nil, err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(r.cfg.MaxAttempts-1)), ctx)
	items, err := backoff.RetryWithData(op, policy)
	if err != nil {
		return nil, fmt.Errorf("%w for %s after %d attempt(s): %w", ErrInvocation, req.Version, attempts, err)
	}
	return items, nil
}
