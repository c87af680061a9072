package classify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nickromney-org/release-radar/internal/oracle"
	"github.com/nickromney-org/release-radar/internal/version"
)

// Classifier runs the oracle on a release and validates the answer
type Classifier struct {
	oracle oracle.Oracle
	policy *Policy
	logger *slog.Logger
}

// NewClassifier creates a classifier from an oracle and a policy
func NewClassifier(o oracle.Oracle, p *Policy, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	if p == nil {
		p = NewPolicy(logger)
	}
	return &Classifier{oracle: o, policy: p, logger: logger}
}

// Classify classifies one release. Blank text yields an empty release
// without calling the oracle. Oracle errors are returned, never swallowed.
// Non-blank text that ends with no valid items is treated as a malformed
// answer so the release is retried instead of silently skipped.
func (c *Classifier) Classify(ctx context.Context, r version.Release) (ClassifiedRelease, error) {
	ver := r.String()

	if strings.TrimSpace(r.Body) == "" {
		c.logger.Info("release has no text, nothing to classify", "version", ver)
		return ClassifiedRelease{Version: ver, URL: r.URL}, nil
	}

	raw, err := c.oracle.Classify(ctx, oracle.Request{Version: ver, Text: r.Body})
	if err != nil {
		return ClassifiedRelease{}, fmt.Errorf("failed to classify %s: %w", ver, err)
	}

	release, rejected := c.policy.Apply(ver, raw)
	release.URL = r.URL

	c.logger.Info("classified release",
		"version", ver,
		"source", r.Source,
		"items", len(release.Items),
		"notify", len(release.NotifyItems),
		"rejected", len(rejected))

	if len(release.Items) == 0 {
		c.logger.Warn("oracle returned no usable items for non-blank release text",
			"version", ver,
			"returned", len(raw),
			"rejected", len(rejected))
		return ClassifiedRelease{}, fmt.Errorf("failed to classify %s: %w: %d of %d items usable",
			ver, oracle.ErrMalformedResponse, len(release.Items), len(raw))
	}

	return release, nil
}
