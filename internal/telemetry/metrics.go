package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Counters groups the run-level instruments
type Counters struct {
	processed    metric.Int64Counter
	sent         metric.Int64Counter
	inputTokens  metric.Int64Counter
	outputTokens metric.Int64Counter
}

// NewCounters creates the instruments against the current global meter.
// Call it after Init.
func NewCounters() *Counters {
	m := Meter("")
	c := &Counters{}
	c.processed, _ = m.Int64Counter("radar.releases.processed",
		metric.WithDescription("Releases that reached a final outcome"),
	)
	c.sent, _ = m.Int64Counter("radar.notifications.sent",
		metric.WithDescription("Notifications delivered"),
	)
	c.inputTokens, _ = m.Int64Counter("radar.oracle.input_tokens",
		metric.WithDescription("Oracle input tokens consumed"),
		metric.WithUnit("{token}"),
	)
	c.outputTokens, _ = m.Int64Counter("radar.oracle.output_tokens",
		metric.WithDescription("Oracle output tokens generated"),
		metric.WithUnit("{token}"),
	)
	return c
}

// ReleaseProcessed counts one release outcome
func (c *Counters) ReleaseProcessed(ctx context.Context, outcome string) {
	if c == nil || c.processed == nil {
		return
	}
	c.processed.Add(ctx, 1, metric.WithAttributes(attribute.String("radar.outcome", outcome)))
}

// NotificationSent counts one delivered notification
func (c *Counters) NotificationSent(ctx context.Context, channel string) {
	if c == nil || c.sent == nil {
		return
	}
	c.sent.Add(ctx, 1, metric.WithAttributes(attribute.String("radar.channel", channel)))
}

// TokensUsed records oracle token usage for one call
func (c *Counters) TokensUsed(ctx context.Context, model string, input, output int64) {
	if c == nil || c.inputTokens == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("radar.oracle.model", model))
	c.inputTokens.Add(ctx, input, attrs)
	c.outputTokens.Add(ctx, output, attrs)
}
