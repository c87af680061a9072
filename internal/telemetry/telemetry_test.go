package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDisabled(t *testing.T) {
	require.NoError(t, Init(context.Background(), Config{Enabled: false}))
	assert.False(t, Enabled())

	// No-op instruments must be safe to use
	c := NewCounters()
	c.ReleaseProcessed(context.Background(), "notified")
	c.NotificationSent(context.Background(), "slack")
	c.TokensUsed(context.Background(), "claude-haiku-4-5", 10, 20)

	_, span := Tracer("").Start(context.Background(), "test")
	span.End()
}

func TestInitEnabled(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(context.Background(), Config{
		Enabled:     true,
		ServiceName: "release-radar",
		Version:     "test",
		Writer:      &buf,
	}))
	assert.True(t, Enabled())

	_, span := Tracer("").Start(context.Background(), "radar.test")
	span.End()

	Shutdown(context.Background())
	assert.False(t, Enabled())
	assert.Contains(t, buf.String(), "radar.test")

	require.NoError(t, Init(context.Background(), Config{Enabled: false}))
}

func TestNilCounters(t *testing.T) {
	var c *Counters
	c.ReleaseProcessed(context.Background(), "failed")
	c.NotificationSent(context.Background(), "slack")
	c.TokensUsed(context.Background(), "m", 1, 1)
}
