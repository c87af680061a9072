package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	items []Item
	err   error
}

// scriptedOracle returns its results in order, repeating the last one
type scriptedOracle struct {
	results []result
	calls   int
}

func (s *scriptedOracle) Classify(_ context.Context, _ Request) ([]Item, error) {
	i := s.calls
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	s.calls++
	return s.results[i].items, s.results[i].err
}

func fastConfig(attempts int) ResilientConfig {
	return ResilientConfig{
		Timeout:         time.Second,
		MaxAttempts:     attempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	}
}

func TestResilient_SucceedsFirstTry(t *testing.T) {
	inner := &scriptedOracle{results: []result{{items: []Item{{Category: "Feature"}}}}}
	r := NewResilient(inner, fastConfig(3), nil)

	items, err := r.Classify(context.Background(), Request{Version: "1.0.0"})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, inner.calls)
}

func TestResilient_RetriesTransientFailures(t *testing.T) {
	inner := &scriptedOracle{results: []result{
		{err: ErrMalformedResponse},
		{err: context.DeadlineExceeded},
		{items: []Item{{Category: "Change"}}},
	}}
	r := NewResilient(inner, fastConfig(3), nil)

	items, err := r.Classify(context.Background(), Request{Version: "1.0.0"})
	require.NoError(t, err)
	assert.Equal(t, []Item{{Category: "Change"}}, items)
	assert.Equal(t, 3, inner.calls)
}

func TestResilient_Exhausted(t *testing.T) {
	inner := &scriptedOracle{results: []result{{err: ErrMalformedResponse}}}
	r := NewResilient(inner, fastConfig(2), nil)

	_, err := r.Classify(context.Background(), Request{Version: "1.0.0"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvocation)
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, 2, inner.calls)
}

func TestResilient_PermanentFailureStopsImmediately(t *testing.T) {
	inner := &scriptedOracle{results: []result{{err: errors.New("invalid api key")}}}
	r := NewResilient(inner, fastConfig(5), nil)

	_, err := r.Classify(context.Background(), Request{Version: "1.0.0"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvocation)
	assert.Equal(t, 1, inner.calls)
}

func TestResilient_CancelledContext(t *testing.T) {
	inner := &scriptedOracle{results: []result{{err: ErrMalformedResponse}}}
	r := NewResilient(inner, fastConfig(5), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Classify(ctx, Request{Version: "1.0.0"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvocation)
}

type slowOracle struct {
	calls int
}

func (s *slowOracle) Classify(ctx context.Context, _ Request) ([]Item, error) {
	s.calls++
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(2 * time.Second):
		return []Item{{Category: "Feature"}}, nil
	}
}

func TestResilient_TimeoutIsRetried(t *testing.T) {
	inner := &slowOracle{}
	cfg := fastConfig(2)
	cfg.Timeout = 20 * time.Millisecond
	r := NewResilient(inner, cfg, nil)

	start := time.Now()
	_, err := r.Classify(context.Background(), Request{Version: "1.0.0"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvocation)
	assert.Less(t, time.Since(start), time.Second)
}
