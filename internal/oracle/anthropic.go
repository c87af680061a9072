package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/nickromney-org/release-radar/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultModel     = "claude-haiku-4-5"
	DefaultMaxTokens = 4096
)

// AnthropicConfig configures the Claude-backed oracle
type AnthropicConfig struct {
	APIKey    string
	Model     string
	MaxTokens int64
	// Project is the product name used in the prompt ("Claude Code")
	Project string
}

// Anthropic classifies releases with the Anthropic Messages API
type Anthropic struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	system    string
	counters  *telemetry.Counters
	logger    *slog.Logger
}

// NewAnthropic creates the oracle. Extra request options are passed to the
// SDK client (base URL, retries).
func NewAnthropic(cfg AnthropicConfig, counters *telemetry.Counters, logger *slog.Logger, opts ...option.RequestOption) (*Anthropic, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key required: set ANTHROPIC_API_KEY or oracle.api_key")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}

	system, err := renderSystemPrompt(cfg.Project)
	if err != nil {
		return nil, err
	}

	// Retries are owned by Resilient
	clientOpts := append([]option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}, opts...)

	return &Anthropic{
		client:    anthropic.NewClient(clientOpts...),
		model:     anthropic.Model(cfg.Model),
		maxTokens: cfg.MaxTokens,
		system:    system,
		counters:  counters,
		logger:    logger,
	}, nil
}

// Classify sends one release to the model and parses its answer
func (a *Anthropic) Classify(ctx context.Context, req Request) ([]Item, error) {
	ctx, span := telemetry.Tracer("").Start(ctx, "oracle.classify")
	defer span.End()
	span.SetAttributes(
		attribute.String("radar.oracle.model", string(a.model)),
		attribute.String("radar.release.version", req.Version),
	)

	prompt, err := renderUserPrompt(req)
	if err != nil {
		return nil, err
	}

	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: a.system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to call model: %w", err)
	}

	a.counters.TokensUsed(ctx, string(a.model), message.Usage.InputTokens, message.Usage.OutputTokens)
	span.SetAttributes(
		attribute.Int64("radar.oracle.input_tokens", message.Usage.InputTokens),
		attribute.Int64("radar.oracle.output_tokens", message.Usage.OutputTokens),
	)

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		err := fmt.Errorf("%w: no text content in response", ErrMalformedResponse)
		span.RecordError(err)
		return nil, err
	}

	a.logger.Debug("oracle response", "version", req.Version, "response", text)

	items, err := ParseResponse(text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("radar.oracle.items", len(items)))
	return items, nil
}

// IsRetryable reports whether a failed oracle call may succeed on retry
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrMalformedResponse) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}

	return false
}
