// Package oracle asks a language model to split release notes into
// categorised items. Its output is untrusted; callers validate it.
package oracle

import (
	"context"
	"errors"
)

var (
	// ErrInvocation means the oracle could not produce an answer after
	// all attempts. The release is retried on the next run.
	ErrInvocation = errors.New("oracle invocation failed")

	// ErrMalformedResponse means the oracle answered with something that is
	// not the expected JSON document.
	ErrMalformedResponse = errors.New("malformed oracle response")
)

// Request is one release to classify
type Request struct {
	Version string
	Text    string
}

// Item is one raw classification returned by the oracle. Category is free
// text until the classification policy has checked it.
type Item struct {
	OriginalText string `json:"original"`
	Category     string `json:"category"`
	Summary      string `json:"summary"`
}

// Oracle classifies the change notes of one release
type Oracle interface {
	Classify(ctx context.Context, req Request) ([]Item, error)
}
