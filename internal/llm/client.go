// Package llm provides the model gateway used for SQL generation and
// intent classification. All completions run against a local Ollama
// instance; no data leaves the machine.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable means the gateway could not be reached at all.
	ErrUnavailable = errors.New("model gateway unavailable")
	// ErrTimeout means the gateway was reached but did not answer in time.
	ErrTimeout = errors.New("model gateway timed out")
)

// Client is the completion interface the pipeline depends on.
type Client interface {
	// Generate returns the completion for a prompt. Errors wrap
	// ErrUnavailable or ErrTimeout when those conditions are
	// distinguishable; any other error is a transport/protocol failure.
	Generate(ctx context.Context, prompt string) (string, error)
}
