package llm

import "context"

type Provider interface {
	// Generate returns one short reply for a single prompt. No conversation
	// history is carried between calls.
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
}
