package tts

import "context"

type Provider interface {
	// Synthesize renders text to an encoded audio clip (WAV by default).
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Close() error
}
