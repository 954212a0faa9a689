package stt

import "context"

type Provider interface {
	// Transcribe returns the best transcript for one utterance. Confidence is
	// in [0,1] and is 0 when the backend does not report one.
	Transcribe(ctx context.Context, audio []byte, language string) (text string, confidence float64, err error)
	Close() error
}
