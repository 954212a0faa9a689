// Package transport carries a live conversation between the server and one
// client: synthesized speech and text go out, captured utterances come in.
package transport

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrListenTimeout means no utterance arrived within the listen window.
	ErrListenTimeout = errors.New("transport: listen timeout")
	// ErrDisconnected means the client went away or asked to end the session.
	ErrDisconnected = errors.New("transport: disconnected")
)

type Conn interface {
	SendText(text string) error
	SendAudio(audio []byte) error
	// ReadUtterance blocks for the next captured utterance, at most timeout.
	ReadUtterance(ctx context.Context, timeout time.Duration) ([]byte, error)
	Close() error
	// Done is closed once the peer is gone.
	Done() <-chan struct{}
}
