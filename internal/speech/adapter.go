// Package speech wraps the three network-bound speech services (STT, LLM,
// TTS) behind one call/timeout contract. Calls are retryless: a dropped turn
// is acceptable, a stalled session is not.
package speech

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/lexispeak/internal/providers/llm"
	"github.com/yoockh/lexispeak/internal/providers/stt"
	"github.com/yoockh/lexispeak/internal/providers/tts"
	"github.com/yoockh/lexispeak/internal/utils"
)

// AudioSink receives synthesized speech, typically the client connection.
type AudioSink interface {
	SendAudio(audio []byte) error
}

type Config struct {
	Timeout  time.Duration // per call
	Language string        // BCP-47, ex: "en-US"
}

type Transcription struct {
	Text       string
	Confidence float64
	Latency    time.Duration
}

type Reply struct {
	Text    string
	Latency time.Duration
}

type Adapter struct {
	cfg Config
	stt stt.Provider
	llm llm.Provider
	tts tts.Provider
	log *logrus.Logger
}

// NewAdapter is called once at process start. tts may be nil, in which case
// synthesis is skipped.
func NewAdapter(cfg Config, s stt.Provider, l llm.Provider, t tts.Provider, log *logrus.Logger) *Adapter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Language == "" {
		cfg.Language = "en-US"
	}
	if log == nil {
		log = logrus.New()
	}
	return &Adapter{cfg: cfg, stt: s, llm: l, tts: t, log: log}
}

// Transcribe fails with CodeTranscriptionFailed on provider error or an
// empty transcript.
func (a *Adapter) Transcribe(ctx context.Context, audio []byte) (Transcription, error) {
	const op = "Adapter.Transcribe"

	if len(audio) == 0 {
		return Transcription{}, utils.E(utils.CodeTranscriptionFailed, op, "empty audio", nil)
	}
	if a.stt == nil {
		return Transcription{}, utils.E(utils.CodeTranscriptionFailed, op, "stt provider is not configured", nil)
	}

	start := time.Now()
	res, err := call(ctx, a.cfg.Timeout, func(ctx context.Context) (Transcription, error) {
		text, conf, err := a.stt.Transcribe(ctx, audio, a.cfg.Language)
		return Transcription{Text: strings.TrimSpace(text), Confidence: conf}, err
	})
	if err != nil {
		return Transcription{}, utils.E(utils.CodeTranscriptionFailed, op, "could not transcribe audio", err)
	}
	if res.Text == "" {
		return Transcription{}, utils.E(utils.CodeTranscriptionFailed, op, "empty transcript", nil)
	}
	if res.Confidence < 0 || res.Confidence > 1 {
		res.Confidence = 0
	}
	res.Latency = time.Since(start)
	return res, nil
}

// GenerateReply fails with CodeGenerationFailed on provider error or an
// empty reply.
func (a *Adapter) GenerateReply(ctx context.Context, prompt string) (Reply, error) {
	const op = "Adapter.GenerateReply"

	if a.llm == nil {
		return Reply{}, utils.E(utils.CodeGenerationFailed, op, "llm provider is not configured", nil)
	}

	start := time.Now()
	text, err := call(ctx, a.cfg.Timeout, func(ctx context.Context) (string, error) {
		return a.llm.Generate(ctx, prompt)
	})
	if err != nil {
		return Reply{}, utils.E(utils.CodeGenerationFailed, op, "could not generate a reply", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, utils.E(utils.CodeGenerationFailed, op, "empty reply", nil)
	}
	return Reply{Text: text, Latency: time.Since(start)}, nil
}

// SynthesizeAndPlay renders text to speech and writes it to out. It is
// best-effort: failures are logged and never returned.
func (a *Adapter) SynthesizeAndPlay(ctx context.Context, text string, out AudioSink) {
	const op = "Adapter.SynthesizeAndPlay"

	if a.tts == nil || out == nil || strings.TrimSpace(text) == "" {
		return
	}

	audio, err := call(ctx, a.cfg.Timeout, func(ctx context.Context) ([]byte, error) {
		return a.tts.Synthesize(ctx, text)
	})
	if err == nil {
		err = out.SendAudio(audio)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		a.log.WithError(utils.E(utils.CodeSynthesisFailed, op, "speech synthesis failed", err)).
			Warn("tts failed")
	}
}

type result[T any] struct {
	val T
	err error
}

// call runs fn on its own goroutine bounded by timeout and returns as soon
// as either fn finishes or ctx is done.
func call[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan result[T], 1)
	go func() {
		v, err := fn(cctx)
		done <- result[T]{val: v, err: err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-cctx.Done():
		var zero T
		return zero, cctx.Err()
	}
}
