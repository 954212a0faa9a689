// Package orchestrator drives one live conversation from handshake to the
// persisted report.
package orchestrator

import (
	"bytes"
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/lexispeak/internal/events"
	"github.com/yoockh/lexispeak/internal/models"
	"github.com/yoockh/lexispeak/internal/services"
	"github.com/yoockh/lexispeak/internal/speech"
	"github.com/yoockh/lexispeak/internal/storage"
	"github.com/yoockh/lexispeak/internal/transport"
)

// Pipeline is the speech adapter as the turn loop sees it.
type Pipeline interface {
	Transcribe(ctx context.Context, audio []byte) (speech.Transcription, error)
	GenerateReply(ctx context.Context, prompt string) (speech.Reply, error)
	SynthesizeAndPlay(ctx context.Context, text string, out speech.AudioSink)
}

// Tracer records each utterance's progress. services.BufferService
// satisfies it.
type Tracer interface {
	InsertUtterance(ctx context.Context, sessionID string, chunkIndex int64, audioBytes int) (*models.RealtimeBuffer, error)
	SetAudioURL(ctx context.Context, sessionID string, chunkIndex int64, audioURL string) error
	MarkSTT(ctx context.Context, sessionID string, chunkIndex int64, rawText string, confidence float64, status string) error
	MarkLLM(ctx context.Context, sessionID string, chunkIndex int64, response string, status string, processingMS int64) error
}

type Config struct {
	ListenTimeout   time.Duration // silence allowed per capture
	GreetingPause   time.Duration
	FinalizeTimeout time.Duration
	MaxDuration     time.Duration // upper bound for a requested duration
}

// Deps are shared by every session. Tracer, Archive and Events are optional.
type Deps struct {
	Gateway  services.Gateway
	Pipeline Pipeline
	Tracer   Tracer
	Archive  storage.Uploader
	Events   events.Publisher
	Log      *logrus.Logger
	Now      func() time.Time
}

type Request struct {
	User     models.User
	TopicID  string
	Duration time.Duration
}

type Result struct {
	SessionID string
	Reason    EndReason
	Turns     int // successful user turns
	Score     float64
	Words     int
	Elapsed   float64 // minutes
}

type Orchestrator struct {
	cfg  Config
	deps Deps
}

func New(cfg Config, deps Deps) *Orchestrator {
	if cfg.ListenTimeout <= 0 {
		cfg.ListenTimeout = 10 * time.Second
	}
	if cfg.GreetingPause < 0 {
		cfg.GreetingPause = 0
	}
	if cfg.FinalizeTimeout <= 0 {
		cfg.FinalizeTimeout = 15 * time.Second
	}
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = time.Hour
	}
	if deps.Log == nil {
		deps.Log = logrus.New()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Orchestrator{cfg: cfg, deps: deps}
}

// Duration clamps a requested length in minutes to (0, MaxDuration].
func (o *Orchestrator) Duration(minutes int) time.Duration {
	d := time.Duration(minutes) * time.Minute
	if d <= 0 || d > o.cfg.MaxDuration {
		return o.cfg.MaxDuration
	}
	return d
}

// Run owns conn until it returns. Only start-time failures (unknown topic,
// session row not created) are returned as errors; once a session exists
// it is always finalized and Run returns nil.
func (o *Orchestrator) Run(ctx context.Context, conn transport.Conn, req Request) (Result, error) {
	r := &run{
		o:     o,
		conn:  conn,
		req:   req,
		state: StateConnecting,
		log: o.deps.Log.WithFields(logrus.Fields{
			"user_id":  req.User.ID,
			"topic_id": req.TopicID,
		}),
	}
	if req.Duration <= 0 || req.Duration > o.cfg.MaxDuration {
		r.req.Duration = o.cfg.MaxDuration
	}
	return r.start(ctx)
}

func (o *Orchestrator) publish(ctx context.Context, ev events.Event) {
	if o.deps.Events == nil {
		return
	}
	if err := o.deps.Events.Publish(ctx, ev); err != nil {
		o.deps.Log.WithError(err).WithField("session_id", ev.SessionID).Debug("publish event")
	}
}

func (o *Orchestrator) archive(ctx context.Context, sessionID string, chunk int64, audio []byte) {
	const op = "Orchestrator.archive"

	url, err := o.deps.Archive.Upload(ctx, storage.UtteranceObject(sessionID, chunk), "audio/wav", bytes.NewReader(audio))
	if err != nil {
		o.deps.Log.WithError(err).WithFields(logrus.Fields{"op": op, "session_id": sessionID, "chunk_index": chunk}).
			Warn("archive utterance")
		return
	}
	if o.deps.Tracer != nil {
		_ = o.deps.Tracer.SetAudioURL(ctx, sessionID, chunk, url)
	}
}
