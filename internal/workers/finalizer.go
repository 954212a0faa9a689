package workers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/lexispeak/internal/models"
	pgrepo "github.com/yoockh/lexispeak/internal/repositories/postgres"
	"github.com/yoockh/lexispeak/internal/scoring"
	"github.com/yoockh/lexispeak/internal/services"
)

const finalizerActor = "finalizer"

// Finalizer scores sessions that never got a report, typically because the
// process died mid-conversation. It rebuilds the accumulator from persisted
// user turns and writes the report through the same upsert a live session
// uses, so running it twice is harmless.
type Finalizer struct {
	Sessions pgrepo.SessionRepository
	Turns    pgrepo.TurnRepository
	Gateway  services.Gateway
	Redis    *redis.Client // optional; serializes sweeps across instances

	Logger *logrus.Logger

	// a session is stale once it is older than MaxAge
	MaxAge    time.Duration
	Interval  time.Duration
	BatchSize int
	LockKey   string

	Now func() time.Time
}

func (f *Finalizer) defaults() {
	if f.MaxAge <= 0 {
		f.MaxAge = time.Hour
	}
	if f.Interval <= 0 {
		f.Interval = 5 * time.Minute
	}
	if f.BatchSize <= 0 {
		f.BatchSize = 50
	}
	if f.LockKey == "" {
		f.LockKey = "lexispeak:finalizer:lock"
	}
	if f.Logger == nil {
		f.Logger = logrus.New()
	}
	if f.Now == nil {
		f.Now = time.Now
	}
}

func (f *Finalizer) Start(ctx context.Context) error {
	if f.Sessions == nil || f.Turns == nil || f.Gateway == nil {
		return errors.New("Finalizer missing dependency: Sessions/Turns/Gateway must be set")
	}
	f.defaults()

	go func() {
		t := time.NewTicker(f.Interval)
		defer t.Stop()
		for {
			if n, err := f.Sweep(ctx); err != nil {
				f.Logger.WithError(err).Warn("finalizer sweep failed")
			} else if n > 0 {
				f.Logger.WithField("sessions", n).Info("finalizer recovered sessions")
			}
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
		}
	}()
	return nil
}

// Sweep finalizes one batch of stale sessions and returns how many got a
// report.
func (f *Finalizer) Sweep(ctx context.Context) (int, error) {
	f.defaults()

	if f.Redis != nil {
		ok, err := f.Redis.SetNX(ctx, f.LockKey, "1", f.Interval).Result()
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, nil
		}
		defer f.Redis.Del(context.WithoutCancel(ctx), f.LockKey)
	}

	stale, err := f.Sessions.ListUnreported(ctx, f.Now().UTC().Add(-f.MaxAge), f.BatchSize)
	if err != nil {
		return 0, err
	}

	done := 0
	for i := range stale {
		if err := f.Finalize(ctx, &stale[i]); err != nil {
			f.Logger.WithError(err).WithField("session_id", stale[i].ID).Warn("finalize stale session")
			continue
		}
		done++
	}
	return done, nil
}

// Finalize scores one session from its stored turns and upserts the report.
func (f *Finalizer) Finalize(ctx context.Context, sess *models.ConversationSession) error {
	f.defaults()

	turns, err := f.Turns.ListBySession(ctx, sess.ID, 0)
	if err != nil {
		return err
	}

	var transcripts []string
	var confidences []float64
	var last time.Time
	for _, t := range turns {
		if t.CreatedAt.After(last) {
			last = t.CreatedAt
		}
		if t.Role != models.TurnRoleUser {
			continue
		}
		transcripts = append(transcripts, t.Content)
		confidences = append(confidences, turnConfidence(t))
	}

	log := f.Logger.WithField("session_id", sess.ID)

	if sess.TotalTime == 0 && !last.IsZero() && last.After(sess.CreatedAt) {
		mins := scoring.Round2(last.Sub(sess.CreatedAt).Minutes())
		if err := f.Gateway.UpdateSessionElapsed(ctx, sess.ID, mins, finalizerActor); err != nil {
			log.WithError(err).Warn("stamp elapsed")
		}
	}

	score, words := scoring.ScoreSession(transcripts, confidences)
	return f.Gateway.UpsertReport(ctx, services.ReportInput{
		SessionID: sess.ID,
		TopicID:   sess.TopicID,
		UserID:    sess.UserID,
		Score:     score,
		WordCount: words,
		Actor:     finalizerActor,
	})
}

func turnConfidence(t models.Turn) float64 {
	if len(t.Metadata) == 0 {
		return 0
	}
	var md models.TurnMetadata
	if err := json.Unmarshal(t.Metadata, &md); err != nil || md.Confidence == nil {
		return 0
	}
	return *md.Confidence
}
