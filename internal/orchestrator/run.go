package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/lexispeak/internal/events"
	"github.com/yoockh/lexispeak/internal/models"
	"github.com/yoockh/lexispeak/internal/scoring"
	"github.com/yoockh/lexispeak/internal/services"
	"github.com/yoockh/lexispeak/internal/transport"
	"github.com/yoockh/lexispeak/internal/utils"
)

// run is the per-connection state. It is owned by a single goroutine, only
// background archive uploads run beside it.
type run struct {
	o    *Orchestrator
	conn transport.Conn
	req  Request
	log  *logrus.Entry

	state    State
	session  *models.ConversationSession
	started  time.Time
	deadline time.Time
	reason   EndReason

	transcripts []string
	confidences []float64
	chunk       int64

	uploads  sync.WaitGroup
	finalize sync.Once
	result   Result
}

func (r *run) to(next State) {
	if r.state == next {
		return
	}
	r.log.WithFields(logrus.Fields{"from": r.state, "to": next}).Debug("state")
	r.state = next
}

func (r *run) notify(text string) {
	if err := r.conn.SendText(text); err != nil && !errors.Is(err, transport.ErrDisconnected) {
		r.log.WithError(err).Debug("send notice")
	}
}

func (r *run) start(ctx context.Context) (res Result, err error) {
	const op = "Orchestrator.Run"
	d := r.o.deps

	r.to(StateValidating)
	topic, err := d.Gateway.ResolveTopic(ctx, r.req.TopicID)
	if err != nil {
		if utils.IsCode(err, utils.CodeInvalidTopic) {
			r.reject(NoticeInvalidTopic)
		} else {
			r.reject(NoticeStartFailed)
		}
		return Result{Reason: EndError}, err
	}

	sess, err := d.Gateway.CreateSession(ctx, r.req.User, topic.ID)
	if err != nil {
		r.reject(NoticeStartFailed)
		return Result{Reason: EndError}, err
	}
	r.session = sess
	r.started = d.Now()
	r.log = r.log.WithField("session_id", sess.ID)
	r.result.SessionID = sess.ID

	defer func() {
		if p := recover(); p != nil {
			r.to(StateError)
			r.reason = EndError
			r.log.WithError(utils.E(utils.CodeInternal, op, "turn loop panicked", fmt.Errorf("%v", p))).
				WithField("stack", string(debug.Stack())).Error("session aborted")
		}
		r.finish(ctx)
		res, err = r.result, nil
	}()

	r.log.Info("session started")
	r.o.publish(ctx, events.Event{Status: events.StatusStarted, SessionID: sess.ID, Message: topic.Name})

	// disconnect cancels in-flight speech calls
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-r.conn.Done():
			cancel()
		case <-loopCtx.Done():
		}
	}()

	r.greet(loopCtx, topic.Name)
	r.loop(loopCtx)
	return r.result, nil
}

// reject closes a connection that never got a session row.
func (r *run) reject(notice string) {
	r.to(StateRejected)
	r.notify(notice)
	r.to(StateClosing)
	_ = r.conn.Close()
	r.log.WithField("notice", notice).Warn("session rejected")
}

func (r *run) greet(ctx context.Context, topic string) {
	r.to(StateGreeting)
	text := greeting(topic)
	r.notify(text)
	r.o.deps.Pipeline.SynthesizeAndPlay(ctx, text, r.conn)

	if p := r.o.cfg.GreetingPause; p > 0 {
		t := time.NewTimer(p)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
		}
	}
	r.deadline = r.o.deps.Now().Add(r.req.Duration)
}

func (r *run) loop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			r.reason = r.exitReason(ctx)
			return
		}
		now := r.o.deps.Now()
		if !now.Before(r.deadline) {
			r.reason = EndDeadline
			r.notify(NoticeTimeUp)
			return
		}

		r.to(StateListening)
		wait := r.o.cfg.ListenTimeout
		if left := r.deadline.Sub(now); left < wait {
			wait = left
		}

		audio, err := r.conn.ReadUtterance(ctx, wait)
		switch {
		case errors.Is(err, transport.ErrListenTimeout):
			continue
		case errors.Is(err, transport.ErrDisconnected):
			r.reason = EndDisconnect
			return
		case ctx.Err() != nil:
			r.reason = r.exitReason(ctx)
			return
		case err != nil:
			r.to(StateError)
			r.reason = EndError
			r.log.WithError(err).Error("capture failed")
			return
		}

		r.to(StateProcessing)
		r.process(ctx, audio)
	}
}

func (r *run) exitReason(ctx context.Context) EndReason {
	select {
	case <-r.conn.Done():
		return EndDisconnect
	default:
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return EndCancelled
	}
	return EndError
}

func (r *run) process(ctx context.Context, audio []byte) {
	d := r.o.deps
	sid := r.session.ID
	actor := r.req.User.Email

	r.chunk++
	chunk := r.chunk
	if d.Tracer != nil {
		if _, err := d.Tracer.InsertUtterance(ctx, sid, chunk, len(audio)); err != nil {
			r.log.WithError(err).Debug("trace utterance")
		}
	}
	if d.Archive != nil {
		r.uploads.Add(1)
		go func() {
			defer r.uploads.Done()
			actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.o.cfg.FinalizeTimeout)
			defer cancel()
			r.o.archive(actx, sid, chunk, audio)
		}()
	}

	tr, err := d.Pipeline.Transcribe(ctx, audio)
	if err != nil {
		r.trace(func(t Tracer) error { return t.MarkSTT(ctx, sid, chunk, "", 0, models.StatusFailed) })
		if ctx.Err() != nil {
			return
		}
		r.log.WithError(err).Warn("transcription failed")
		r.notify(NoticeTranscriptionFailed)
		return
	}
	r.trace(func(t Tracer) error { return t.MarkSTT(ctx, sid, chunk, tr.Text, tr.Confidence, models.StatusDone) })

	r.transcripts = append(r.transcripts, tr.Text)
	r.confidences = append(r.confidences, tr.Confidence)
	r.result.Turns++

	// a scored transcript must have its row even if the client is gone
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.o.cfg.FinalizeTimeout)
	conf := tr.Confidence
	r.appendTurn(sctx, models.TurnRoleUser, tr.Text, actor, &models.TurnMetadata{Confidence: &conf, LatencyMS: tr.Latency.Milliseconds()})
	cancel()

	reply, err := d.Pipeline.GenerateReply(ctx, tr.Text)
	if err != nil {
		r.trace(func(t Tracer) error { return t.MarkLLM(ctx, sid, chunk, "", models.StatusFailed, 0) })
		if ctx.Err() != nil {
			return
		}
		r.log.WithError(err).Warn("generation failed")
		r.notify(NoticeGenerationFailed)
		return
	}
	r.trace(func(t Tracer) error {
		return t.MarkLLM(ctx, sid, chunk, reply.Text, models.StatusDone, (tr.Latency + reply.Latency).Milliseconds())
	})

	r.appendTurn(ctx, models.TurnRoleAgent, reply.Text, actor, &models.TurnMetadata{LatencyMS: reply.Latency.Milliseconds()})
	r.notify(reply.Text)
	d.Pipeline.SynthesizeAndPlay(ctx, reply.Text, r.conn)
}

func (r *run) appendTurn(ctx context.Context, role models.TurnRole, content, actor string, md *models.TurnMetadata) {
	if err := r.o.deps.Gateway.AppendTurn(ctx, r.session.ID, role, content, actor, md); err != nil {
		r.log.WithError(err).WithField("role", role).Error("persist turn")
		return
	}
	r.o.publish(ctx, events.Event{Status: events.StatusTurn, SessionID: r.session.ID, Role: string(role), Message: content})
}

func (r *run) trace(fn func(Tracer) error) {
	if r.o.deps.Tracer == nil {
		return
	}
	if err := fn(r.o.deps.Tracer); err != nil {
		r.log.WithError(err).Debug("trace utterance")
	}
}

// finish runs finalization exactly once on a context detached from the
// request, so a dropped client cannot skip it. Every step runs even when an
// earlier one fails.
func (r *run) finish(parent context.Context) {
	r.finalize.Do(func() {
		d := r.o.deps
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), r.o.cfg.FinalizeTimeout)
		defer cancel()

		if r.reason == "" {
			r.reason = EndError
		}
		r.to(StateClosing)
		r.result.Reason = r.reason

		r.step("close connection", func() error {
			_ = r.conn.Close()
			return nil
		})

		r.result.Elapsed = scoring.Round2(d.Now().Sub(r.started).Minutes())
		r.step("stamp elapsed", func() error {
			return d.Gateway.UpdateSessionElapsed(ctx, r.session.ID, r.result.Elapsed, r.req.User.Email)
		})

		r.step("score", func() error {
			r.result.Score, r.result.Words = scoring.ScoreSession(r.transcripts, r.confidences)
			return nil
		})

		r.step("upsert report", func() error {
			return d.Gateway.UpsertReport(ctx, services.ReportInput{
				SessionID: r.session.ID,
				TopicID:   r.session.TopicID,
				UserID:    r.req.User.ID,
				Score:     r.result.Score,
				WordCount: r.result.Words,
				Actor:     r.req.User.Email,
			})
		})

		score, words := r.result.Score, r.result.Words
		r.o.publish(ctx, events.Event{
			Status:    events.StatusEnded,
			SessionID: r.session.ID,
			Message:   string(r.reason),
			Score:     &score,
			Words:     &words,
		})

		waitOrDone(ctx, &r.uploads)

		r.to(StateFinalized)
		r.log.WithFields(logrus.Fields{
			"reason":  r.reason,
			"turns":   r.result.Turns,
			"score":   r.result.Score,
			"words":   r.result.Words,
			"elapsed": r.result.Elapsed,
		}).Info("session finalized")
	})
}

func (r *run) step(name string, fn func() error) {
	defer func() {
		if p := recover(); p != nil {
			r.log.WithField("step", name).Errorf("finalize step panicked: %v", p)
		}
	}()
	if err := fn(); err != nil {
		r.log.WithError(err).WithField("step", name).Error("finalize step failed")
	}
}

func waitOrDone(ctx context.Context, wg *sync.WaitGroup) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
