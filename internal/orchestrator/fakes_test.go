package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/lexispeak/internal/models"
	"github.com/yoockh/lexispeak/internal/services"
	"github.com/yoockh/lexispeak/internal/speech"
	"github.com/yoockh/lexispeak/internal/transport"
	"github.com/yoockh/lexispeak/internal/utils"
)

// clock is a manual time source advanced by the fake connection.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock { return &clock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// capture is one scripted ReadUtterance outcome.
type capture struct {
	audio []byte
	err   error
}

type fakeConn struct {
	clock *clock
	step  time.Duration // clock advance per read

	mu     sync.Mutex
	script []capture
	reads  int
	texts  []string
	audio  int
	closed int
	done   chan struct{}
	once   sync.Once
}

func newFakeConn(c *clock, step time.Duration, script ...capture) *fakeConn {
	return &fakeConn{clock: c, step: step, script: script, done: make(chan struct{})}
}

func (f *fakeConn) SendText(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeConn) SendAudio([]byte) error {
	f.mu.Lock()
	f.audio++
	f.mu.Unlock()
	return nil
}

// ReadUtterance plays the script; past its end the client disconnects.
func (f *fakeConn) ReadUtterance(context.Context, time.Duration) ([]byte, error) {
	f.clock.Advance(f.step)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if len(f.script) == 0 {
		f.once.Do(func() { close(f.done) })
		return nil, transport.ErrDisconnected
	}
	c := f.script[0]
	f.script = f.script[1:]
	return c.audio, c.err
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
	f.once.Do(func() { close(f.done) })
	return nil
}

func (f *fakeConn) Done() <-chan struct{} { return f.done }

func (f *fakeConn) Texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

type sttResult struct {
	text string
	conf float64
	err  error
}

type fakePipeline struct {
	mu          sync.Mutex
	stt         []sttResult
	replyErr    error
	panicOnSTT  bool
	afterSTT    func()
	synthesized []string
}

func (p *fakePipeline) Transcribe(context.Context, []byte) (speech.Transcription, error) {
	if p.panicOnSTT {
		panic("boom")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.stt) == 0 {
		return speech.Transcription{}, utils.E(utils.CodeTranscriptionFailed, "fake", "no script", nil)
	}
	r := p.stt[0]
	p.stt = p.stt[1:]
	if r.err != nil {
		return speech.Transcription{}, r.err
	}
	if p.afterSTT != nil {
		p.afterSTT()
	}
	return speech.Transcription{Text: r.text, Confidence: r.conf, Latency: 10 * time.Millisecond}, nil
}

func (p *fakePipeline) GenerateReply(_ context.Context, prompt string) (speech.Reply, error) {
	if p.replyErr != nil {
		return speech.Reply{}, p.replyErr
	}
	return speech.Reply{Text: "You said: " + prompt, Latency: 5 * time.Millisecond}, nil
}

func (p *fakePipeline) SynthesizeAndPlay(_ context.Context, text string, out speech.AudioSink) {
	p.mu.Lock()
	p.synthesized = append(p.synthesized, text)
	p.mu.Unlock()
	_ = out.SendAudio([]byte("wav"))
}

type turnRow struct {
	SessionID string
	Role      models.TurnRole
	Content   string
	Meta      *models.TurnMetadata
}

type fakeGateway struct {
	mu       sync.Mutex
	topics   map[string]models.Topic
	sessions map[string]*models.ConversationSession
	turns    []turnRow
	reports  map[string]services.ReportInput
	upserts  int

	// strictCtx makes writes fail on a cancelled context, like a real driver
	strictCtx bool
}

func newFakeGateway(topics ...models.Topic) *fakeGateway {
	g := &fakeGateway{
		topics:   map[string]models.Topic{},
		sessions: map[string]*models.ConversationSession{},
		reports:  map[string]services.ReportInput{},
	}
	for _, t := range topics {
		g.topics[t.ID] = t
	}
	return g
}

func (g *fakeGateway) ResolveTopic(_ context.Context, id string) (*models.Topic, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.topics[id]
	if !ok {
		return nil, utils.E(utils.CodeInvalidTopic, "fake", "invalid topic selected", utils.ErrNotFound)
	}
	return &t, nil
}

func (g *fakeGateway) CreateSession(_ context.Context, user models.User, topicID string) (*models.ConversationSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := &models.ConversationSession{ID: uuid.NewString(), UserID: user.ID, TopicID: topicID}
	g.sessions[s.ID] = s
	return s, nil
}

func (g *fakeGateway) AppendTurn(ctx context.Context, sessionID string, role models.TurnRole, content, _ string, md *models.TurnMetadata) error {
	if g.strictCtx && ctx.Err() != nil {
		return ctx.Err()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.turns = append(g.turns, turnRow{SessionID: sessionID, Role: role, Content: content, Meta: md})
	return nil
}

func (g *fakeGateway) UpsertReport(_ context.Context, in services.ReportInput) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reports[in.SessionID] = in
	g.upserts++
	return nil
}

func (g *fakeGateway) UpdateSessionElapsed(_ context.Context, sessionID string, minutes float64, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[sessionID]
	if !ok {
		return errors.New("no session")
	}
	s.TotalTime = minutes
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}
