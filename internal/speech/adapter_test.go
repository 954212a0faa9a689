package speech

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/lexispeak/internal/utils"
)

type fakeSTT struct {
	text  string
	conf  float64
	err   error
	delay time.Duration
	lang  string
}

func (f *fakeSTT) Transcribe(ctx context.Context, audio []byte, language string) (string, float64, error) {
	f.lang = language
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", 0, ctx.Err()
		}
	}
	return f.text, f.conf, f.err
}
func (f *fakeSTT) Close() error { return nil }

type fakeLLM struct {
	reply string
	err   error
}

func (f fakeLLM) Generate(ctx context.Context, prompt string) (string, error) { return f.reply, f.err }
func (f fakeLLM) Close() error                                                { return nil }

type fakeTTS struct {
	audio []byte
	err   error
}

func (f fakeTTS) Synthesize(ctx context.Context, text string) ([]byte, error) { return f.audio, f.err }
func (f fakeTTS) Close() error                                                { return nil }

type sink struct {
	got [][]byte
	err error
}

func (s *sink) SendAudio(b []byte) error {
	s.got = append(s.got, b)
	return s.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestAdapter_Transcribe(t *testing.T) {
	s := &fakeSTT{text: " hello ", conf: 0.9}
	a := NewAdapter(Config{Language: "en-GB"}, s, nil, nil, quietLogger())

	tr, err := a.Transcribe(context.Background(), []byte{1, 2})
	require.NoError(t, err)
	assert.Equal(t, "hello", tr.Text)
	assert.Equal(t, 0.9, tr.Confidence)
	assert.Equal(t, "en-GB", s.lang)
}

func TestAdapter_TranscribeFailures(t *testing.T) {
	cases := map[string]*fakeSTT{
		"provider_error": {err: errors.New("502")},
		"empty_text":     {text: "   "},
		"timeout":        {text: "late", delay: time.Second},
	}
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			a := NewAdapter(Config{Timeout: 20 * time.Millisecond}, s, nil, nil, quietLogger())
			_, err := a.Transcribe(context.Background(), []byte{1})
			assert.True(t, utils.IsCode(err, utils.CodeTranscriptionFailed), "%v", err)
		})
	}

	a := NewAdapter(Config{}, &fakeSTT{text: "x"}, nil, nil, quietLogger())
	_, err := a.Transcribe(context.Background(), nil)
	assert.True(t, utils.IsCode(err, utils.CodeTranscriptionFailed))
}

func TestAdapter_TranscribeOutOfRangeConfidence(t *testing.T) {
	a := NewAdapter(Config{}, &fakeSTT{text: "x", conf: 3}, nil, nil, quietLogger())
	tr, err := a.Transcribe(context.Background(), []byte{1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, tr.Confidence)
}

func TestAdapter_TranscribeReturnsOnCancel(t *testing.T) {
	a := NewAdapter(Config{Timeout: time.Minute}, &fakeSTT{text: "x", delay: time.Minute}, nil, nil, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := a.Transcribe(ctx, []byte{1})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestAdapter_GenerateReply(t *testing.T) {
	a := NewAdapter(Config{}, nil, fakeLLM{reply: " Sure. "}, nil, quietLogger())
	r, err := a.GenerateReply(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "Sure.", r.Text)

	a = NewAdapter(Config{}, nil, fakeLLM{err: errors.New("boom")}, nil, quietLogger())
	_, err = a.GenerateReply(context.Background(), "hi")
	assert.True(t, utils.IsCode(err, utils.CodeGenerationFailed))

	a = NewAdapter(Config{}, nil, fakeLLM{reply: ""}, nil, quietLogger())
	_, err = a.GenerateReply(context.Background(), "hi")
	assert.True(t, utils.IsCode(err, utils.CodeGenerationFailed))

	a = NewAdapter(Config{}, nil, nil, nil, quietLogger())
	_, err = a.GenerateReply(context.Background(), "hi")
	assert.True(t, utils.IsCode(err, utils.CodeGenerationFailed))
}

func TestAdapter_SynthesizeAndPlayIsBestEffort(t *testing.T) {
	out := &sink{}
	a := NewAdapter(Config{}, nil, nil, fakeTTS{audio: []byte("wav")}, quietLogger())
	a.SynthesizeAndPlay(context.Background(), "hello", out)
	require.Len(t, out.got, 1)
	assert.Equal(t, []byte("wav"), out.got[0])

	// provider and sink failures are swallowed
	out = &sink{}
	a = NewAdapter(Config{}, nil, nil, fakeTTS{err: errors.New("down")}, quietLogger())
	a.SynthesizeAndPlay(context.Background(), "hello", out)
	assert.Empty(t, out.got)

	out = &sink{err: errors.New("closed")}
	a = NewAdapter(Config{}, nil, nil, fakeTTS{audio: []byte("wav")}, quietLogger())
	a.SynthesizeAndPlay(context.Background(), "hello", out)
	assert.Len(t, out.got, 1)

	// no provider: no-op
	out = &sink{}
	NewAdapter(Config{}, nil, nil, nil, quietLogger()).SynthesizeAndPlay(context.Background(), "hello", out)
	assert.Empty(t, out.got)
}
