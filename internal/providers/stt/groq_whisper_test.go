package stt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWhisper(t *testing.T, h http.HandlerFunc) *GroqWhisper {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	g := NewGroqWhisper(srv.URL, "key", "")
	g.HTTPClient = srv.Client()
	return g
}

func TestGroqWhisper_Success(t *testing.T) {
	g := newTestWhisper(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-large-v3", r.FormValue("model"))
		assert.Equal(t, "en", r.FormValue("language"))
		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		_ = f.Close()
		_, _ = w.Write([]byte(`{"text":"  hello there ","confidence":0.93}`))
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	text, conf, err := g.Transcribe(ctx, []byte("RIFF...."), "en-US")
	require.NoError(t, err)
	assert.Equal(t, "hello there", text)
	assert.InDelta(t, 0.93, conf, 1e-9)
}

func TestGroqWhisper_ConfidenceFromSegments(t *testing.T) {
	g := newTestWhisper(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text":"hi","segments":[{"avg_logprob":0},{"avg_logprob":0}]}`))
	})
	_, conf, err := g.Transcribe(context.Background(), []byte{1}, "")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, conf, 1e-9)
}

func TestGroqWhisper_ConfidenceDefaultsToZero(t *testing.T) {
	g := newTestWhisper(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text":"hi"}`))
	})
	_, conf, err := g.Transcribe(context.Background(), []byte{1}, "en")
	require.NoError(t, err)
	assert.Equal(t, 0.0, conf)
}

func TestGroqWhisper_Failures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status_non_2xx", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(500); _, _ = w.Write([]byte("oops")) }},
		{"bad_json", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("not-json")) }},
		{"missing_text", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"confidence":0.5}`)) }},
		{"blank_text", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"text":"   "}`)) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := newTestWhisper(t, tc.handler)
			_, _, err := g.Transcribe(context.Background(), []byte{1}, "en")
			assert.Error(t, err)
		})
	}
}

func TestGroqWhisper_NoKeyOrAudio(t *testing.T) {
	g := NewGroqWhisper("", "", "")
	_, _, err := g.Transcribe(context.Background(), []byte{1}, "en")
	assert.Error(t, err)

	g = NewGroqWhisper("", "key", "")
	_, _, err = g.Transcribe(context.Background(), nil, "en")
	assert.Error(t, err)
}

func TestWhisperLanguage(t *testing.T) {
	assert.Equal(t, "en", whisperLanguage("en-US"))
	assert.Equal(t, "id", whisperLanguage("id_ID"))
	assert.Equal(t, "", whisperLanguage(""))
}
