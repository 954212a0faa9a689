package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChat(t *testing.T, h http.HandlerFunc) *GroqChat {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewGroqChat(srv.URL, "key", "model", 20, 0.7)
	c.HTTPClient = srv.Client()
	return c
}

func TestGroqChat_Success(t *testing.T) {
	c := newTestChat(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req chatCompletionsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "model", req.Model)
		assert.Equal(t, 20, req.MaxTokens)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "hi", req.Messages[0].Content)

		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":" Hello! "}}]}`))
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := c.Generate(ctx, "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello!", got)
}

func TestGroqChat_NoKey(t *testing.T) {
	c := NewGroqChat("", "", "", 0, 0)
	_, err := c.Generate(context.Background(), "hi")
	assert.Error(t, err)
}

func TestGroqChat_HTTPFailures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status_non_2xx", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(500); _, _ = w.Write([]byte("oops")) }},
		{"bad_json", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("not-json")) }},
		{"empty_choices", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"choices":[]}`)) }},
		{"missing_message", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"choices":[{}]}`)) }},
		{"blank_content", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  "}}]}`))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestChat(t, tc.handler)
			_, err := c.Generate(context.Background(), "hi")
			assert.Error(t, err)
		})
	}
}
