package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadApp_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "STT_PROVIDER", "LLM_MAX_TOKENS", "LISTEN_TIMEOUT", "MAX_SESSION_MINUTES", "SPEECH_TIMEOUT", "GREETING_PAUSE"} {
		t.Setenv(k, "")
	}

	c := LoadApp()
	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "groq", c.STTProvider)
	assert.Equal(t, 20, c.LLMMaxTokens)
	assert.Equal(t, 10*time.Second, c.ListenTimeout)
	assert.Equal(t, time.Hour, c.MaxSession())
}

func TestLoadApp_Overrides(t *testing.T) {
	t.Setenv("STT_PROVIDER", "Google")
	t.Setenv("LLM_TEMPERATURE", "0.2")
	t.Setenv("LISTEN_TIMEOUT", "4")
	t.Setenv("SPEECH_TIMEOUT", "1500ms")
	t.Setenv("MAX_SESSION_MINUTES", "15")
	t.Setenv("LLM_MAX_TOKENS", "not-a-number")

	c := LoadApp()
	assert.Equal(t, "google", c.STTProvider)
	assert.Equal(t, 0.2, c.LLMTemperature)
	assert.Equal(t, 4*time.Second, c.ListenTimeout)
	assert.Equal(t, 1500*time.Millisecond, c.SpeechTimeout)
	assert.Equal(t, 15*time.Minute, c.MaxSession())
	assert.Equal(t, 20, c.LLMMaxTokens)
}

func TestStaleAfter_CoversSlowLastTurn(t *testing.T) {
	c := AppConfig{
		MaxSessionMinutes: 60,
		GreetingPause:     2 * time.Second,
		ListenTimeout:     10 * time.Second,
		SpeechTimeout:     15 * time.Second,
	}

	// greeting, full session, last capture, stt+llm+tts, finalize
	live := c.GreetingPause + c.MaxSession() + c.ListenTimeout + 3*c.SpeechTimeout + c.SpeechTimeout
	assert.Greater(t, c.StaleAfter(), live)
	assert.Equal(t, time.Hour+5*time.Minute+72*time.Second, c.StaleAfter())
}
