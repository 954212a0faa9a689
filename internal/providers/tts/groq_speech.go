package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GroqSpeech calls the OpenAI-compatible audio/speech endpoint.
type GroqSpeech struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
	Model      string
	Voice      string
	Format     string
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

const maxAudioBytes = 20 << 20

func NewGroqSpeech(baseURL, apiKey, model, voice string) *GroqSpeech {
	if baseURL == "" {
		baseURL = "https://api.groq.com/openai/v1"
	}
	if model == "" {
		model = "playai-tts"
	}
	if voice == "" {
		voice = "Fritz-PlayAI"
	}
	return &GroqSpeech{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		Model:      model,
		Voice:      voice,
		Format:     "wav",
	}
}

func (g *GroqSpeech) Close() error { return nil }

func (g *GroqSpeech) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if g.APIKey == "" {
		return nil, fmt.Errorf("groq: api key missing")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("tts: empty text")
	}

	reqBody, err := json.Marshal(speechRequest{Model: g.Model, Input: text, Voice: g.Voice, ResponseFormat: g.Format})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/audio/speech", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("groq tts error: status=%d body=%s", resp.StatusCode, string(b))
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("tts: empty audio")
	}
	return audio, nil
}
