package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

var ErrEmptyTranscript = errors.New("stt: empty transcript")

// GroqWhisper calls the OpenAI-compatible audio/transcriptions endpoint.
type GroqWhisper struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
	Model      string
}

type transcriptionSegment struct {
	AvgLogprob *float64 `json:"avg_logprob"`
}

type transcriptionResponse struct {
	Text       *string                `json:"text"`
	Confidence *float64               `json:"confidence"`
	Segments   []transcriptionSegment `json:"segments"`
}

func NewGroqWhisper(baseURL, apiKey, model string) *GroqWhisper {
	if baseURL == "" {
		baseURL = "https://api.groq.com/openai/v1"
	}
	if model == "" {
		model = "whisper-large-v3"
	}
	return &GroqWhisper{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		Model:      model,
	}
}

func (g *GroqWhisper) Close() error { return nil }

func (g *GroqWhisper) Transcribe(ctx context.Context, audio []byte, language string) (string, float64, error) {
	if g.APIKey == "" {
		return "", 0, fmt.Errorf("groq: api key missing")
	}
	if len(audio) == 0 {
		return "", 0, fmt.Errorf("groq: empty audio")
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", 0, err
	}
	if _, err := fw.Write(audio); err != nil {
		return "", 0, err
	}
	_ = mw.WriteField("model", g.Model)
	_ = mw.WriteField("response_format", "verbose_json")
	if lang := whisperLanguage(language); lang != "" {
		_ = mw.WriteField("language", lang)
	}
	if err := mw.Close(); err != nil {
		return "", 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/audio/transcriptions", body)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Authorization", "Bearer "+g.APIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", 0, fmt.Errorf("groq stt error: status=%d body=%s", resp.StatusCode, string(b))
	}

	var tr transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", 0, fmt.Errorf("groq stt: decode: %w", err)
	}
	if tr.Text == nil || strings.TrimSpace(*tr.Text) == "" {
		return "", 0, ErrEmptyTranscript
	}

	return strings.TrimSpace(*tr.Text), tr.confidence(), nil
}

// confidence prefers an explicit score, then the mean segment probability
// derived from avg_logprob, then 0.
func (tr transcriptionResponse) confidence() float64 {
	if tr.Confidence != nil {
		return clamp01(*tr.Confidence)
	}
	var sum float64
	var n int
	for _, s := range tr.Segments {
		if s.AvgLogprob == nil {
			continue
		}
		sum += math.Exp(*s.AvgLogprob)
		n++
	}
	if n == 0 {
		return 0
	}
	return clamp01(sum / float64(n))
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// whisper takes ISO-639-1 codes ("en"), callers pass BCP-47 ("en-US")
func whisperLanguage(v string) string {
	v = strings.TrimSpace(v)
	if i := strings.IndexAny(v, "-_"); i > 0 {
		v = v[:i]
	}
	return strings.ToLower(v)
}
