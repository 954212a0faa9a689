package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/lexispeak/config"
	"github.com/yoockh/lexispeak/internal/providers/llm"
	"github.com/yoockh/lexispeak/internal/providers/stt"
	"github.com/yoockh/lexispeak/internal/providers/tts"
)

type providers struct {
	stt stt.Provider
	llm llm.Provider
	tts tts.Provider
}

// newProviders picks the speech backends named in cfg. Text-to-speech is
// optional: without a Groq key replies are sent as text only.
func newProviders(ctx context.Context, cfg config.AppConfig, log *logrus.Logger) (*providers, error) {
	p := &providers{}

	switch cfg.STTProvider {
	case "google":
		g, err := stt.NewGoogleSpeech(ctx)
		if err != nil {
			return nil, fmt.Errorf("google speech: %w", err)
		}
		p.stt = g
	case "groq":
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY is required for STT_PROVIDER=groq")
		}
		p.stt = stt.NewGroqWhisper(cfg.GroqBaseURL, cfg.GroqAPIKey, cfg.STTModel)
	default:
		return nil, fmt.Errorf("unknown STT_PROVIDER %q", cfg.STTProvider)
	}

	switch cfg.LLMProvider {
	case "vertex":
		v, err := llm.NewVertexGemini(ctx, cfg.VertexProjectID, cfg.VertexLocation, cfg.LLMModel, cfg.LLMMaxTokens, cfg.LLMTemperature)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("vertex gemini: %w", err)
		}
		p.llm = v
	case "groq":
		if cfg.GroqAPIKey == "" {
			p.Close()
			return nil, fmt.Errorf("GROQ_API_KEY is required for LLM_PROVIDER=groq")
		}
		p.llm = llm.NewGroqChat(cfg.GroqBaseURL, cfg.GroqAPIKey, cfg.LLMModel, cfg.LLMMaxTokens, cfg.LLMTemperature)
	default:
		p.Close()
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}

	if cfg.GroqAPIKey != "" {
		p.tts = tts.NewGroqSpeech(cfg.GroqBaseURL, cfg.GroqAPIKey, cfg.TTSModel, cfg.TTSVoice)
	} else {
		log.Warn("GROQ_API_KEY not set: speech synthesis disabled")
	}

	log.WithFields(logrus.Fields{"stt": cfg.STTProvider, "llm": cfg.LLMProvider, "tts": p.tts != nil}).Info("speech providers ready")
	return p, nil
}

func (p *providers) Close() {
	if p.stt != nil {
		_ = p.stt.Close()
	}
	if p.llm != nil {
		_ = p.llm.Close()
	}
	if p.tts != nil {
		_ = p.tts.Close()
	}
}
