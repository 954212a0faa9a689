package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig is read once at start and handed to constructors; nothing in
// internal/ reads the environment itself.
type AppConfig struct {
	Port     string
	LogLevel string
	LogFile  string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	GroqAPIKey  string
	GroqBaseURL string

	STTProvider string // groq|google
	STTModel    string
	STTLanguage string

	LLMProvider    string // groq|vertex
	LLMModel       string
	LLMMaxTokens   int
	LLMTemperature float64

	VertexProjectID string
	VertexLocation  string

	TTSModel string
	TTSVoice string

	SpeechTimeout     time.Duration
	ListenTimeout     time.Duration
	GreetingPause     time.Duration
	MaxSessionMinutes int

	AudioArchiveBucket string
	TraceTTL           time.Duration
	TopicCacheTTL      time.Duration
	StatsCacheTTL      time.Duration
	FinalizerInterval  time.Duration
}

func LoadApp() AppConfig {
	return AppConfig{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  os.Getenv("LOG_FILE"),

		JWTSecret:   os.Getenv("SUPABASE_JWT_SECRET"),
		JWTIssuer:   os.Getenv("SUPABASE_JWT_ISSUER"),
		JWTAudience: os.Getenv("SUPABASE_JWT_AUDIENCE"),

		GroqAPIKey:  os.Getenv("GROQ_API_KEY"),
		GroqBaseURL: getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),

		STTProvider: strings.ToLower(getEnv("STT_PROVIDER", "groq")),
		STTModel:    getEnv("STT_MODEL", "whisper-large-v3"),
		STTLanguage: getEnv("STT_LANGUAGE", "en-US"),

		LLMProvider:    strings.ToLower(getEnv("LLM_PROVIDER", "groq")),
		LLMModel:       getEnv("LLM_MODEL", "llama3-70b-8192"),
		LLMMaxTokens:   getInt("LLM_MAX_TOKENS", 20),
		LLMTemperature: getFloat("LLM_TEMPERATURE", 0.7),

		VertexProjectID: os.Getenv("VERTEX_PROJECT_ID"),
		VertexLocation:  getEnv("VERTEX_LOCATION", "us-central1"),

		TTSModel: getEnv("TTS_MODEL", "playai-tts"),
		TTSVoice: os.Getenv("TTS_VOICE"),

		SpeechTimeout:     getDuration("SPEECH_TIMEOUT", 15*time.Second),
		ListenTimeout:     getDuration("LISTEN_TIMEOUT", 10*time.Second),
		GreetingPause:     getDuration("GREETING_PAUSE", 2*time.Second),
		MaxSessionMinutes: getInt("MAX_SESSION_MINUTES", 60),

		AudioArchiveBucket: os.Getenv("AUDIO_ARCHIVE_BUCKET"),
		TraceTTL:           getDuration("TRACE_TTL", 24*time.Hour),
		TopicCacheTTL:      getDuration("TOPIC_CACHE_TTL", 10*time.Minute),
		StatsCacheTTL:      getDuration("STATS_CACHE_TTL", time.Minute),
		FinalizerInterval:  getDuration("FINALIZER_INTERVAL", 5*time.Minute),
	}
}

func (c AppConfig) MaxSession() time.Duration {
	if c.MaxSessionMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.MaxSessionMinutes) * time.Minute
}

// StaleAfter is how old an unreported session must be before the recovery
// sweep may finalize it. It covers the greeting pause, the longest session,
// one last capture and turn (three speech calls), and the live finalize,
// plus a grace period.
func (c AppConfig) StaleAfter() time.Duration {
	return c.GreetingPause + c.MaxSession() + c.ListenTimeout + 4*c.SpeechTimeout + 5*time.Minute
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		return n
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if f, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64); err == nil {
		return f
	}
	return def
}

// getDuration accepts "15s" style values or bare seconds.
func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
