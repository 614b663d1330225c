package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	APIPort            string
	WorkerEnabled      bool
	BackendAPIKey      string // API key for authenticating requests (empty = no auth, dev mode)
	CorsAllowedOrigins string // Comma-separated allowed origins (empty = *, dev mode)
	Environment        string // "development" or "production"

	// Database
	DatabaseURL string

	// Redis (queue + quota counters)
	RedisURL string

	// Supabase storage
	SupabaseURL           string
	SupabaseServiceKey    string
	SupabaseStorageBucket string

	// OpenAI (script/dialogue generation — preferred provider)
	OpenAIKey string

	// Gemini (script/dialogue generation — used when no OpenAI key is set)
	GeminiKey string

	// TTS
	TTSProvider       string // "edge" (default) or "elevenlabs"
	ElevenLabsKey     string
	ElevenLabsVoiceID string
	AlexVoice         string // podcast host 1 voice override
	SamVoice          string // podcast host 2 voice override
	NarratorVoice     string // video narrator voice override

	// Media toolchain
	TempDir        string
	MediaOutputDir string // local fallback root when storage upload fails
	RenderMode     string // "perslide" or "combined"

	// Worker / queue policy
	WorkerConcurrency int
	VideoJobTimeout   time.Duration
	AudioJobTimeout   time.Duration
	VideoMaxAttempts  int
	AudioMaxAttempts  int
	VideoBackoffBase  time.Duration
	AudioBackoffBase  time.Duration

	// Daily quotas per job type
	VideoDailyLimit int
	AudioDailyLimit int
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "production")

	// The original limits: 5 videos/day in production, 50 while developing;
	// 3 audio overviews/day everywhere (audio jobs are the expensive ones).
	defaultVideoLimit := 5
	if env == "development" {
		defaultVideoLimit = 50
	}

	cfg := &Config{
		APIPort:               getEnv("API_PORT", "8080"),
		WorkerEnabled:         getEnvBool("WORKER_ENABLED", true),
		BackendAPIKey:         getEnv("BACKEND_API_KEY", ""),
		CorsAllowedOrigins:    getEnv("CORS_ALLOWED_ORIGINS", ""),
		Environment:           env,
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		RedisURL:              getEnv("REDIS_URL", "redis://localhost:6379"),
		SupabaseURL:           getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:    getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseStorageBucket: getEnv("SUPABASE_STORAGE_BUCKET", "educast-media"),
		OpenAIKey:             getEnv("OPENAI_API_KEY", ""),
		GeminiKey:             getEnv("GEMINI_API_KEY", ""),
		TTSProvider:           getEnv("TTS_PROVIDER", "edge"),
		ElevenLabsKey:         getEnv("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoiceID:     getEnv("ELEVENLABS_VOICE_ID", ""),
		AlexVoice:             getEnv("VOICE_ALEX", ""),
		SamVoice:              getEnv("VOICE_SAM", ""),
		NarratorVoice:         getEnv("VOICE_NARRATOR", ""),
		TempDir:               getEnv("TEMP_DIR", "/tmp/educast"),
		MediaOutputDir:        getEnv("MEDIA_OUTPUT_DIR", "public"),
		RenderMode:            getEnv("RENDER_MODE", "perslide"),
		WorkerConcurrency:     getEnvInt("WORKER_CONCURRENCY", 2),
		VideoJobTimeout:       getEnvDuration("VIDEO_JOB_TIMEOUT", 5*time.Minute),
		AudioJobTimeout:       getEnvDuration("AUDIO_JOB_TIMEOUT", 10*time.Minute),
		VideoMaxAttempts:      getEnvInt("VIDEO_MAX_ATTEMPTS", 3),
		AudioMaxAttempts:      getEnvInt("AUDIO_MAX_ATTEMPTS", 2),
		VideoBackoffBase:      getEnvDuration("VIDEO_RETRY_BACKOFF", 5*time.Second),
		AudioBackoffBase:      getEnvDuration("AUDIO_RETRY_BACKOFF", 10*time.Second),
		VideoDailyLimit:       getEnvInt("VIDEO_DAILY_LIMIT", defaultVideoLimit),
		AudioDailyLimit:       getEnvInt("AUDIO_DAILY_LIMIT", 3),
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	// At least one generation provider must be configured
	if cfg.OpenAIKey == "" && cfg.GeminiKey == "" {
		return nil, fmt.Errorf("either OPENAI_API_KEY or GEMINI_API_KEY is required for script generation")
	}

	if cfg.TTSProvider == "elevenlabs" && cfg.ElevenLabsKey == "" {
		return nil, fmt.Errorf("ELEVENLABS_API_KEY is required when TTS_PROVIDER=elevenlabs")
	}

	if cfg.RenderMode != "perslide" && cfg.RenderMode != "combined" {
		return nil, fmt.Errorf("RENDER_MODE must be \"perslide\" or \"combined\", got %q", cfg.RenderMode)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}
