package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/educast/educast/internal/api"
	"github.com/educast/educast/internal/config"
	"github.com/educast/educast/internal/db"
	"github.com/educast/educast/internal/extract"
	"github.com/educast/educast/internal/media"
	"github.com/educast/educast/internal/pipeline"
	"github.com/educast/educast/internal/queue"
	"github.com/educast/educast/internal/quota"
	"github.com/educast/educast/internal/script"
	"github.com/educast/educast/internal/storage"
	"github.com/educast/educast/internal/tts"
	"github.com/educast/educast/internal/worker"
)

func main() {
	log.Println("Starting EduCast API...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	log.Println("Connected to database")

	q, err := queue.New(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()
	log.Println("Connected to Redis queue")

	redisOpt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Invalid Redis URL: %v", err)
	}
	rdb := redis.NewClient(redisOpt)
	defer rdb.Close()

	quotaStore := quota.NewStore(rdb, cfg.VideoDailyLimit, cfg.AudioDailyLimit)
	voices := tts.NewVoices(cfg.AlexVoice, cfg.SamVoice, cfg.NarratorVoice)

	handler := api.NewHandler(cfg, database, q, quotaStore, voices)
	router := api.NewRouter(handler, api.RouterConfig{
		BackendAPIKey:      cfg.BackendAPIKey,
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
	})

	if cfg.BackendAPIKey != "" {
		log.Println("API key authentication enabled")
	} else {
		log.Println("WARNING: No BACKEND_API_KEY set — API is unprotected (dev mode)")
	}

	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	var w *worker.Worker
	if cfg.WorkerEnabled {
		log.Println("Worker enabled, starting background processing...")

		// Script generator — OpenAI preferred, Gemini as fallback
		var generator script.Generator
		if cfg.OpenAIKey != "" {
			generator = script.NewOpenAIGenerator(cfg.OpenAIKey)
			log.Println("Script generator: OpenAI")
		} else {
			gemini, err := script.NewGeminiGenerator(ctx, cfg.GeminiKey)
			if err != nil {
				log.Fatalf("Failed to create Gemini generator: %v", err)
			}
			defer gemini.Close()
			generator = gemini
			log.Println("Script generator: Gemini")
		}

		// TTS engine — edge-tts preferred (free), ElevenLabs when configured
		var engine tts.Engine
		if cfg.TTSProvider == "elevenlabs" {
			engine = tts.NewElevenLabsEngine(cfg.ElevenLabsKey)
		} else {
			edge := tts.NewEdgeEngine()
			if err := edge.Available(ctx); err != nil {
				log.Printf("WARNING: %v", err)
			}
			engine = edge
		}
		log.Printf("TTS engine: %s (Alex=%s, Sam=%s)", engine.Name(), voices.Alex.Voice, voices.Sam.Voice)

		ffmpeg := media.NewFFmpeg()
		manim := media.NewManim(ffmpeg)
		store := storage.New(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseStorageBucket)

		pl := pipeline.New(
			pipeline.Config{
				TempDir:        cfg.TempDir,
				MediaOutputDir: cfg.MediaOutputDir,
				RenderMode:     cfg.RenderMode,
			},
			extract.New(),
			generator,
			engine,
			voices,
			ffmpeg,
			manim,
			store,
			database,
			pipeline.NewDBSink(database),
		)

		w, err = worker.New(cfg, database, pl)
		if err != nil {
			log.Fatalf("Failed to create worker: %v", err)
		}
		w.Start()
	}

	go func() {
		log.Printf("API server listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	if w != nil {
		w.Shutdown()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
