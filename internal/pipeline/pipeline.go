// Package pipeline runs the staged generation flow that turns a source URL
// into a finished video or podcast artifact.
package pipeline

import (
	"context"

	"github.com/educast/educast/internal/extract"
	"github.com/educast/educast/internal/media"
	"github.com/educast/educast/internal/models"
	"github.com/educast/educast/internal/script"
	"github.com/educast/educast/internal/tts"
)

// Stage names reported through the progress sink, in pipeline order.
const (
	StageExtracting   = "extracting"
	StageScripting    = "scripting"
	StageRendering    = "rendering"
	StageNarrating    = "narrating"
	StageSyncing      = "syncing"
	StageSynthesizing = "synthesizing"
	StageMixing       = "mixing"
	StageUploading    = "uploading"
	StagePersisting   = "persisting"
	StageCompleted    = "completed"
)

// Sink receives progress updates as the pipeline advances. Implementations
// must tolerate failure internally; the pipeline never aborts on a progress
// write.
type Sink interface {
	Report(ctx context.Context, jobID, stage string, percent int, message string)
}

// Extractor pulls title and text out of a source URL.
type Extractor interface {
	FromURL(ctx context.Context, url string) (*extract.Content, error)
}

// MediaTools is the ffmpeg surface the pipeline needs.
type MediaTools interface {
	Duration(ctx context.Context, path string) (float64, error)
	MixSegments(ctx context.Context, segments []media.Segment, tempDir, outPath string) error
	ConcatFiles(ctx context.Context, paths []string, listDir, outPath string, reencodeAudio bool) error
	SyncToAudio(ctx context.Context, videoPath, audioPath, outPath string) error
	Thumbnail(ctx context.Context, videoPath, outPath string) error
}

// Renderer turns a generated scene file into video.
type Renderer interface {
	RenderScene(ctx context.Context, sourcePath, sceneName string) (string, error)
}

// ObjectStore uploads finished files and serves their public URLs.
type ObjectStore interface {
	UploadFile(ctx context.Context, objectPath, localPath string) (int64, error)
	PublicURL(objectPath string) string
}

// JobStore is the database surface the pipeline writes results through.
type JobStore interface {
	CreateArtifact(ctx context.Context, a *models.Artifact) error
	MarkJobCompleted(ctx context.Context, jobID, artifactID string) error
	IncrementUserStats(ctx context.Context, ownerID string, jobType models.JobType) error
}

// Config holds the pipeline's filesystem and mode settings.
type Config struct {
	TempDir        string
	MediaOutputDir string
	RenderMode     string // "perslide" or "combined"
}

// Pipeline wires the stage executors together. One Pipeline serves all jobs;
// per-job state lives on the stack of each run.
type Pipeline struct {
	cfg     Config
	extract Extractor
	scripts script.Generator
	tts     tts.Engine
	voices  tts.Voices
	ffmpeg  MediaTools
	manim   Renderer
	store   ObjectStore
	db      JobStore
	sink    Sink
}

func New(cfg Config, ex Extractor, gen script.Generator, engine tts.Engine, voices tts.Voices,
	ffmpeg MediaTools, manim Renderer, store ObjectStore, db JobStore, sink Sink) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		extract: ex,
		scripts: gen,
		tts:     engine,
		voices:  voices,
		ffmpeg:  ffmpeg,
		manim:   manim,
		store:   store,
		db:      db,
		sink:    sink,
	}
}
