package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/educast/educast/internal/media"
	"github.com/educast/educast/internal/models"
	"github.com/educast/educast/internal/queue"
	"github.com/educast/educast/internal/storage"
)

// RunVideo executes the full video pipeline for one job. Any stage error
// aborts the run; retries restart from extraction with fresh state. Temp
// files are removed whether the run succeeds or fails.
func (p *Pipeline) RunVideo(ctx context.Context, job queue.Payload) error {
	log.Printf("[Video %s] starting (source=%s)", job.JobID, job.SourceURL)

	tempDir := filepath.Join(p.cfg.TempDir, job.JobID)
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			log.Printf("[Video %s] temp cleanup failed: %v", job.JobID, err)
		}
	}()

	outputDir := filepath.Join(p.cfg.MediaOutputDir, "videos")
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	// Stage 1: extraction
	p.sink.Report(ctx, job.JobID, StageExtracting, 5, "Extracting content from URL...")
	content, err := p.extract.FromURL(ctx, job.SourceURL)
	if err != nil {
		return err
	}
	p.sink.Report(ctx, job.JobID, StageExtracting, 15, "Content extracted successfully")

	// Stage 2: script generation
	p.sink.Report(ctx, job.JobID, StageScripting, 20, "Generating video script with AI...")
	script, err := p.scripts.GenerateVideoScript(ctx, content.Title, content.Text, job.Options)
	if err != nil {
		return err
	}
	p.sink.Report(ctx, job.JobID, StageScripting, 30,
		fmt.Sprintf("Script ready: %d slides", len(script.Slides)))

	// Stage 3: scene rendering
	p.sink.Report(ctx, job.JobID, StageRendering, 35, "Creating animated visualizations...")
	scenePath := filepath.Join(tempDir, fmt.Sprintf("video_%s.py", job.JobID))
	if err := os.WriteFile(scenePath, []byte(media.GenerateManimSource(script, job.JobID)), 0644); err != nil {
		return fmt.Errorf("failed to write scene file: %w", err)
	}

	slideVideos, perSlide := p.renderSlides(ctx, job.JobID, scenePath, len(script.Slides))
	if !perSlide {
		combined, err := p.manim.RenderScene(ctx, scenePath, media.CombinedSceneName)
		if err != nil {
			return err
		}
		slideVideos = []string{combined}
	}
	p.sink.Report(ctx, job.JobID, StageRendering, 55, "Animations rendered successfully")

	// Stage 4: narration
	p.sink.Report(ctx, job.JobID, StageNarrating, 60, "Generating AI narration...")
	slideAudios, err := p.narrate(ctx, tempDir, script.Slides, perSlide)
	if err != nil {
		return err
	}
	p.sink.Report(ctx, job.JobID, StageNarrating, 75, "Narration generated successfully")

	// Stage 5: sync and mux
	p.sink.Report(ctx, job.JobID, StageSyncing, 80, "Synchronizing video and audio...")
	videoFilename := fmt.Sprintf("video_%s.mp4", job.JobID)
	finalPath := filepath.Join(outputDir, videoFilename)

	if perSlide {
		if err := p.syncPerSlide(ctx, tempDir, slideVideos, slideAudios, finalPath); err != nil {
			return err
		}
	} else {
		// One whole-video sync: the combined render is padded or trimmed
		// to the full narration once.
		if err := p.ffmpeg.SyncToAudio(ctx, slideVideos[0], slideAudios[0], finalPath); err != nil {
			return err
		}
	}

	thumbFilename := fmt.Sprintf("thumb_%s.jpg", job.JobID)
	thumbPath := filepath.Join(outputDir, thumbFilename)
	if err := p.ffmpeg.Thumbnail(ctx, finalPath, thumbPath); err != nil {
		log.Printf("[Video %s] thumbnail generation failed: %v", job.JobID, err)
		thumbPath = ""
	}

	duration, err := p.ffmpeg.Duration(ctx, finalPath)
	if err != nil {
		return err
	}

	// Stage 6: upload, degrading to local references on failure
	p.sink.Report(ctx, job.JobID, StageUploading, 90, "Uploading to cloud storage...")
	videoURL, thumbURL, sizeBytes, localOnly := p.uploadVideo(ctx, job, finalPath, thumbPath, videoFilename, thumbFilename)

	// Stage 7: persist
	p.sink.Report(ctx, job.JobID, StagePersisting, 95, "Saving to database...")
	artifact := &models.Artifact{
		ID:              uuid.NewString(),
		JobID:           job.JobID,
		OwnerID:         job.OwnerID,
		Kind:            models.ArtifactKindVideo,
		Title:           script.Title,
		Description:     script.Description,
		URL:             videoURL,
		DurationSeconds: duration,
		Transcript:      slidesTranscript(script.Slides),
		SourceURL:       job.SourceURL,
		SizeBytes:       sizeBytes,
		LocalOnly:       localOnly,
	}
	if thumbURL != "" {
		artifact.ThumbnailURL = &thumbURL
	}

	if err := p.db.CreateArtifact(ctx, artifact); err != nil {
		return fmt.Errorf("failed to persist artifact: %w", err)
	}
	if err := p.db.MarkJobCompleted(ctx, job.JobID, artifact.ID); err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	if err := p.db.IncrementUserStats(ctx, job.OwnerID, models.JobTypeVideo); err != nil {
		log.Printf("[Video %s] stats update failed: %v", job.JobID, err)
	}

	p.sink.Report(ctx, job.JobID, StageCompleted, 100, "Video generated successfully!")
	log.Printf("[Video %s] completed (%.1fs, %s)", job.JobID, duration, videoURL)
	return nil
}

// renderSlides attempts per-slide rendering. Returns (videos, true) only if
// every slide rendered; otherwise the caller falls back to the combined
// scene.
func (p *Pipeline) renderSlides(ctx context.Context, jobID, scenePath string, slideCount int) ([]string, bool) {
	if p.cfg.RenderMode != "perslide" {
		return nil, false
	}

	videos := make([]string, 0, slideCount)
	for i := 0; i < slideCount; i++ {
		out, err := p.manim.RenderScene(ctx, scenePath, media.SceneName(i))
		if err != nil {
			log.Printf("[Video %s] slide %d render failed, falling back to combined mode: %v", jobID, i, err)
			return nil, false
		}
		videos = append(videos, out)
	}
	return videos, true
}

// narrate synthesizes narration with the narrator voice: one file per slide
// in per-slide mode, one concatenated track otherwise.
func (p *Pipeline) narrate(ctx context.Context, tempDir string, slides []models.Slide, perSlide bool) ([]string, error) {
	audios := make([]string, 0, len(slides))
	for i, slide := range slides {
		outPath := filepath.Join(tempDir, fmt.Sprintf("narration_%d.mp3", i))

		text := slide.Narration
		if text == "" {
			text = slide.Heading
		}

		if err := p.tts.Synthesize(ctx, text, p.voices.Narrator, outPath); err != nil {
			return nil, err
		}
		audios = append(audios, outPath)
	}

	if perSlide {
		return audios, nil
	}

	combined := filepath.Join(tempDir, "full_narration.mp3")
	if err := p.ffmpeg.ConcatFiles(ctx, audios, tempDir, combined, true); err != nil {
		return nil, err
	}
	return []string{combined}, nil
}

// syncPerSlide pads or trims each slide video to its narration, then
// concatenates the synced slides into the final video.
func (p *Pipeline) syncPerSlide(ctx context.Context, tempDir string, videos, audios []string, outPath string) error {
	syncedDir := filepath.Join(tempDir, "synced")
	if err := os.MkdirAll(syncedDir, 0755); err != nil {
		return fmt.Errorf("failed to create sync dir: %w", err)
	}

	synced := make([]string, 0, len(videos))
	for i := range videos {
		dst := filepath.Join(syncedDir, fmt.Sprintf("slide_%d_synced.mp4", i))
		if err := p.ffmpeg.SyncToAudio(ctx, videos[i], audios[i], dst); err != nil {
			return err
		}
		synced = append(synced, dst)
	}

	return p.ffmpeg.ConcatFiles(ctx, synced, syncedDir, outPath, false)
}

// uploadVideo uploads the video and thumbnail concurrently. Upload failure
// is not fatal: the artifact keeps local file references instead.
func (p *Pipeline) uploadVideo(ctx context.Context, job queue.Payload, videoPath, thumbPath, videoFilename, thumbFilename string) (videoURL, thumbURL string, sizeBytes int64, localOnly bool) {
	videoObject := storage.ObjectPath(job.OwnerID, job.JobID, videoFilename)
	thumbObject := storage.ObjectPath(job.OwnerID, job.JobID, thumbFilename)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := p.store.UploadFile(gctx, videoObject, videoPath)
		sizeBytes = n
		return err
	})
	if thumbPath != "" {
		g.Go(func() error {
			_, err := p.store.UploadFile(gctx, thumbObject, thumbPath)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		log.Printf("[Video %s] upload failed, keeping local references: %v", job.JobID, err)
		if info, statErr := os.Stat(videoPath); statErr == nil {
			sizeBytes = info.Size()
		}
		thumbURL = ""
		if thumbPath != "" {
			thumbURL = "/videos/" + thumbFilename
		}
		return "/videos/" + videoFilename, thumbURL, sizeBytes, true
	}

	thumbURL = ""
	if thumbPath != "" {
		thumbURL = p.store.PublicURL(thumbObject)
	}
	return p.store.PublicURL(videoObject), thumbURL, sizeBytes, false
}

func slidesTranscript(slides []models.Slide) models.JSONB {
	return models.JSONB{"slides": slides}
}
