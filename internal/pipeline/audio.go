package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/educast/educast/internal/media"
	"github.com/educast/educast/internal/models"
	"github.com/educast/educast/internal/queue"
	"github.com/educast/educast/internal/storage"
)

// RunAudio executes the podcast pipeline for one job: extract, generate a
// two-host dialogue, synthesize every turn, mix, persist. Synthesis is
// all-or-nothing; a single failed turn fails the job so listeners never get
// an episode with holes in the conversation.
func (p *Pipeline) RunAudio(ctx context.Context, job queue.Payload) error {
	log.Printf("[Audio %s] starting (source=%s)", job.JobID, job.SourceURL)

	tempDir := filepath.Join(p.cfg.TempDir, job.JobID)
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			log.Printf("[Audio %s] temp cleanup failed: %v", job.JobID, err)
		}
	}()

	outputDir := filepath.Join(p.cfg.MediaOutputDir, "audio")
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

	// Stage 2: dialogue generation
	p.sink.Report(ctx, job.JobID, StageScripting, 20, "Creating podcast dialogue script with AI...")
	dialogue, err := p.scripts.GenerateDialogue(ctx, content.Title, content.Text, job.Options)
	if err != nil {
		return err
	}
	p.sink.Report(ctx, job.JobID, StageScripting, 35,
		fmt.Sprintf("Script ready: %d dialogue segments", len(dialogue.Dialogue)))

	// Stage 3: synthesis, progress scaled across 40-80%
	p.sink.Report(ctx, job.JobID, StageSynthesizing, 40, "Converting script to speech...")
	segments, err := p.synthesizeTurns(ctx, job.JobID, tempDir, dialogue.Dialogue)
	if err != nil {
		return err
	}

	// Stage 4: mixing
	p.sink.Report(ctx, job.JobID, StageMixing, 85, "Mixing audio into final podcast...")
	audioFilename := fmt.Sprintf("audio_overview_%s.mp3", job.JobID)
	finalPath := filepath.Join(outputDir, audioFilename)
	if err := p.ffmpeg.MixSegments(ctx, segments, tempDir, finalPath); err != nil {
		return err
	}

	duration, err := p.ffmpeg.Duration(ctx, finalPath)
	if err != nil {
		return err
	}

	// Stage 5: upload and persist
	p.sink.Report(ctx, job.JobID, StagePersisting, 95, "Finalizing...")

	audioObject := storage.ObjectPath(job.OwnerID, job.JobID, audioFilename)
	audioURL := ""
	localOnly := false
	sizeBytes, err := p.store.UploadFile(ctx, audioObject, finalPath)
	if err != nil {
		log.Printf("[Audio %s] upload failed, keeping local reference: %v", job.JobID, err)
		if info, statErr := os.Stat(finalPath); statErr == nil {
			sizeBytes = info.Size()
		}
		audioURL = "/audio/" + audioFilename
		localOnly = true
	} else {
		audioURL = p.store.PublicURL(audioObject)
	}

	artifact := &models.Artifact{
		ID:              uuid.NewString(),
		JobID:           job.JobID,
		OwnerID:         job.OwnerID,
		Kind:            models.ArtifactKindAudio,
		Title:           dialogue.Title,
		Description:     dialogue.Description,
		URL:             audioURL,
		DurationSeconds: duration,
		Transcript:      dialogueTranscript(dialogue),
		SourceURL:       job.SourceURL,
		SizeBytes:       sizeBytes,
		LocalOnly:       localOnly,
	}

	if err := p.db.CreateArtifact(ctx, artifact); err != nil {
		return fmt.Errorf("failed to persist artifact: %w", err)
	}
	if err := p.db.MarkJobCompleted(ctx, job.JobID, artifact.ID); err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	if err := p.db.IncrementUserStats(ctx, job.OwnerID, models.JobTypeAudio); err != nil {
		log.Printf("[Audio %s] stats update failed: %v", job.JobID, err)
	}

	p.sink.Report(ctx, job.JobID, StageCompleted, 100, "Audio Overview generated successfully!")
	log.Printf("[Audio %s] completed (%.1fs, %d turns, %s)", job.JobID, duration, len(dialogue.Dialogue), audioURL)
	return nil
}

// synthesizeTurns runs TTS sequentially over every dialogue turn. Progress
// is scaled linearly from 40% to 80% as turns complete.
func (p *Pipeline) synthesizeTurns(ctx context.Context, jobID, tempDir string, turns []models.Turn) ([]media.Segment, error) {
	segments := make([]media.Segment, 0, len(turns))

	for i, turn := range turns {
		outPath := filepath.Join(tempDir, fmt.Sprintf("turn_%03d_%s.mp3", i, turn.Speaker))

		if err := p.tts.Synthesize(ctx, turn.Text, p.voices.ForTurn(turn), outPath); err != nil {
			return nil, err
		}
		segments = append(segments, media.Segment{Path: outPath, Speaker: turn.Speaker})

		percent := 40 + (i+1)*40/len(turns)
		p.sink.Report(ctx, jobID, StageSynthesizing, percent,
			fmt.Sprintf("Generating audio: %d/%d segments", i+1, len(turns)))
	}

	return segments, nil
}

func dialogueTranscript(d *models.DialogueScript) models.JSONB {
	return models.JSONB{
		"dialogue":     d.Dialogue,
		"topics":       d.Topics,
		"keyTakeaways": d.KeyTakeaways,
	}
}
