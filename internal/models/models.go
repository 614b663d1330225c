package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Enums

type JobType string

const (
	JobTypeVideo JobType = "video"
	JobTypeAudio JobType = "audio"
)

type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Terminal reports whether a status is final — no further transitions allowed.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

type ArtifactKind string

const (
	ArtifactKindVideo ArtifactKind = "video"
	ArtifactKindAudio ArtifactKind = "audio"
)

// JSONB is a custom type for PostgreSQL JSONB columns
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// Progress is the per-stage progress snapshot stored on the job record.
// Percentage is non-decreasing while the job is processing.
type Progress struct {
	Stage      string `json:"stage"`
	Percentage int    `json:"percentage"`
	Message    string `json:"message"`
}

func (p Progress) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *Progress) Scan(value interface{}) error {
	if value == nil {
		*p = Progress{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, p)
}

// Models

// Job is one request to produce a video or audio artifact from a source URL.
// IDs are caller-visible and prefixed by type, e.g. "video_1f2e3d4c5b6a".
type Job struct {
	ID          string     `json:"job_id"`
	OwnerID     string     `json:"owner_id"`
	Type        JobType    `json:"type"`
	SourceURL   string     `json:"source_url"`
	Options     JSONB      `json:"options,omitempty"`
	Status      JobStatus  `json:"status"`
	Progress    Progress   `json:"progress"`
	ArtifactID  *string    `json:"artifact_id,omitempty"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewJobID builds a job id like "audio_9b1deb4d3b7d". The 12-hex suffix
// comes from a fresh UUID, so resubmitting the same URL always yields a
// distinct job.
func NewJobID(t JobType) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s_%s", t, raw[:12])
}

// Slide is one unit of a video Script. Order is canonical playback order.
type Slide struct {
	SlideNumber       int      `json:"slideNumber"`
	Heading           string   `json:"heading"`
	Narration         string   `json:"narration"`
	VisualDescription string   `json:"visualDescription"`
	VisualType        string   `json:"visualType"`
	BulletPoints      []string `json:"bulletPoints"`
	Duration          int      `json:"duration"` // seconds
}

// Script is the structured output of video script generation.
type Script struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Slides        []Slide `json:"slides"`
	TotalDuration string  `json:"totalDuration"`
	Category      string  `json:"category"`
}

// Turn is one unit of a DialogueScript.
type Turn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	Emotion string `json:"emotion,omitempty"`
}

// DialogueScript is the structured output of podcast dialogue generation.
type DialogueScript struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Dialogue          []Turn   `json:"dialogue"`
	Topics            []string `json:"topics,omitempty"`
	EstimatedDuration string   `json:"estimatedDuration,omitempty"`
	KeyTakeaways      []string `json:"keyTakeaways,omitempty"`
}

// Artifact is the final persisted media object for a completed job.
// Created only on pipeline success; never mutated afterward.
type Artifact struct {
	ID              string       `json:"id"`
	JobID           string       `json:"job_id"`
	OwnerID         string       `json:"owner_id"`
	Kind            ArtifactKind `json:"kind"`
	Title           string       `json:"title"`
	Description     string       `json:"description,omitempty"`
	URL             string       `json:"url"`
	ThumbnailURL    *string      `json:"thumbnail_url,omitempty"`
	DurationSeconds float64      `json:"duration_seconds"`
	Transcript      JSONB        `json:"transcript,omitempty"` // dialogue turns for audio
	SourceURL       string       `json:"source_url"`
	SizeBytes       int64        `json:"size_bytes,omitempty"`
	LocalOnly       bool         `json:"local_only,omitempty"` // upload failed, file kept on disk
	CreatedAt       time.Time    `json:"created_at"`
}

// UserStats tracks lifetime generation counts per owner.
type UserStats struct {
	OwnerID           string    `json:"owner_id"`
	VideosGenerated   int       `json:"videos_generated"`
	PodcastsGenerated int       `json:"podcasts_generated"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// GenerationOptions are the caller-supplied knobs for script/dialogue
// generation. All fields optional; zero values mean defaults.
type GenerationOptions struct {
	TargetAudience string `json:"target_audience,omitempty" validate:"omitempty,max=120"`
	Tone           string `json:"tone,omitempty" validate:"omitempty,max=120"`
	FocusArea      string `json:"focus_area,omitempty" validate:"omitempty,max=300"`
	Duration       string `json:"duration,omitempty" validate:"omitempty,max=40"`
}

// DTOs for the Job API

type SubmitJobRequest struct {
	OwnerID string             `json:"owner_id" validate:"required,max=64"`
	URL     string             `json:"url" validate:"required,max=2048"`
	Type    JobType            `json:"type" validate:"required,oneof=video audio"`
	Options *GenerationOptions `json:"options,omitempty"`
}

type SubmitJobResponse struct {
	JobID         string    `json:"job_id"`
	Status        JobStatus `json:"status"`
	EstimatedTime string    `json:"estimated_time"`
}

type JobStatusResponse struct {
	JobID       string     `json:"job_id"`
	Status      JobStatus  `json:"status"`
	Progress    Progress   `json:"progress"`
	SourceURL   string     `json:"source_url"`
	Error       *string    `json:"error,omitempty"`
	Artifact    *Artifact  `json:"artifact,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type ListJobsResponse struct {
	Jobs  []Job `json:"jobs"`
	Count int   `json:"count"`
}

type CancelJobResponse struct {
	JobID  string    `json:"job_id"`
	Status JobStatus `json:"status"`
}

// ArtifactSummary is an Artifact with the duration pre-formatted for display.
type ArtifactSummary struct {
	Artifact
	Duration string `json:"duration"`
}

type ListArtifactsResponse struct {
	Artifacts []ArtifactSummary `json:"artifacts"`
	Count     int               `json:"count"`
}

// UserStatsResponse combines lifetime counters with today's unused quota.
type UserStatsResponse struct {
	Stats          UserStats `json:"stats"`
	VideoRemaining int       `json:"video_remaining_today"`
	AudioRemaining int       `json:"audio_remaining_today"`
}

// FormatDuration renders seconds as M:SS for display fields.
func FormatDuration(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
