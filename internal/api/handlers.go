package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"os/exec"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/educast/educast/internal/apperr"
	"github.com/educast/educast/internal/config"
	"github.com/educast/educast/internal/db"
	"github.com/educast/educast/internal/models"
	"github.com/educast/educast/internal/queue"
	"github.com/educast/educast/internal/quota"
	"github.com/educast/educast/internal/tts"
)

type Handler struct {
	cfg      *config.Config
	db       *db.DB
	queue    *queue.Queue
	quota    *quota.Store
	voices   tts.Voices
	validate *validator.Validate
}

func NewHandler(cfg *config.Config, database *db.DB, q *queue.Queue, quotaStore *quota.Store, voices tts.Voices) *Handler {
	return &Handler{
		cfg:      cfg,
		db:       database,
		queue:    q,
		quota:    quotaStore,
		voices:   voices,
		validate: validator.New(),
	}
}

// SubmitJob handles POST /v1/jobs. Validation, quota, and queue errors are
// returned synchronously; everything after enqueue is reported through job
// status.
func (h *Handler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if req.Options != nil {
		if err := h.validate.Struct(req.Options); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid options: "+err.Error())
			return
		}
	}

	parsed, err := url.Parse(req.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		respondError(w, http.StatusBadRequest, "Invalid URL format")
		return
	}

	// Quota check consumes one use up front; the use is spent once the job
	// is accepted, whatever happens to it afterwards.
	if err := h.quota.Consume(r.Context(), req.OwnerID, req.Type); err != nil {
		respondAppError(w, err)
		return
	}

	options := models.GenerationOptions{}
	if req.Options != nil {
		options = *req.Options
	}

	job := &models.Job{
		ID:        models.NewJobID(req.Type),
		OwnerID:   req.OwnerID,
		Type:      req.Type,
		SourceURL: req.URL,
		Options:   optionsJSONB(options),
		Status:    models.JobStatusQueued,
		Progress:  models.Progress{Stage: "queued", Percentage: 0, Message: "Waiting in queue..."},
	}

	if err := h.db.CreateJob(r.Context(), job); err != nil {
		if refundErr := h.quota.Refund(r.Context(), req.OwnerID, req.Type); refundErr != nil {
			log.Printf("[API] quota refund failed for %s: %v", job.ID, refundErr)
		}
		respondError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}

	if err := h.queue.Enqueue(r.Context(), queue.Payload{
		JobID:     job.ID,
		OwnerID:   job.OwnerID,
		Type:      job.Type,
		SourceURL: job.SourceURL,
		Options:   options,
	}, h.queueOptionsFor(req.Type)); err != nil {
		// The row exists but the task never made it to the queue; the job
		// must read as failed, not sit queued forever.
		if markErr := h.db.MarkJobFailed(r.Context(), job.ID, "failed to queue job"); markErr != nil {
			log.Printf("[API] failed to mark unqueued job %s failed: %v", job.ID, markErr)
		}
		if refundErr := h.quota.Refund(r.Context(), req.OwnerID, req.Type); refundErr != nil {
			log.Printf("[API] quota refund failed for %s: %v", job.ID, refundErr)
		}
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, models.SubmitJobResponse{
		JobID:         job.ID,
		Status:        job.Status,
		EstimatedTime: estimateFor(req.Type),
	})
}

// GetJob handles GET /v1/jobs/{id}?owner_id=. Requesting someone else's job
// returns 403 rather than 404 so owners can distinguish the two.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		respondError(w, http.StatusBadRequest, "owner_id query parameter is required")
		return
	}

	job, err := h.db.GetJob(r.Context(), jobID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if job.OwnerID != ownerID {
		respondError(w, http.StatusForbidden, "Job belongs to another user")
		return
	}

	resp := models.JobStatusResponse{
		JobID:       job.ID,
		Status:      job.Status,
		Progress:    job.Progress,
		SourceURL:   job.SourceURL,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
	}

	if job.Status == models.JobStatusCompleted && job.ArtifactID != nil {
		artifact, err := h.db.GetArtifact(r.Context(), *job.ArtifactID)
		if err == nil {
			resp.Artifact = artifact
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// CancelJob handles DELETE /v1/jobs/{id}?owner_id=. Queued jobs are removed
// from the queue and guaranteed never to run; processing jobs only have the
// record flipped, and the worker already running them may still finish and
// overwrite it. Finished jobs return 409.
func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		respondError(w, http.StatusBadRequest, "owner_id query parameter is required")
		return
	}

	job, err := h.db.GetJob(r.Context(), jobID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if job.OwnerID != ownerID {
		respondError(w, http.StatusForbidden, "Job belongs to another user")
		return
	}

	prev, cancelled, err := h.db.CancelJob(r.Context(), jobID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to cancel job")
		return
	}
	if !cancelled {
		respondAppError(w, apperr.New(apperr.KindInvalidState,
			"job already finished (current status: %s)", job.Status))
		return
	}

	if prev == models.JobStatusQueued {
		// Best effort: the task may already be gone from the queue, in
		// which case the worker-side status check stops it from running.
		// The quota use stays spent: the counter tracks accepted
		// submissions, not outcomes.
		if err := h.queue.Remove(jobID); err != nil && !apperr.Is(err, apperr.KindNotFound) {
			respondError(w, http.StatusInternalServerError, "Failed to remove job from queue")
			return
		}
	}

	respondJSON(w, http.StatusOK, models.CancelJobResponse{JobID: jobID, Status: models.JobStatusCancelled})
}

// ListJobs handles GET /v1/jobs?owner_id=&limit=.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		respondError(w, http.StatusBadRequest, "owner_id query parameter is required")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = n
	}

	jobs, err := h.db.ListJobsByOwner(r.Context(), ownerID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	respondJSON(w, http.StatusOK, models.ListJobsResponse{Jobs: jobs, Count: len(jobs)})
}

// ListArtifacts handles GET /v1/artifacts?owner_id=&kind=. Kind is optional;
// empty returns videos and audio overviews together.
func (h *Handler) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		respondError(w, http.StatusBadRequest, "owner_id query parameter is required")
		return
	}

	kind := models.ArtifactKind(r.URL.Query().Get("kind"))
	if kind != "" && kind != models.ArtifactKindVideo && kind != models.ArtifactKindAudio {
		respondError(w, http.StatusBadRequest, "kind must be video or audio")
		return
	}

	artifacts, err := h.db.ListArtifactsByOwner(r.Context(), ownerID, kind)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list artifacts")
		return
	}

	summaries := make([]models.ArtifactSummary, 0, len(artifacts))
	for _, a := range artifacts {
		summaries = append(summaries, models.ArtifactSummary{
			Artifact: a,
			Duration: models.FormatDuration(a.DurationSeconds),
		})
	}

	respondJSON(w, http.StatusOK, models.ListArtifactsResponse{Artifacts: summaries, Count: len(summaries)})
}

// GetUserStats handles GET /v1/stats?owner_id=, returning lifetime generation
// counts alongside today's remaining quota per job type.
func (h *Handler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		respondError(w, http.StatusBadRequest, "owner_id query parameter is required")
		return
	}

	stats, err := h.db.GetUserStats(r.Context(), ownerID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load user stats")
		return
	}

	videoLeft, err := h.quota.Remaining(r.Context(), ownerID, models.JobTypeVideo)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to read quota")
		return
	}
	audioLeft, err := h.quota.Remaining(r.Context(), ownerID, models.JobTypeAudio)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to read quota")
		return
	}

	respondJSON(w, http.StatusOK, models.UserStatsResponse{
		Stats:          *stats,
		VideoRemaining: videoLeft,
		AudioRemaining: audioLeft,
	})
}

// ListVoices handles GET /v1/voices, exposing the host voice lineup.
func (h *Handler) ListVoices(w http.ResponseWriter, r *http.Request) {
	type voiceInfo struct {
		Name        string `json:"name"`
		Voice       string `json:"voice"`
		Description string `json:"description"`
	}

	respondJSON(w, http.StatusOK, map[string][]voiceInfo{
		"voices": {
			{Name: h.voices.Alex.Name, Voice: h.voices.Alex.Voice, Description: "Enthusiastic host, asks great questions"},
			{Name: h.voices.Sam.Name, Voice: h.voices.Sam.Voice, Description: "Knowledgeable host, explains clearly"},
			{Name: h.voices.Narrator.Name, Voice: h.voices.Narrator.Voice, Description: "Video narration voice"},
		},
	})
}

// Health handles GET /health, probing the database, queue, and media tools.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok", "database": "ok", "queue": "ok"}
	code := http.StatusOK

	if err := h.db.Healthy(ctx); err != nil {
		status["status"] = "degraded"
		status["database"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	if err := h.queue.Healthy(ctx); err != nil {
		status["status"] = "degraded"
		status["queue"] = err.Error()
		code = http.StatusServiceUnavailable
	}

	// Media tool availability is informational: the API can accept jobs
	// even when this instance cannot render them itself.
	for _, tool := range []string{"ffmpeg", "ffprobe", "python"} {
		if _, err := exec.LookPath(tool); err != nil {
			status[tool] = "not found"
		} else {
			status[tool] = "ok"
		}
	}

	respondJSON(w, code, status)
}

func (h *Handler) queueOptionsFor(t models.JobType) queue.Options {
	if t == models.JobTypeVideo {
		return queue.Options{
			Timeout:     h.cfg.VideoJobTimeout,
			MaxAttempts: h.cfg.VideoMaxAttempts,
		}
	}
	return queue.Options{
		Timeout:     h.cfg.AudioJobTimeout,
		MaxAttempts: h.cfg.AudioMaxAttempts,
	}
}

func estimateFor(t models.JobType) string {
	if t == models.JobTypeVideo {
		return "3-5 minutes"
	}
	return "2-4 minutes"
}

func optionsJSONB(opts models.GenerationOptions) models.JSONB {
	out := models.JSONB{}
	if opts.TargetAudience != "" {
		out["target_audience"] = opts.TargetAudience
	}
	if opts.Tone != "" {
		out["tone"] = opts.Tone
	}
	if opts.FocusArea != "" {
		out["focus_area"] = opts.FocusArea
	}
	if opts.Duration != "" {
		out["duration"] = opts.Duration
	}
	return out
}

// respondAppError maps the error taxonomy onto HTTP status codes.
func respondAppError(w http.ResponseWriter, err error) {
	message := apperr.UserMessage(err)

	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		respondError(w, http.StatusBadRequest, message)
	case apperr.KindRateLimit:
		respondError(w, http.StatusTooManyRequests, message)
	case apperr.KindNotFound:
		respondError(w, http.StatusNotFound, message)
	case apperr.KindForbidden:
		respondError(w, http.StatusForbidden, message)
	case apperr.KindInvalidState, apperr.KindQueue:
		respondError(w, http.StatusConflict, message)
	case apperr.KindUnavailable:
		respondError(w, http.StatusServiceUnavailable, message)
	default:
		respondError(w, http.StatusInternalServerError, message)
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
