// Package worker runs the asynq server that processes generation jobs.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/educast/educast/internal/apperr"
	"github.com/educast/educast/internal/config"
	"github.com/educast/educast/internal/db"
	"github.com/educast/educast/internal/models"
	"github.com/educast/educast/internal/pipeline"
	"github.com/educast/educast/internal/queue"
)

// Worker consumes generation tasks and drives the pipeline. Each task runs
// under the timeout set at enqueue time; retries restart the whole pipeline
// from extraction.
type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	db       *db.DB
	pipeline *pipeline.Pipeline
}

func New(cfg *config.Config, database *db.DB, pl *pipeline.Pipeline) (*Worker, error) {
	opt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency:    cfg.WorkerConcurrency,
		RetryDelayFunc: queue.RetryDelay(cfg.VideoBackoffBase, cfg.AudioBackoffBase),
		Queues: map[string]int{
			"default": 1,
		},
	})

	w := &Worker{
		server:   server,
		mux:      asynq.NewServeMux(),
		db:       database,
		pipeline: pl,
	}

	w.mux.HandleFunc(queue.TaskTypeVideo, w.handleVideo)
	w.mux.HandleFunc(queue.TaskTypeAudio, w.handleAudio)

	return w, nil
}

// Start runs the server in the background.
func (w *Worker) Start() {
	go func() {
		if err := w.server.Run(w.mux); err != nil && !errors.Is(err, asynq.ErrServerClosed) {
			log.Printf("[Worker] server stopped with error: %v", err)
		}
	}()
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func (w *Worker) handleVideo(ctx context.Context, t *asynq.Task) error {
	return w.handle(ctx, t, w.pipeline.RunVideo)
}

func (w *Worker) handleAudio(ctx context.Context, t *asynq.Task) error {
	return w.handle(ctx, t, w.pipeline.RunAudio)
}

func (w *Worker) handle(ctx context.Context, t *asynq.Task, run func(context.Context, queue.Payload) error) error {
	payload, err := queue.ParsePayload(t)
	if err != nil {
		// A malformed payload can never succeed; don't retry it
		log.Printf("[Worker] dropping malformed task: %v", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	// The dequeue can race a cancellation: a job cancelled after this task
	// was picked up must not run.
	job, err := w.db.GetJob(ctx, payload.JobID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			log.Printf("[Worker] job %s no longer exists, skipping", payload.JobID)
			return fmt.Errorf("job missing: %w", asynq.SkipRetry)
		}
		return err
	}
	if job.Status == models.JobStatusCancelled {
		log.Printf("[Worker] job %s was cancelled, skipping", payload.JobID)
		return nil
	}
	if job.Status.Terminal() {
		log.Printf("[Worker] job %s already %s, skipping", payload.JobID, job.Status)
		return nil
	}

	runErr := run(ctx, payload)
	if runErr == nil {
		return nil
	}

	message := failureMessage(runErr)
	log.Printf("[Worker] job %s attempt failed: %s", payload.JobID, message)

	if isFinalAttempt(ctx) {
		// Mark with a background context; the task context may already be
		// expired when the failure was a timeout.
		markCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := w.db.MarkJobFailed(markCtx, payload.JobID, message); err != nil {
			log.Printf("[Worker] failed to mark job %s failed: %v", payload.JobID, err)
		}
	}

	return runErr
}

func isFinalAttempt(ctx context.Context) bool {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	return retried >= maxRetry
}

// failureMessage renders the terminal error text stored on the job record.
func failureMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "job timed out"
	}
	return apperr.UserMessage(err)
}
