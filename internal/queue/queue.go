// Package queue wraps the Redis-backed task queue for generation jobs.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/educast/educast/internal/apperr"
	"github.com/educast/educast/internal/models"
)

const (
	// TaskTypeVideo and TaskTypeAudio name the asynq task types routed to
	// the worker handlers.
	TaskTypeVideo = "media:video"
	TaskTypeAudio = "media:audio"
)

// Payload is the task body carried through Redis. It holds everything a
// worker needs to run the job without re-reading the submit request.
type Payload struct {
	JobID     string                   `json:"job_id"`
	OwnerID   string                   `json:"owner_id"`
	Type      models.JobType           `json:"type"`
	SourceURL string                   `json:"source_url"`
	Options   models.GenerationOptions `json:"options"`
}

// Options control per-job-type queueing behavior. Retry backoff is a server
// policy, configured once through RetryDelay.
type Options struct {
	Timeout     time.Duration
	MaxAttempts int
}

// Queue enqueues and removes generation tasks.
type Queue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

func New(redisURL string) (*Queue, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	return &Queue{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
	}, nil
}

// Enqueue places a job on the queue. The task id is the job id, so a
// duplicate submission of the same job id is rejected rather than queued
// twice.
func (q *Queue) Enqueue(ctx context.Context, p Payload, opts Options) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal task payload: %w", err)
	}

	taskType := TaskTypeVideo
	if p.Type == models.JobTypeAudio {
		taskType = TaskTypeAudio
	}

	task := asynq.NewTask(taskType, body)
	_, err = q.client.EnqueueContext(ctx, task,
		asynq.TaskID(p.JobID),
		asynq.Timeout(opts.Timeout),
		asynq.MaxRetry(opts.MaxAttempts-1),
		asynq.Retention(24*time.Hour),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return apperr.New(apperr.KindQueue, "job %s is already queued", p.JobID)
	}
	if err != nil {
		return apperr.Wrap(apperr.KindUnavailable, err, "failed to enqueue job %s", p.JobID)
	}

	log.Printf("[Queue] enqueued %s (%s, timeout %s, attempts %d)",
		p.JobID, taskType, opts.Timeout, opts.MaxAttempts)
	return nil
}

// Remove deletes a queued task. Returns KindNotFound when the task is no
// longer in the queue, which callers treat as "too late to cancel".
func (q *Queue) Remove(jobID string) error {
	err := q.inspector.DeleteTask("default", jobID)
	if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return apperr.New(apperr.KindNotFound, "job %s not found in queue", jobID)
	}
	if err != nil {
		return apperr.Wrap(apperr.KindUnavailable, err, "failed to remove job %s", jobID)
	}

	log.Printf("[Queue] removed %s", jobID)
	return nil
}

// Healthy probes the queue's Redis connection.
func (q *Queue) Healthy(ctx context.Context) error {
	_, err := q.inspector.Queues()
	return err
}

func (q *Queue) Close() error {
	q.client.Close()
	return q.inspector.Close()
}

// RetryDelay implements whole-job exponential backoff: base, 2*base,
// 4*base, with a per-type base. asynq counts n from 1 for the first retry.
func RetryDelay(videoBase, audioBase time.Duration) asynq.RetryDelayFunc {
	return func(n int, _ error, t *asynq.Task) time.Duration {
		base := videoBase
		if t.Type() == TaskTypeAudio {
			base = audioBase
		}
		if n < 1 {
			n = 1
		}
		return base * time.Duration(1<<(n-1))
	}
}

func ParsePayload(t *asynq.Task) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return Payload{}, fmt.Errorf("failed to unmarshal task payload: %w", err)
	}
	return p, nil
}
