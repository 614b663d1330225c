package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/educast/educast/internal/apperr"
	"github.com/educast/educast/internal/models"
)

func (db *DB) CreateJob(ctx context.Context, job *models.Job) error {
	query := `
		INSERT INTO jobs (
			id, owner_id, type, source_url, options, status, progress
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	return db.QueryRowContext(
		ctx, query,
		job.ID, job.OwnerID, job.Type, job.SourceURL,
		job.Options, job.Status, job.Progress,
	).Scan(&job.CreatedAt)
}

func (db *DB) GetJob(ctx context.Context, id string) (*models.Job, error) {
	query := `
		SELECT
			id, owner_id, type, source_url, options, status, progress,
			artifact_id, error_message, created_at, completed_at
		FROM jobs
		WHERE id = $1
	`

	job := &models.Job{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&job.ID, &job.OwnerID, &job.Type, &job.SourceURL, &job.Options,
		&job.Status, &job.Progress, &job.ArtifactID, &job.Error,
		&job.CreatedAt, &job.CompletedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperr.New(apperr.KindNotFound, "job not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return job, nil
}

func (db *DB) ListJobsByOwner(ctx context.Context, ownerID string, limit int) ([]models.Job, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT
			id, owner_id, type, source_url, options, status, progress,
			artifact_id, error_message, created_at, completed_at
		FROM jobs
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := db.QueryContext(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []models.Job
	for rows.Next() {
		var job models.Job
		if err := rows.Scan(
			&job.ID, &job.OwnerID, &job.Type, &job.SourceURL, &job.Options,
			&job.Status, &job.Progress, &job.ArtifactID, &job.Error,
			&job.CreatedAt, &job.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

// UpdateJobProgress writes the current stage marker. Status moves to
// processing on the first progress write for a queued job.
func (db *DB) UpdateJobProgress(ctx context.Context, id string, progress models.Progress) error {
	query := `
		UPDATE jobs
		SET progress = $2,
		    status = CASE WHEN status = 'queued' THEN 'processing' ELSE status END
		WHERE id = $1
	`

	_, err := db.ExecContext(ctx, query, id, progress)
	if err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}
	return nil
}

// MarkJobCompleted finalizes a successful job with its artifact reference.
func (db *DB) MarkJobCompleted(ctx context.Context, id, artifactID string) error {
	query := `
		UPDATE jobs
		SET status = 'completed', artifact_id = $2, completed_at = $3,
		    progress = jsonb_set(progress, '{percentage}', '100')
		WHERE id = $1
	`

	_, err := db.ExecContext(ctx, query, id, artifactID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}
	return nil
}

// MarkJobFailed records the terminal failure message once retries are exhausted.
func (db *DB) MarkJobFailed(ctx context.Context, id, message string) error {
	query := `
		UPDATE jobs
		SET status = 'failed', error_message = $2, completed_at = $3
		WHERE id = $1
	`

	_, err := db.ExecContext(ctx, query, id, message, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	return nil
}

// CancelJob transitions a queued or processing job to cancelled and returns
// the status the job had before the update. Terminal jobs are left untouched
// and reported as not cancelled. Cancelling a processing job only flips the
// record; the worker already running it is not interrupted and may still
// overwrite the status when it finishes.
func (db *DB) CancelJob(ctx context.Context, id string) (models.JobStatus, bool, error) {
	query := `
		UPDATE jobs j
		SET status = 'cancelled', completed_at = $2
		FROM (SELECT id, status FROM jobs WHERE id = $1 FOR UPDATE) prev
		WHERE j.id = prev.id AND prev.status IN ('queued', 'processing')
		RETURNING prev.status
	`

	var prev models.JobStatus
	err := db.QueryRowContext(ctx, query, id, time.Now().UTC()).Scan(&prev)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to cancel job: %w", err)
	}
	return prev, true, nil
}
