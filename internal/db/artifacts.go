package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/educast/educast/internal/apperr"
	"github.com/educast/educast/internal/models"
)

func (db *DB) CreateArtifact(ctx context.Context, a *models.Artifact) error {
	query := `
		INSERT INTO artifacts (
			id, job_id, owner_id, kind, title, description, url,
			thumbnail_url, duration_seconds, transcript, source_url,
			size_bytes, local_only
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at
	`

	return db.QueryRowContext(
		ctx, query,
		a.ID, a.JobID, a.OwnerID, a.Kind, a.Title, a.Description, a.URL,
		a.ThumbnailURL, a.DurationSeconds, a.Transcript, a.SourceURL,
		a.SizeBytes, a.LocalOnly,
	).Scan(&a.CreatedAt)
}

func (db *DB) GetArtifact(ctx context.Context, id string) (*models.Artifact, error) {
	query := `
		SELECT
			id, job_id, owner_id, kind, title, description, url,
			thumbnail_url, duration_seconds, transcript, source_url,
			size_bytes, local_only, created_at
		FROM artifacts
		WHERE id = $1
	`

	a := &models.Artifact{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.JobID, &a.OwnerID, &a.Kind, &a.Title, &a.Description,
		&a.URL, &a.ThumbnailURL, &a.DurationSeconds, &a.Transcript,
		&a.SourceURL, &a.SizeBytes, &a.LocalOnly, &a.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperr.New(apperr.KindNotFound, "artifact not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}

	return a, nil
}

func (db *DB) ListArtifactsByOwner(ctx context.Context, ownerID string, kind models.ArtifactKind) ([]models.Artifact, error) {
	query := `
		SELECT
			id, job_id, owner_id, kind, title, description, url,
			thumbnail_url, duration_seconds, transcript, source_url,
			size_bytes, local_only, created_at
		FROM artifacts
		WHERE owner_id = $1 AND ($2 = '' OR kind = $2)
		ORDER BY created_at DESC
	`

	rows, err := db.QueryContext(ctx, query, ownerID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to query artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []models.Artifact
	for rows.Next() {
		var a models.Artifact
		if err := rows.Scan(
			&a.ID, &a.JobID, &a.OwnerID, &a.Kind, &a.Title, &a.Description,
			&a.URL, &a.ThumbnailURL, &a.DurationSeconds, &a.Transcript,
			&a.SourceURL, &a.SizeBytes, &a.LocalOnly, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		artifacts = append(artifacts, a)
	}

	return artifacts, rows.Err()
}
