package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/educast/educast/internal/models"
)

// IncrementUserStats bumps the lifetime generation counters for an owner.
// The row is created on first use.
func (db *DB) IncrementUserStats(ctx context.Context, ownerID string, jobType models.JobType) error {
	query := `
		INSERT INTO user_stats (owner_id, videos_generated, podcasts_generated)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id) DO UPDATE SET
			videos_generated = user_stats.videos_generated + $2,
			podcasts_generated = user_stats.podcasts_generated + $3,
			updated_at = now()
	`

	videos, podcasts := 0, 0
	if jobType == models.JobTypeVideo {
		videos = 1
	} else {
		podcasts = 1
	}

	if _, err := db.ExecContext(ctx, query, ownerID, videos, podcasts); err != nil {
		return fmt.Errorf("failed to increment user stats: %w", err)
	}
	return nil
}

func (db *DB) GetUserStats(ctx context.Context, ownerID string) (*models.UserStats, error) {
	query := `
		SELECT owner_id, videos_generated, podcasts_generated, updated_at
		FROM user_stats
		WHERE owner_id = $1
	`

	stats := &models.UserStats{OwnerID: ownerID}
	err := db.QueryRowContext(ctx, query, ownerID).Scan(
		&stats.OwnerID, &stats.VideosGenerated, &stats.PodcastsGenerated,
		&stats.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		// Missing row means the owner simply has no completed generations yet
		return stats, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}

	return stats, nil
}
