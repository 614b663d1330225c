// Package quota enforces per-user daily generation ceilings backed by Redis.
package quota

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/educast/educast/internal/apperr"
	"github.com/educast/educast/internal/models"
)

// counterTTL keeps counters around past the UTC day boundary so late reads
// still see yesterday's usage, then lets Redis expire them.
const counterTTL = 48 * time.Hour

// Client is the slice of the Redis command set the store uses. Satisfied by
// *redis.Client and by redis.Cmdable.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Decr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd
}

// Store tracks how many generations each owner has used today.
type Store struct {
	rdb        Client
	videoLimit int
	audioLimit int
	nowFunc    func() time.Time
}

func NewStore(rdb Client, videoLimit, audioLimit int) *Store {
	return &Store{
		rdb:        rdb,
		videoLimit: videoLimit,
		audioLimit: audioLimit,
		nowFunc:    time.Now,
	}
}

// Key builds the daily counter key, e.g. "quota:u42:2026-08-28:video".
func Key(ownerID string, day time.Time, jobType models.JobType) string {
	return fmt.Sprintf("quota:%s:%s:%s", ownerID, day.UTC().Format("2006-01-02"), jobType)
}

// Limit returns the daily ceiling for the given job type.
func (s *Store) Limit(jobType models.JobType) int {
	if jobType == models.JobTypeVideo {
		return s.videoLimit
	}
	return s.audioLimit
}

// Used returns today's consumed count for the owner.
func (s *Store) Used(ctx context.Context, ownerID string, jobType models.JobType) (int, error) {
	val, err := s.rdb.Get(ctx, Key(ownerID, s.nowFunc(), jobType)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read quota counter: %w", err)
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("malformed quota counter %q: %w", val, err)
	}
	return n, nil
}

// Consume checks the ceiling and records one use. The read and increment are
// separate commands, so two near-simultaneous submissions can both pass the
// check; the window is accepted because the ceiling is a soft product limit,
// not a billing boundary.
func (s *Store) Consume(ctx context.Context, ownerID string, jobType models.JobType) error {
	used, err := s.Used(ctx, ownerID, jobType)
	if err != nil {
		return err
	}

	limit := s.Limit(jobType)
	if used >= limit {
		return apperr.New(apperr.KindRateLimit,
			"daily %s limit reached (%d/%d); resets at midnight UTC", jobType, used, limit)
	}

	key := Key(ownerID, s.nowFunc(), jobType)
	if err := s.rdb.Incr(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to increment quota counter: %w", err)
	}
	if err := s.rdb.Expire(ctx, key, counterTTL).Err(); err != nil {
		return fmt.Errorf("failed to set quota TTL: %w", err)
	}

	return nil
}

// Refund gives back one use when a submission errors after Consume, before
// the job is accepted (the enqueue itself failed). Accepted jobs keep their
// use regardless of outcome. The counter never goes below zero.
func (s *Store) Refund(ctx context.Context, ownerID string, jobType models.JobType) error {
	key := Key(ownerID, s.nowFunc(), jobType)
	n, err := s.rdb.Decr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to refund quota: %w", err)
	}
	if n < 0 {
		return s.rdb.Set(ctx, key, 0, counterTTL).Err()
	}
	return nil
}

// Remaining reports today's unused budget for the status endpoint.
func (s *Store) Remaining(ctx context.Context, ownerID string, jobType models.JobType) (int, error) {
	used, err := s.Used(ctx, ownerID, jobType)
	if err != nil {
		return 0, err
	}
	remaining := s.Limit(jobType) - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
