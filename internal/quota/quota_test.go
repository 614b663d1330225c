package quota

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/educast/educast/internal/apperr"
	"github.com/educast/educast/internal/models"
)

// fakeRedis backs the store with a map so counter behavior can be tested
// without a server.
type fakeRedis struct {
	values map[string]int64
	incrs  int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]int64{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	n, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(strconv.FormatInt(n, 10), nil)
}

func (f *fakeRedis) Incr(ctx context.Context, key string) *redis.IntCmd {
	f.values[key]++
	f.incrs++
	return redis.NewIntResult(f.values[key], nil)
}

func (f *fakeRedis) Decr(ctx context.Context, key string) *redis.IntCmd {
	f.values[key]--
	return redis.NewIntResult(f.values[key], nil)
}

func (f *fakeRedis) Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	n, _ := value.(int)
	f.values[key] = int64(n)
	return redis.NewStatusResult("OK", nil)
}

func TestKey(t *testing.T) {
	day := time.Date(2026, 8, 28, 23, 59, 0, 0, time.UTC)
	got := Key("u42", day, models.JobTypeVideo)
	if got != "quota:u42:2026-08-28:video" {
		t.Errorf("Key = %q", got)
	}
}

func TestKeyUsesUTCDay(t *testing.T) {
	// 02:00 at UTC+5 is still the previous UTC day; 23:00 at UTC-5 is
	// already the next one.
	east := time.FixedZone("east", 5*3600)
	west := time.FixedZone("west", -5*3600)

	a := Key("u", time.Date(2026, 8, 28, 2, 0, 0, 0, east), models.JobTypeAudio)
	if a != "quota:u:2026-08-27:audio" {
		t.Errorf("expected UTC rollback for eastern offset, got %q", a)
	}

	b := Key("u", time.Date(2026, 8, 28, 23, 0, 0, 0, west), models.JobTypeAudio)
	if b != "quota:u:2026-08-29:audio" {
		t.Errorf("expected UTC rollover for western offset, got %q", b)
	}
}

func TestConsumeEnforcesCeiling(t *testing.T) {
	rdb := newFakeRedis()
	s := NewStore(rdb, 2, 5)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := s.Consume(ctx, "u1", models.JobTypeVideo); err != nil {
			t.Fatalf("Consume %d failed: %v", i+1, err)
		}
	}

	// Third submission of the day must be rejected without touching the
	// counter.
	err := s.Consume(ctx, "u1", models.JobTypeVideo)
	if err == nil {
		t.Fatal("expected rate limit error at ceiling")
	}
	if apperr.KindOf(err) != apperr.KindRateLimit {
		t.Errorf("expected KindRateLimit, got %s", apperr.KindOf(err))
	}
	if rdb.incrs != 2 {
		t.Errorf("expected 2 increments, got %d", rdb.incrs)
	}

	used, err := s.Used(ctx, "u1", models.JobTypeVideo)
	if err != nil {
		t.Fatalf("Used failed: %v", err)
	}
	if used != 2 {
		t.Errorf("used = %d, want 2", used)
	}
}

func TestConsumeCountsTypesSeparately(t *testing.T) {
	rdb := newFakeRedis()
	s := NewStore(rdb, 1, 1)

	ctx := context.Background()
	if err := s.Consume(ctx, "u1", models.JobTypeVideo); err != nil {
		t.Fatalf("video Consume failed: %v", err)
	}
	if err := s.Consume(ctx, "u1", models.JobTypeAudio); err != nil {
		t.Errorf("audio Consume should not share the video counter: %v", err)
	}
	if err := s.Consume(ctx, "u2", models.JobTypeVideo); err != nil {
		t.Errorf("another owner should have an independent counter: %v", err)
	}
}

func TestRefundFloorsAtZero(t *testing.T) {
	rdb := newFakeRedis()
	s := NewStore(rdb, 3, 3)
	ctx := context.Background()

	if err := s.Consume(ctx, "u1", models.JobTypeAudio); err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if err := s.Refund(ctx, "u1", models.JobTypeAudio); err != nil {
		t.Fatalf("Refund failed: %v", err)
	}
	if used, _ := s.Used(ctx, "u1", models.JobTypeAudio); used != 0 {
		t.Errorf("used after refund = %d, want 0", used)
	}

	// Refunding with nothing consumed must not go negative.
	if err := s.Refund(ctx, "u1", models.JobTypeAudio); err != nil {
		t.Fatalf("Refund failed: %v", err)
	}
	if used, _ := s.Used(ctx, "u1", models.JobTypeAudio); used != 0 {
		t.Errorf("used after over-refund = %d, want 0", used)
	}
}

func TestRemaining(t *testing.T) {
	rdb := newFakeRedis()
	s := NewStore(rdb, 3, 5)
	ctx := context.Background()

	if err := s.Consume(ctx, "u1", models.JobTypeVideo); err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	left, err := s.Remaining(ctx, "u1", models.JobTypeVideo)
	if err != nil {
		t.Fatalf("Remaining failed: %v", err)
	}
	if left != 2 {
		t.Errorf("remaining = %d, want 2", left)
	}
}

func TestLimitPerType(t *testing.T) {
	s := NewStore(nil, 3, 5)
	if got := s.Limit(models.JobTypeVideo); got != 3 {
		t.Errorf("video limit = %d", got)
	}
	if got := s.Limit(models.JobTypeAudio); got != 5 {
		t.Errorf("audio limit = %d", got)
	}
}
