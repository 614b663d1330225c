package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/educast/educast/internal/apperr"
	"github.com/educast/educast/internal/config"
	"github.com/educast/educast/internal/models"
	"github.com/educast/educast/internal/quota"
	"github.com/educast/educast/internal/tts"
)

func TestAPIKeyAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := APIKeyAuth("secret-key")(next)

	cases := []struct {
		name   string
		header func(*http.Request)
		want   int
	}{
		{"missing key", func(r *http.Request) {}, http.StatusUnauthorized},
		{"wrong key", func(r *http.Request) { r.Header.Set("X-API-Key", "nope") }, http.StatusForbidden},
		{"valid header key", func(r *http.Request) { r.Header.Set("X-API-Key", "secret-key") }, http.StatusOK},
		{"valid bearer key", func(r *http.Request) { r.Header.Set("Authorization", "Bearer secret-key") }, http.StatusOK},
		{"wrong bearer key", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusForbidden},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/jobs", nil)
			c.header(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != c.want {
				t.Errorf("expected status %d, got %d", c.want, rec.Code)
			}
		})
	}
}

func TestRespondAppErrorStatusMapping(t *testing.T) {
	cases := []struct {
		kind apperr.Kind
		want int
	}{
		{apperr.KindValidation, http.StatusBadRequest},
		{apperr.KindRateLimit, http.StatusTooManyRequests},
		{apperr.KindNotFound, http.StatusNotFound},
		{apperr.KindForbidden, http.StatusForbidden},
		{apperr.KindQueue, http.StatusConflict},
		{apperr.KindInvalidState, http.StatusConflict},
		{apperr.KindUnavailable, http.StatusServiceUnavailable},
		{apperr.KindExtraction, http.StatusInternalServerError},
		{apperr.KindInternal, http.StatusInternalServerError},
	}

	for _, c := range cases {
		rec := httptest.NewRecorder()
		respondAppError(rec, apperr.New(c.kind, "boom"))
		if rec.Code != c.want {
			t.Errorf("kind %s: expected status %d, got %d", c.kind, c.want, rec.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("kind %s: invalid JSON body: %v", c.kind, err)
		}
		if body["error"] != "boom" {
			t.Errorf("kind %s: unexpected error body %q", c.kind, body["error"])
		}
	}
}

// countingRedis serves a fixed used-count and records increments, enough to
// drive the quota store in handler tests.
type countingRedis struct {
	used  int
	incrs int
}

func (c *countingRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	return redis.NewStringResult(strconv.Itoa(c.used), nil)
}

func (c *countingRedis) Incr(ctx context.Context, key string) *redis.IntCmd {
	c.incrs++
	return redis.NewIntResult(int64(c.used+c.incrs), nil)
}

func (c *countingRedis) Decr(ctx context.Context, key string) *redis.IntCmd {
	return redis.NewIntResult(int64(c.used), nil)
}

func (c *countingRedis) Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	return redis.NewBoolResult(true, nil)
}

func (c *countingRedis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	return redis.NewStatusResult("OK", nil)
}

func TestSubmitJobRejectsAtQuotaCeiling(t *testing.T) {
	// With the day's counter at the ceiling the handler must answer 429
	// before touching the database or the queue; both are nil here, so any
	// attempt to create or enqueue a job would panic the test.
	rdb := &countingRedis{used: 3}
	h := NewHandler(&config.Config{}, nil, nil, quota.NewStore(rdb, 3, 5), tts.NewVoices("", "", ""))

	body := `{"owner_id": "u1", "url": "https://example.com/article", "type": "video"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/jobs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.SubmitJob(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d: %s", rec.Code, rec.Body.String())
	}
	if rdb.incrs != 0 {
		t.Errorf("counter must not advance on a rejected submission, got %d increments", rdb.incrs)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if !strings.Contains(resp["error"], "limit") {
		t.Errorf("expected a limit message, got %q", resp["error"])
	}
}

func TestListArtifactsValidation(t *testing.T) {
	// Both rejections happen before any storage access.
	h := NewHandler(&config.Config{}, nil, nil, nil, tts.NewVoices("", "", ""))

	rec := httptest.NewRecorder()
	h.ListArtifacts(rec, httptest.NewRequest(http.MethodGet, "/v1/artifacts", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without owner_id, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ListArtifacts(rec, httptest.NewRequest(http.MethodGet, "/v1/artifacts?owner_id=u1&kind=movie", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown kind, got %d", rec.Code)
	}
}

func TestGetUserStatsRequiresOwner(t *testing.T) {
	h := NewHandler(&config.Config{}, nil, nil, nil, tts.NewVoices("", "", ""))

	rec := httptest.NewRecorder()
	h.GetUserStats(rec, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without owner_id, got %d", rec.Code)
	}
}

func TestEstimateFor(t *testing.T) {
	if estimateFor(models.JobTypeVideo) != "3-5 minutes" {
		t.Error("unexpected video estimate")
	}
	if estimateFor(models.JobTypeAudio) != "2-4 minutes" {
		t.Error("unexpected audio estimate")
	}
}

func TestOptionsJSONB(t *testing.T) {
	got := optionsJSONB(models.GenerationOptions{TargetAudience: "beginners", Tone: "casual"})
	if got["target_audience"] != "beginners" || got["tone"] != "casual" {
		t.Errorf("unexpected options: %v", got)
	}
	if _, ok := got["focus_area"]; ok {
		t.Error("empty fields should be omitted")
	}

	if len(optionsJSONB(models.GenerationOptions{})) != 0 {
		t.Error("expected empty JSONB for zero options")
	}
}
