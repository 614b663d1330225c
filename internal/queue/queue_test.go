package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/hibiken/asynq"
)

func TestRetryDelayDoublesPerAttempt(t *testing.T) {
	delay := RetryDelay(5*time.Second, 10*time.Second)
	video := asynq.NewTask(TaskTypeVideo, nil)
	audio := asynq.NewTask(TaskTypeAudio, nil)

	cases := []struct {
		task *asynq.Task
		n    int
		want time.Duration
	}{
		{video, 1, 5 * time.Second},
		{video, 2, 10 * time.Second},
		{video, 3, 20 * time.Second},
		{audio, 1, 10 * time.Second},
		{audio, 2, 20 * time.Second},
		{audio, 3, 40 * time.Second},
		// n=0 is clamped to the base delay
		{video, 0, 5 * time.Second},
	}

	for _, c := range cases {
		if got := delay(c.n, nil, c.task); got != c.want {
			t.Errorf("delay(%s, n=%d) = %v, want %v", c.task.Type(), c.n, got, c.want)
		}
	}
}

func TestParsePayloadRoundTrip(t *testing.T) {
	p := Payload{
		JobID:     "video_abc123def456",
		OwnerID:   "user-1",
		Type:      "video",
		SourceURL: "https://example.com/article",
	}
	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}

	got, err := ParsePayload(asynq.NewTask(TaskTypeVideo, raw))
	if err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	if got.JobID != p.JobID || got.OwnerID != p.OwnerID || got.SourceURL != p.SourceURL {
		t.Errorf("payload mismatch: %+v", got)
	}
}

func TestParsePayloadMalformed(t *testing.T) {
	_, err := ParsePayload(asynq.NewTask(TaskTypeVideo, []byte("not json")))
	if err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
