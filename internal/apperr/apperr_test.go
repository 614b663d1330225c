package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := New(KindRateLimit, "daily limit reached")
	if KindOf(err) != KindRateLimit {
		t.Errorf("expected KindRateLimit, got %s", KindOf(err))
	}

	plain := errors.New("boom")
	if KindOf(plain) != KindInternal {
		t.Errorf("expected KindInternal for plain error, got %s", KindOf(plain))
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := New(KindExtraction, "insufficient content")
	wrapped := fmt.Errorf("stage failed: %w", inner)

	if KindOf(wrapped) != KindExtraction {
		t.Errorf("expected KindExtraction through fmt.Errorf wrap, got %s", KindOf(wrapped))
	}
	if !Is(wrapped, KindExtraction) {
		t.Error("expected Is to match through wrapping")
	}
	if Is(wrapped, KindTimeout) {
		t.Error("expected Is to reject a different kind")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(KindUpload, nil, "should vanish") != nil {
		t.Error("expected Wrap(nil) to return nil")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindQueue, cause, "enqueue failed")

	if !errors.Is(err, cause) {
		t.Error("expected wrapped error to match its cause")
	}
	if KindOf(err) != KindQueue {
		t.Errorf("expected KindQueue, got %s", KindOf(err))
	}
}

func TestUserMessage(t *testing.T) {
	err := New(KindValidation, "invalid URL format")
	if UserMessage(err) != "invalid URL format" {
		t.Errorf("unexpected message: %s", UserMessage(err))
	}

	wrapped := Wrap(KindGeneration, errors.New("status 500"), "openai request failed")
	if UserMessage(wrapped) != "openai request failed: status 500" {
		t.Errorf("expected message with cause, got %s", UserMessage(wrapped))
	}

	// Error() keeps the kind prefix, UserMessage drops it
	if err.Error() != "validation: invalid URL format" {
		t.Errorf("unexpected Error() format: %s", err.Error())
	}
}
