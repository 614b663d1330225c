// Package apperr defines the error taxonomy shared by the Job API and the
// generation pipeline. Every stage failure is wrapped with a Kind so the job
// record (and the API caller polling it) gets an actionable message instead
// of a generic failure.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation   Kind = "validation"    // bad URL/options, user-correctable
	KindRateLimit    Kind = "rate_limit"    // daily quota exceeded
	KindNotFound     Kind = "not_found"     // unknown job
	KindForbidden    Kind = "forbidden"     // ownership boundary
	KindInvalidState Kind = "invalid_state" // e.g. cancelling a finished job
	KindExtraction   Kind = "extraction"    // unreachable URL / insufficient content
	KindGeneration   Kind = "generation"    // AI output malformed
	KindToolchain    Kind = "toolchain"     // TTS/render/mux subprocess failure
	KindTimeout      Kind = "timeout"       // stage or job exceeded its bound
	KindUpload       Kind = "upload"        // storage upload failed (recoverable)
	KindQueue        Kind = "queue"         // duplicate job id
	KindUnavailable  Kind = "unavailable"   // queue backend unreachable, retriable
	KindInternal     Kind = "internal"
)

// Error carries a kind, a human-readable message, and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a kind and message. Returns nil if err is nil.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from an error chain. Unclassified errors are
// reported as KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err (or anything it wraps) carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// UserMessage returns the message (plus cause, if any) without the kind
// prefix, suitable for storing on the job record.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Message
	}
	return err.Error()
}
