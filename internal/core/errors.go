package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrAdmissionDenied       = errors.New("admission denied")
	ErrAllProvidersExhausted = errors.New("all providers exhausted")
	ErrAttemptTimeout        = errors.New("attempt timed out")
	ErrStorageFault          = errors.New("storage fault")
	ErrSummarization         = errors.New("summarization failed")
	ErrInvalidRequest        = errors.New("invalid request")
	ErrNotFound              = errors.New("not found")
	ErrUnauthorized          = errors.New("unauthorized")
)

// AdmissionError carries the ledger's denial. Indefinite means the identity is blocked.
type AdmissionError struct {
	Reason     string
	RetryAfter time.Duration
	Indefinite bool
}

func (e *AdmissionError) Error() string {
	if e.Indefinite {
		return fmt.Sprintf("%s: %s", ErrAdmissionDenied, e.Reason)
	}
	return fmt.Sprintf("%s: %s, retry in %d min", ErrAdmissionDenied, e.Reason, e.RetryAfterMinutes())
}

func (e *AdmissionError) Unwrap() error {
	return ErrAdmissionDenied
}

// RetryAfterMinutes rounds the wait up to whole minutes.
func (e *AdmissionError) RetryAfterMinutes() int64 {
	return CeilMinutes(e.RetryAfter)
}

func CeilMinutes(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Minute - 1) / time.Minute)
}

type AttemptFailure struct {
	Model   string
	Err     error
	Elapsed time.Duration
}

// DispatchError is returned when every candidate failed.
type DispatchError struct {
	Attempts []AttemptFailure
}

func (e *DispatchError) Error() string {
	if len(e.Attempts) == 0 {
		return ErrAllProvidersExhausted.Error() + ": no candidates attempted"
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Model, a.Err))
	}
	return fmt.Sprintf("%s: %s", ErrAllProvidersExhausted, strings.Join(parts, "; "))
}

func (e *DispatchError) Unwrap() error {
	return ErrAllProvidersExhausted
}
