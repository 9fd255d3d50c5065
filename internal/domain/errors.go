package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks a curation call rejected before any write.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTopicNotFound is returned when no topic has the requested id.
	ErrTopicNotFound = errors.New("topic not found")

	// ErrSourceUnavailable wraps network, timeout and decode failures of one source.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrGenerationFailed is returned when a draft cannot be produced.
	ErrGenerationFailed = errors.New("draft generation failed")
)

// ValidationError describes which field of a request was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
