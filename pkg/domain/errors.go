package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned when a TripRequest fails validation.
	ErrInvalidRequest = errors.New("invalid trip request")

	// ErrProviderUnavailable is returned by a search provider that could not answer.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrGeneration is returned when the language model call failed or returned unusable output.
	ErrGeneration = errors.New("generation failed")

	// ErrContextDegraded signals that no information could be gathered for the destination.
	ErrContextDegraded = errors.New("context degraded")

	// ErrDestinationNotFound is returned when the knowledge base has no entry for a destination.
	ErrDestinationNotFound = errors.New("destination not found")

	// ErrBundleNotFound is returned when a session cache has no bundle for a destination.
	ErrBundleNotFound = errors.New("bundle not found")
)

// StageError ties an error to the workflow stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
