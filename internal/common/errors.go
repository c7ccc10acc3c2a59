package common

import (
	"errors"
	"fmt"
)

// Business logic errors
var (
	// Edition errors
	ErrEditionNotFound  = errors.New("edition not found")
	ErrCategoryNotFound = errors.New("category not found")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
)

// Stage names the pipeline step an ingestion failure belongs to
type Stage string

const (
	StageValidation  Stage = "validation"
	StageNotFound    Stage = "not_found"
	StageStorage     Stage = "storage"
	StageConversion  Stage = "conversion"
	StageThumbnail   Stage = "thumbnail"
	StagePersistence Stage = "persistence"
)

// IngestError is the structured failure of an edition operation.
// Reason is safe to show to the client; Err carries the internal cause for logs.
type IngestError struct {
	Stage  Stage
	Reason string
	Err    error
}

func (e *IngestError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Reason, e.Err)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// NewValidationError reports bad input detected before any side effect
func NewValidationError(reason string) *IngestError {
	return &IngestError{Stage: StageValidation, Reason: reason, Err: ErrInvalidInput}
}

// NewStageError wraps an internal failure of the given stage
func NewStageError(stage Stage, reason string, err error) *IngestError {
	return &IngestError{Stage: stage, Reason: reason, Err: err}
}

// StageOf returns the stage of an IngestError, or "" for any other error
func StageOf(err error) Stage {
	var ie *IngestError
	if errors.As(err, &ie) {
		return ie.Stage
	}
	return ""
}

// ReasonOf returns the client-safe reason of an IngestError
func ReasonOf(err error) string {
	var ie *IngestError
	if errors.As(err, &ie) {
		return ie.Reason
	}
	return "Internal server error"
}
