package domain

import "errors"

// Common domain errors
var (
	// Prompt errors
	ErrPromptNotFound          = errors.New("prompt not found")
	ErrVersionNotFound         = errors.New("prompt version not found")
	ErrVersionExists           = errors.New("prompt version already exists")
	ErrNoActiveVersion         = errors.New("no active version for prompt")
	ErrEmptyTemplate           = errors.New("template text cannot be empty")
	ErrInvalidStatusTransition = errors.New("invalid prompt version status transition")

	// Dataset errors
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrDatasetEmpty    = errors.New("dataset has no entries")

	// Evaluation errors
	ErrEvaluationNotFound  = errors.New("evaluation run not found")
	ErrImprovementNotFound = errors.New("improvement run not found")
	ErrNoDimensions        = errors.New("no evaluation dimensions requested")

	// Pipeline errors
	ErrExecutionFailed    = errors.New("prompt execution failed")
	ErrJudgeUnavailable   = errors.New("judge backend unavailable")
	ErrGenerationFailed   = errors.New("candidate generation failed")
	ErrPromotionConflict  = errors.New("concurrent promotion conflict")
	ErrImprovementRunning = errors.New("improvement run already in progress")

	// Validation errors
	ErrInvalidID    = errors.New("invalid ID format")
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("resource not found")
)

// DomainError wraps a domain error with additional context
type DomainError struct {
	Err     error
	Message string
}

func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func NewDomainError(err error, message string) *DomainError {
	return &DomainError{
		Err:     err,
		Message: message,
	}
}
