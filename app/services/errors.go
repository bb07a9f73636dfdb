package services

import (
	"fmt"
	"time"

	"socialpost/app/repositories"
)

// ErrNotFound is returned when a post or product does not exist.
var ErrNotFound = repositories.ErrNotFound

// ValidationError reports a request that failed input checks.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InsufficientCreditsError is returned when a generation cannot be paid for.
type InsufficientCreditsError struct {
	Balance  int
	Required int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: have %d, need %d", e.Balance, e.Required)
}

// GenerationFailure wraps an error raised by the content generator.
type GenerationFailure struct {
	RequestID string
	ProductID string
	Err       error
}

func (e *GenerationFailure) Error() string {
	return fmt.Sprintf("generation %s for product %s failed: %v", e.RequestID, e.ProductID, e.Err)
}

func (e *GenerationFailure) Unwrap() error { return e.Err }

// SchedulingConflict is returned when a post cannot move to the requested status.
type SchedulingConflict struct {
	PostID int
	Status string
	Event  string
	At     *time.Time
}

func (e *SchedulingConflict) Error() string {
	return fmt.Sprintf("post %d: cannot %s while %s", e.PostID, e.Event, e.Status)
}

// ConflictError is returned when an update was based on a stale version.
type ConflictError struct {
	PostID   int
	Expected int
	Actual   int
}

func (e *ConflictError) Error() string {
	if e.Expected == 0 {
		return fmt.Sprintf("post %d was modified concurrently", e.PostID)
	}
	return fmt.Sprintf("post %d version mismatch: expected %d, stored %d", e.PostID, e.Expected, e.Actual)
}
