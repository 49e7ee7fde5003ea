package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// Error represents a failed evaluation.
//
// Errors include:
//   - Checkpoint I/O: a chunk or accumulator could not be written or read
//   - Invalid config: a Config field is out of bounds
//   - Cancelled: the context was cancelled before the job finished
//   - Evaluation: a term could not be integrated
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Op names the pipeline step that failed.
	Op string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes pipeline errors.
type ErrorCode string

const (
	// ErrCodeCheckpointIO indicates a checkpoint store failure.
	ErrCodeCheckpointIO ErrorCode = "CHECKPOINT_IO"

	// ErrCodeInvalidConfig indicates a Config outside its bounds.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"

	// ErrCodeCancelled indicates the context ended before completion.
	ErrCodeCancelled ErrorCode = "CANCELLED"

	// ErrCodeEvaluation indicates a term the folding steps could not handle.
	ErrCodeEvaluation ErrorCode = "EVALUATION"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Op, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsCheckpointError returns true if the error is a checkpoint I/O failure.
// Uses errors.As to handle wrapped errors.
func IsCheckpointError(err error) bool {
	return hasCode(err, ErrCodeCheckpointIO)
}

// IsConfigError returns true if the error is an invalid configuration.
func IsConfigError(err error) bool {
	return hasCode(err, ErrCodeInvalidConfig)
}

// IsCancelled returns true if the job was cancelled.
func IsCancelled(err error) bool {
	return hasCode(err, ErrCodeCancelled)
}

func hasCode(err error, code ErrorCode) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

// checkpointError wraps a store failure. Context errors surfacing through
// the store are reported as cancellation.
func checkpointError(op string, err error) error {
	if isContextError(err) {
		return cancelledError(op, err)
	}
	return &Error{Code: ErrCodeCheckpointIO, Op: op, Err: err}
}

func cancelledError(op string, err error) error {
	return &Error{Code: ErrCodeCancelled, Op: op, Err: err}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
