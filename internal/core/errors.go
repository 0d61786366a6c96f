package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a pipeline failure so the executor can aggregate
// outcomes instead of inspecting error strings.
type ErrorKind string

const (
	// KindValidation: bad input at the dispatch boundary. No state mutated.
	KindValidation ErrorKind = "validation"
	// KindConflict: an active job already exists for the bot.
	KindConflict ErrorKind = "conflict"
	// KindContent: terminal for the source (too short, unsupported type).
	// Not retried automatically.
	KindContent ErrorKind = "content"
	// KindTransient: network/storage/data-store failure. Retried only if the
	// queue redelivers the message.
	KindTransient ErrorKind = "transient"
	// KindFatal: job or source row missing; aborts the whole message.
	KindFatal ErrorKind = "fatal"
)

// PipelineError carries a classification and a human-readable message that is
// persisted onto the source or job row.
type PipelineError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// NewError builds a PipelineError without an underlying cause.
func NewError(kind ErrorKind, message string) *PipelineError {
	return &PipelineError{Kind: kind, Message: message}
}

// WrapError builds a PipelineError around an underlying cause.
func WrapError(kind ErrorKind, message string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the classification from err. Unclassified errors are
// treated as transient: infra failures are the common unclassified case.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindTransient
}

// MessageOf returns the user-facing message for err, falling back to the raw
// error text.
func MessageOf(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return err.Error()
}
