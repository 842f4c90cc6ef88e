// Package apperr defines the error kinds surfaced by the classification service.
//
// KindInvalidInput covers a missing file, an empty filename, a disallowed
// extension, an unknown variant and too few images for a series. It maps to 400.
//
// KindModelUnavailable means the requested variant's model is missing or failed
// to load. It maps to 503 and never stops the process.
//
// KindProcessingFailure covers decode errors, channel or shape mismatches during
// preprocessing and inference runtime errors. It maps to 500.
//
// Anything else is a plain error wrapped with fmt.Errorf and %w.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindModelUnavailable
	KindProcessingFailure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "InvalidInput"
	case KindModelUnavailable:
		return "ModelUnavailable"
	case KindProcessingFailure:
		return "ProcessingFailure"
	default:
		return "Unknown"
	}
}

// Error is a classified error. Err, when set, is the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// ErrInsufficientInput is returned when a series has fewer than two usable images.
var ErrInsufficientInput = &Error{
	Kind:    KindInvalidInput,
	Message: "at least 2 images required for time-series analysis",
}

// Invalid creates an InvalidInput error.
func Invalid(msg string) error { return &Error{Kind: KindInvalidInput, Message: msg} }

// Invalidf creates a formatted InvalidInput error.
func Invalidf(format string, args ...any) error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// Unavailable creates a ModelUnavailable error for the named variant.
func Unavailable(variant string, cause error) error {
	return &Error{Kind: KindModelUnavailable, Message: fmt.Sprintf("model %q not loaded", variant), Err: cause}
}

// Processing wraps cause as a ProcessingFailure.
func Processing(msg string, cause error) error {
	return &Error{Kind: KindProcessingFailure, Message: msg, Err: cause}
}

// Processingf creates a formatted ProcessingFailure without an underlying cause.
func Processingf(format string, args ...any) error {
	return &Error{Kind: KindProcessingFailure, Message: fmt.Sprintf(format, args...)}
}

// KindOf reports the Kind of err, or KindUnknown if err is not (and does not wrap) an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
