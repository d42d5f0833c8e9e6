// Package errors defines the pipeline error taxonomy: sentinel errors for
// the fatal conditions, an AppError wrapper carrying a process exit code,
// and the mapping from errors to exit codes used by the binaries.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedLexicon marks a structural parse failure of the lexical
	// source. Fatal: the run cannot continue without an ancestry graph.
	ErrMalformedLexicon = errors.New("malformed lexicon")
	// ErrInsufficientPopulation marks a sample request against an empty
	// animacy class. Fatal for that class only.
	ErrInsufficientPopulation = errors.New("insufficient population")
	// ErrInvalidInput marks bad configuration or unusable input files.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStoreUnavailable marks a failed connection to an optional backend
	// (Postgres, Redis).
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrInternal marks everything else.
	ErrInternal = errors.New("internal error")
)

// Exit codes reported by the pipeline binaries.
const (
	ExitOK               = 0
	ExitInvalidInput     = 2
	ExitMalformedLexicon = 3
	ExitEmptyPopulation  = 4
	ExitStoreUnavailable = 5
	ExitInternal         = 1
)

// AppError wraps a sentinel error with a human-readable message and an
// explicit exit code.
type AppError struct {
	Err      error
	Message  string
	ExitCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New builds an AppError around a sentinel.
func New(sentinel error, exitCode int, message string) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  message,
		ExitCode: exitCode,
	}
}

// Newf builds an AppError with a formatted message.
func Newf(sentinel error, exitCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  fmt.Sprintf(format, args...),
		ExitCode: exitCode,
	}
}

// ExitCode maps an error to the process exit code a binary should use.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return ExitInvalidInput
	case errors.Is(err, ErrMalformedLexicon):
		return ExitMalformedLexicon
	case errors.Is(err, ErrInsufficientPopulation):
		return ExitEmptyPopulation
	case errors.Is(err, ErrStoreUnavailable):
		return ExitStoreUnavailable
	default:
		return ExitInternal
	}
}
