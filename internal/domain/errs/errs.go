// Package errs holds the error kinds shared by every aggregate. Domain packages
// wrap these with their own sentinels so callers can match either one.
package errs

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrConflict            = errors.New("conflict")
	ErrInvalidInput        = errors.New("invalid input")
	ErrAttemptsExhausted   = errors.New("attempts exhausted")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrInvariant           = errors.New("invariant violated")

	// ErrStaleState is returned when a conditional update lost a race.
	// Callers should re-fetch and retry.
	ErrStaleState = wrap("stale state, refresh and retry", ErrConflict)
)

type kindErr struct {
	msg  string
	kind error
}

func (e *kindErr) Error() string { return e.msg }
func (e *kindErr) Unwrap() error { return e.kind }

func wrap(msg string, kind error) error { return &kindErr{msg: msg, kind: kind} }

// New returns an error with its own message that still matches kind via errors.Is.
func New(msg string, kind error) error { return wrap(msg, kind) }
