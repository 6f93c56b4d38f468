// Package simerr holds the error kinds shared by the simulation packages.
// Callers classify errors with errors.Is against the sentinels below.
package simerr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a game, match, player or stats row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState is returned when an operation does not apply to the current
	// state, e.g. stepping a round that is already finished.
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidInput is returned for malformed attribute sets or unknown match types.
	ErrInvalidInput = errors.New("invalid input")
	// ErrTransient marks conditions the caller should retry later.
	ErrTransient = errors.New("transient")
	// ErrFatal marks unrecoverable configuration problems.
	ErrFatal = errors.New("fatal")

	ErrAtCapacity = fmt.Errorf("%w: scheduler at capacity", ErrTransient)
	ErrPaused     = fmt.Errorf("%w: scheduler paused", ErrTransient)
	// ErrConflict is returned when a concurrent writer already consumed the rows
	// a transaction expected to update.
	ErrConflict = fmt.Errorf("%w: concurrent update", ErrTransient)
)

// Kind returns a short label for the error's kind, suitable for log attributes.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrTransient):
		return "transient"
	case errors.Is(err, ErrFatal):
		return "fatal"
	default:
		return "internal"
	}
}

// NotFound wraps ErrNotFound with the missing entity and its id.
func NotFound(entity string, id int64) error {
	return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
}
