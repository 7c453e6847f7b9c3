package errors

import (
	"errors"
	"fmt"
)

// This package defines the sentinel errors shared by the client. Services wrap
// them with context (fmt.Errorf("...: %w", err)) and callers, including the
// local API layer, classify failures with errors.Is.

var (
	// ErrNotFound signifies that a session or resource is unknown.
	// Mapped to 404 by the local API.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation signifies that caller input failed a business rule
	// (for example an empty session title).
	// Mapped to 400 by the local API.
	ErrValidation = errors.New("validation failed")

	// ErrConflict signifies that an operation clashes with the current state.
	// Mapped to 409 by the local API.
	ErrConflict = errors.New("resource conflict")

	// ErrInternal is the generic fallback for unexpected failures.
	ErrInternal = errors.New("internal error")

	// ErrSessionUnavailable is returned when the backend did not hand out a
	// usable session identifier. A turn cannot proceed without one.
	ErrSessionUnavailable = errors.New("session could not be created")

	// ErrTransport covers a failed or rejected generation stream.
	ErrTransport = errors.New("stream transport failed")

	// ErrAborted is the cancellation cause used when the user aborts a turn.
	// It is a distinct outcome, not a failure.
	ErrAborted = errors.New("generation aborted")

	// ErrTurnInProgress is returned when a turn is already streaming for the
	// session. It wraps ErrConflict so the API reports 409.
	ErrTurnInProgress = fmt.Errorf("%w: a turn is already in progress for this session", ErrConflict)
)
