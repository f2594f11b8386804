package orchestrator

import "errors"

var (
	// ErrMatcherRequired indicates no matching pipeline was supplied.
	ErrMatcherRequired = errors.New("matcher required")

	// ErrExecutorRequired indicates no batch executor was supplied.
	ErrExecutorRequired = errors.New("batch executor required")

	// ErrRegistryRequired indicates no session registry was supplied.
	ErrRegistryRequired = errors.New("session registry required")

	// ErrSessionCompleted indicates a run was requested on a finished session.
	ErrSessionCompleted = errors.New("session already completed")

	// ErrSessionClosed indicates the session was cleaned up.
	ErrSessionClosed = errors.New("session closed")

	// ErrRunPanicked wraps a panic recovered from a run.
	ErrRunPanicked = errors.New("run panicked")
)
