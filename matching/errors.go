package matching

import "errors"

var (
	// ErrPoolSourceRequired indicates neither a record source nor a vector
	// search was supplied.
	ErrPoolSourceRequired = errors.New("record source or vector search required")

	// ErrInvalidWeights indicates weights that are negative or do not sum to 1.
	ErrInvalidWeights = errors.New("invalid weights")

	// ErrInvalidMaxRetries indicates a retry count below 1.
	ErrInvalidMaxRetries = errors.New("max retries must be at least 1")

	// ErrPoolUnavailable indicates the pool could not be listed.
	ErrPoolUnavailable = errors.New("record pool unavailable")

	// ErrQueryNotFound indicates the query entity could not be resolved.
	ErrQueryNotFound = errors.New("query entity not found")
)

// ValidationError records a relevance-service entry that was discarded.
// Index is the entry's position in the service's reply.
type ValidationError struct {
	Index int
	Err   error
}

func (e *ValidationError) Error() string {
	return "discarded ranked entry: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
