package batch

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrInvalidBatchSize is returned when the batch size is < 1.
	ErrInvalidBatchSize = errors.New("batch size must be at least 1")

	// ErrInvalidConcurrency is returned when the pool size or concurrency limit is < 1.
	ErrInvalidConcurrency = errors.New("concurrency must be at least 1")

	// ErrPanic wraps a panic recovered from an item function.
	ErrPanic = errors.New("item function panicked")
)
