package qdrant

import "errors"

var (
	// ErrInvalidConfig is returned when the store configuration is invalid.
	ErrInvalidConfig = errors.New("invalid qdrant config")

	// ErrEmbedderRequired is returned when no embedder is provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrClientRequired is returned when no client is provided.
	ErrClientRequired = errors.New("qdrant client required")
)
