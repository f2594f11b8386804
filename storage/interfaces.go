package storage

import (
	"context"

	"github.com/poiesic/talentmatch/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// RecordRepository stores candidate and project records with their embeddings.
type RecordRepository interface {
	Repository

	// AddRecords inserts or replaces records. Records without an ID get a
	// content-derived one. InsertedAt is preserved on replace; UpdatedAt is
	// always refreshed. Returns the records with IDs and timestamps populated.
	AddRecords(ctx context.Context, records ...*Record) ([]*Record, error)

	// GetRecord retrieves a single record.
	// Returns ErrNotFound if the record doesn't exist.
	GetRecord(ctx context.Context, kind core.Kind, id string) (*Record, error)

	// GetRecords retrieves multiple records by ID.
	// Returns only the records that exist (no error for missing records).
	GetRecords(ctx context.Context, kind core.Kind, ids ...string) ([]*Record, error)

	// ListRecords returns every record of a kind in key order.
	ListRecords(ctx context.Context, kind core.Kind) ([]*Record, error)

	// DeleteRecords removes records by ID.
	// Returns ErrNotFound if any record doesn't exist.
	DeleteRecords(ctx context.Context, kind core.Kind, ids ...string) error

	// FindSimilar finds records of a kind similar to the given vector.
	// Returns records with similarity >= minSimilarity, up to limit results,
	// ordered by similarity (highest first).
	FindSimilar(ctx context.Context, kind core.Kind, vector []float32, minSimilarity float32, limit int) ([]*SearchResult, error)
}

// MatchRepository keeps the latest ranked results per query.
type MatchRepository interface {
	Repository
	PersistenceSink

	// GetMatches returns the results last saved for a query.
	// Returns ErrNotFound if nothing was saved.
	GetMatches(ctx context.Context, queryID string) ([]core.MatchResult, error)
}

// RecordSource lists the pool a match request ranks against.
type RecordSource interface {
	Candidates(ctx context.Context) ([]*core.Candidate, error)
	Projects(ctx context.Context) ([]*core.Project, error)

	// Candidate and Project return ErrNotFound for unknown IDs.
	Candidate(ctx context.Context, id string) (*core.Candidate, error)
	Project(ctx context.Context, id string) (*core.Project, error)
}

// VectorSearch finds pool records similar to a free-text query.
// An empty query returns the unrestricted pool (subject to filters) with
// zero similarity. Implementations must be safe for concurrent use.
type VectorSearch interface {
	Search(ctx context.Context, kind core.Kind, query string, filters map[string]string, limit int, threshold float64) ([]core.Item, error)
}

// PersistenceSink receives final ranked results. Callers treat it as
// fire-and-forget; errors are logged, never propagated into ranking.
type PersistenceSink interface {
	Save(ctx context.Context, queryID string, results []core.MatchResult) error
}
