package ai

import (
	"context"

	"github.com/poiesic/talentmatch/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// RelevanceService judges how well candidates and projects fit each other.
// Implementations must be thread-safe and must return an error rather than
// malformed data when the backing model misbehaves.
type RelevanceService interface {
	// Score rates a single candidate/project pair.
	Score(ctx context.Context, c *core.Candidate, p *core.Project) (RelevanceScore, error)

	// Rank orders a small set of pool items against a query. Entries are
	// returned as the model produced them; callers validate each one.
	// Entries that cannot be decoded at all are left out and reported in a
	// *RankEntriesError returned together with the remaining entries.
	Rank(ctx context.Context, query QueryDescriptor, items []core.Item) ([]core.MatchResult, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Relevance returns the relevance scoring service.
	Relevance() RelevanceService

	// Close releases resources held by the provider and its services.
	Close() error
}
