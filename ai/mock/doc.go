// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.RelevanceService,
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	embeddings, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	relevance := mock.NewMockRelevanceService()
//	relevance.ScoreFunc = func(ctx context.Context, c *core.Candidate, p *core.Project) (ai.RelevanceScore, error) {
//	    return ai.RelevanceScore{}, errors.New("service down")
//	}
//
//	// Check call counts
//	count := relevance.ScoreCalls()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockRelevanceService: Scores pairs with the business rules and ranks
//     items in input order
//   - MockProvider: Aggregates mock embedder and relevance service
package mock
