package mock

import (
	"context"
	"sync/atomic"

	"github.com/poiesic/talentmatch/ai"
	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/scoring"
)

// MockRelevanceService is a test double for ai.RelevanceService.
// It allows custom behavior injection via function fields and is safe for
// concurrent use.
type MockRelevanceService struct {
	// ScoreFunc is called by Score if set.
	// If nil, the business-rule score of the pair is returned.
	ScoreFunc func(ctx context.Context, c *core.Candidate, p *core.Project) (ai.RelevanceScore, error)

	// RankFunc is called by Rank if set.
	// If nil, items are returned in input order with descending scores.
	RankFunc func(ctx context.Context, q ai.QueryDescriptor, items []core.Item) ([]core.MatchResult, error)

	scoreCalls atomic.Int64
	rankCalls  atomic.Int64
}

// NewMockRelevanceService creates a mock relevance service with default behavior.
func NewMockRelevanceService() *MockRelevanceService {
	return &MockRelevanceService{}
}

// Score returns ScoreFunc's result or the pair's business score.
func (m *MockRelevanceService) Score(ctx context.Context, c *core.Candidate, p *core.Project) (ai.RelevanceScore, error) {
	m.scoreCalls.Add(1)

	if m.ScoreFunc != nil {
		return m.ScoreFunc(ctx, c, p)
	}

	score, breakdown := scoring.BusinessScore(c, p)
	return ai.RelevanceScore{Score: score, Reason: "mock: " + breakdown.Reason()}, nil
}

// Rank returns RankFunc's result or the first items scored 90, 80, 70, ...
func (m *MockRelevanceService) Rank(ctx context.Context, q ai.QueryDescriptor, items []core.Item) ([]core.MatchResult, error) {
	m.rankCalls.Add(1)

	if m.RankFunc != nil {
		return m.RankFunc(ctx, q, items)
	}

	if len(items) > ai.MaxRankItems {
		items = items[:ai.MaxRankItems]
	}
	results := make([]core.MatchResult, len(items))
	for i, it := range items {
		results[i] = core.MatchResult{ID: it.ID(), Name: it.Name(), Score: 90 - 10*i, Reason: "mock ranking"}
	}
	return results, nil
}

// ScoreCalls returns the number of Score calls.
func (m *MockRelevanceService) ScoreCalls() int {
	return int(m.scoreCalls.Load())
}

// RankCalls returns the number of Rank calls.
func (m *MockRelevanceService) RankCalls() int {
	return int(m.rankCalls.Load())
}

// CallCount returns the number of times any method was called.
func (m *MockRelevanceService) CallCount() int {
	return m.ScoreCalls() + m.RankCalls()
}

// Reset clears the call counts and custom functions.
func (m *MockRelevanceService) Reset() {
	m.scoreCalls.Store(0)
	m.rankCalls.Store(0)
	m.ScoreFunc = nil
	m.RankFunc = nil
}
