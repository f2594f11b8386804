// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package matching

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/talentmatch/ai"
	"github.com/poiesic/talentmatch/batch"
	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/scoring"
)

// Strategy names the scorer that produced a result list.
type Strategy string

const (
	StrategyVectorOnly Strategy = "vector_only"
	StrategyRelevance  Strategy = "relevance"
	StrategyHybrid     Strategy = "hybrid"
	StrategyFallback   Strategy = "fallback"
)

// DegradeReason explains why a stage produced lower-fidelity output than
// requested. The zero value means no degradation.
type DegradeReason string

const (
	DegradeNone                 DegradeReason = ""
	DegradeSearchFailed         DegradeReason = "search_failed"
	DegradeRelevanceUnavailable DegradeReason = "relevance_unavailable"
	DegradeRelevanceExhausted   DegradeReason = "relevance_exhausted"
	DegradeInvalidWeights       DegradeReason = "invalid_weights"
	DegradeMissingQuery         DegradeReason = "missing_query"
	DegradeHybridFailed         DegradeReason = "hybrid_failed"
)

const (
	// neutralRelevance stands in for a relevance score that could not be obtained.
	neutralRelevance = 60
	fallbackLimit    = 3
	fallbackTop      = 60
	fallbackStep     = 5
	fallbackReason   = "system fallback ranking"
)

// Outcome is what a scoring strategy returns. Degrade is set when the
// strategy could not do its job; Results then holds whatever the strategy
// could still offer (possibly nothing) and the caller picks the next one.
type Outcome struct {
	Results  []core.MatchResult
	Strategy Strategy
	Degrade  DegradeReason
	Errors   []error
}

// Degraded reports whether the strategy gave up.
func (o Outcome) Degraded() bool {
	return o.Degrade != DegradeNone
}

// VectorOnly scores each item as its similarity scaled to 0..100.
func VectorOnly(items []core.Item) Outcome {
	results := make([]core.MatchResult, 0, len(items))
	for _, it := range items {
		results = append(results, core.MatchResult{
			ID:     it.ID(),
			Name:   it.Name(),
			Score:  core.ClampScore(int(math.Round(it.Similarity * 100))),
			Reason: fmt.Sprintf("vector similarity %.3f", it.Similarity),
		})
	}
	sortByScore(results)
	return Outcome{Results: results, Strategy: StrategyVectorOnly}
}

// Fallback ranks the first three items in their given order with scores
// 60, 55 and 50.
func Fallback(items []core.Item) Outcome {
	n := min(len(items), fallbackLimit)
	results := make([]core.MatchResult, n)
	for i := range n {
		results[i] = core.MatchResult{
			ID:     items[i].ID(),
			Name:   items[i].Name(),
			Score:  fallbackTop - fallbackStep*i,
			Reason: fallbackReason,
		}
	}
	return Outcome{Results: results, Strategy: StrategyFallback}
}

// scorer runs the strategies that call the relevance service.
type scorer struct {
	relevance  ai.RelevanceService
	weights    Weights
	maxRetries int
	retryDelay time.Duration
}

// rank sends the first ai.MaxRankItems items to the relevance service and
// validates what comes back. Entries the service could not decode and
// entries that fail validation are each recorded as a ValidationError; the
// rest are kept. A call that keeps failing after maxRetries attempts yields
// DegradeRelevanceExhausted with no results.
func (s *scorer) rank(ctx context.Context, q ai.QueryDescriptor, items []core.Item) Outcome {
	out := Outcome{Strategy: StrategyRelevance}
	if s.relevance == nil {
		out.Degrade = DegradeRelevanceUnavailable
		return out
	}
	if len(items) > ai.MaxRankItems {
		items = items[:ai.MaxRankItems]
	}

	var (
		ranked  []core.MatchResult
		partial *ai.RankEntriesError
	)
	err := batch.RetryWithBackoff(ctx, func() error {
		var err error
		ranked, err = s.relevance.Rank(ctx, q, items)
		partial = nil
		if errors.As(err, &partial) {
			return nil
		}
		return err
	}, s.maxRetries, s.retryDelay)
	if err != nil {
		out.Degrade = DegradeRelevanceExhausted
		out.Errors = append(out.Errors, fmt.Errorf("relevance ranking: %w", err))
		return out
	}

	skipped := make(map[int]bool)
	if partial != nil {
		for _, e := range partial.Entries {
			skipped[e.Index] = true
			out.Errors = append(out.Errors, &ValidationError{Index: e.Index, Err: e.Err})
		}
	}

	out.Results = make([]core.MatchResult, 0, len(ranked))
	pos := 0
	for _, r := range ranked {
		for skipped[pos] {
			pos++
		}
		if err := core.ValidateMatchResult(&r); err != nil {
			out.Errors = append(out.Errors, &ValidationError{Index: pos, Err: err})
		} else {
			out.Results = append(out.Results, r)
		}
		pos++
	}
	sortByScore(out.Results)
	return out
}

// pair is the candidate/project combination scored for one item.
type pair struct {
	candidate *core.Candidate
	project   *core.Project
}

// pairFor matches an item with the query entity according to the direction
// of the request. ok is false when either side is missing.
func pairFor(it core.Item, q *query) (pair, bool) {
	var p pair
	switch it.Kind {
	case core.KindCandidate:
		p = pair{candidate: it.Candidate, project: q.project}
	case core.KindProject:
		p = pair{candidate: q.candidate, project: it.Project}
	}
	return p, p.candidate != nil && p.project != nil
}

// hybrid blends similarity, relevance and business scores for up to
// ai.MaxRankItems items. A relevance failure for one item is replaced by a
// neutral score; anything that prevents blending degrades the whole outcome.
func (s *scorer) hybrid(ctx context.Context, q *query, items []core.Item) (out Outcome) {
	out = Outcome{Strategy: StrategyHybrid}
	if err := s.weights.Validate(); err != nil {
		out.Degrade = DegradeInvalidWeights
		out.Errors = append(out.Errors, err)
		return out
	}
	if s.relevance == nil {
		out.Degrade = DegradeRelevanceUnavailable
		return out
	}

	defer func() {
		if r := recover(); r != nil {
			out = Outcome{
				Strategy: StrategyHybrid,
				Degrade:  DegradeHybridFailed,
				Errors:   append(out.Errors, fmt.Errorf("hybrid scoring panicked: %v", r)),
			}
		}
	}()

	if len(items) > ai.MaxRankItems {
		items = items[:ai.MaxRankItems]
	}

	results := make([]core.MatchResult, 0, len(items))
	for _, it := range items {
		p, ok := pairFor(it, q)
		if !ok {
			out.Degrade = DegradeMissingQuery
			out.Errors = append(out.Errors, fmt.Errorf("%w: cannot pair item %s", ErrQueryNotFound, it.ID()))
			return out
		}

		vectorScore := it.Similarity * 100

		aiScore := float64(neutralRelevance)
		aiNote := ""
		var verdict ai.RelevanceScore
		err := batch.RetryWithBackoff(ctx, func() error {
			var err error
			verdict, err = s.relevance.Score(ctx, p.candidate, p.project)
			return err
		}, s.maxRetries, s.retryDelay)
		if err == nil && core.IsValidScore(verdict.Score) {
			aiScore = float64(verdict.Score)
		} else {
			if err == nil {
				err = fmt.Errorf("%w: got %d", core.ErrScoreOutOfRange, verdict.Score)
			}
			aiNote = " (relevance unavailable, neutral)"
			out.Errors = append(out.Errors, fmt.Errorf("relevance score for %s: %w", it.ID(), err))
		}

		bizScore, _ := scoring.BusinessScore(p.candidate, p.project)

		final := Blend(vectorScore, aiScore, float64(bizScore), s.weights)
		results = append(results, core.MatchResult{
			ID:    it.ID(),
			Name:  it.Name(),
			Score: core.ClampScore(int(math.Round(final))),
			Reason: hybridReason(vectorScore, aiScore, float64(bizScore), s.weights) + aiNote +
				verdictSuffix(verdict.Reason, err),
		})
	}

	sortByScore(results)
	out.Results = results
	return out
}

// Blend combines the three hybrid components, each on a 0..100 scale. With
// valid weights the result lies between the smallest and largest component.
func Blend(vector, relevance, business float64, w Weights) float64 {
	return vector*w.Vector + relevance*w.Relevance + business*w.Business
}

func hybridReason(vector, relevance, business float64, w Weights) string {
	var b strings.Builder
	fmt.Fprintf(&b, "hybrid: vector %.1f x %.2f = %.1f", vector, w.Vector, vector*w.Vector)
	fmt.Fprintf(&b, " | relevance %.0f x %.2f = %.1f", relevance, w.Relevance, relevance*w.Relevance)
	fmt.Fprintf(&b, " | business %.0f x %.2f = %.1f", business, w.Business, business*w.Business)
	return b.String()
}

func verdictSuffix(reason string, err error) string {
	if err != nil || strings.TrimSpace(reason) == "" {
		return ""
	}
	return "; " + reason
}

func sortByScore(results []core.MatchResult) {
	slices.SortStableFunc(results, func(a, b core.MatchResult) int {
		return cmp.Compare(b.Score, a.Score)
	})
}
