package matching

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/scoring"
)

// StageName identifies a pipeline stage in logs and monitors.
type StageName string

const (
	StageHardFilter      StageName = "hard_filter"
	StageVectorPrefilter StageName = "vector_prefilter"
	StageLegacyPrefilter StageName = "legacy_prefilter"
	StageHybrid          StageName = "hybrid_matching"
	StageRelevance       StageName = "ai_matching"
	StageSave            StageName = "save_results"
)

// Route is the stage sequence chosen for a run.
type Route struct {
	MultiStage bool
	Hybrid     bool
}

// Stages lists the route's stages in execution order.
func (r Route) Stages() []StageName {
	var stages []StageName
	if r.MultiStage {
		stages = append(stages, StageHardFilter, StageVectorPrefilter)
	} else {
		stages = append(stages, StageLegacyPrefilter)
	}
	if r.Hybrid {
		stages = append(stages, StageHybrid)
	} else {
		stages = append(stages, StageRelevance)
	}
	return append(stages, StageSave)
}

func (r Route) String() string {
	names := make([]string, 0, 4)
	for _, s := range r.Stages() {
		names = append(names, string(s))
	}
	return strings.Join(names, " -> ")
}

// Run is the outcome of one pipeline execution.
type Run struct {
	Request      core.MatchRequest
	Route        Route
	Results      []core.MatchResult
	Strategy     Strategy
	HardFiltered int
	Prefiltered  int
	Log          []string
	Errors       []error
	Degradations []DegradeReason
}

func (r *Run) logf(format string, args ...any) {
	r.Log = append(r.Log, fmt.Sprintf(format, args...))
}

// Degraded reports whether any stage fell back.
func (r *Run) Degraded() bool {
	return len(r.Degradations) > 0
}

// multiStagePrefilter applies the hard filter to the full candidate pool and
// then narrows survivors with a similarity search.
func (p *Pipeline) multiStagePrefilter(ctx context.Context, req core.MatchRequest, run *Run) ([]core.Item, error) {
	pool, err := p.poolFor(ctx, req, core.KindCandidate)
	if err != nil {
		return nil, err
	}

	filtered := make([]core.Item, 0, len(pool))
	for _, it := range pool {
		if scoring.PassesHardFilters(it.Candidate, req.Requirements) {
			filtered = append(filtered, it)
		}
	}
	run.HardFiltered = len(filtered)
	run.logf("%s: %d -> %d", StageHardFilter, len(pool), len(filtered))
	p.monitor.StageFinished(StageHardFilter, len(filtered))

	shortlist := p.vectorPrefilter(ctx, req, filtered, run)
	run.logf("%s: %d -> %d", StageVectorPrefilter, len(filtered), len(shortlist))
	p.monitor.StageFinished(StageVectorPrefilter, len(shortlist))
	return shortlist, nil
}

// vectorPrefilter intersects similarity hits with the hard-filter survivors.
// Without search or a free-text query, or when search fails, the survivors
// pass through unchanged.
func (p *Pipeline) vectorPrefilter(ctx context.Context, req core.MatchRequest, filtered []core.Item, run *Run) []core.Item {
	passthrough := filtered[:min(len(filtered), ShortlistSize)]
	if !p.useSearch || strings.TrimSpace(req.FreeTextQuery) == "" {
		return passthrough
	}

	hits, err := p.search.Search(ctx, core.KindCandidate, req.FreeTextQuery, nil, SearchLimit, SearchThreshold)
	if err != nil {
		p.degrade(run, StageVectorPrefilter, DegradeSearchFailed, fmt.Errorf("vector prefilter: %w", err))
		return passthrough
	}

	allowed := make(map[string]struct{}, len(filtered))
	for _, it := range filtered {
		allowed[it.ID()] = struct{}{}
	}
	shortlist := make([]core.Item, 0, ShortlistSize)
	for _, hit := range hits {
		if _, ok := allowed[hit.ID()]; !ok {
			continue
		}
		shortlist = append(shortlist, hit)
		if len(shortlist) == ShortlistSize {
			break
		}
	}
	return shortlist
}

// legacyPrefilter is the single-pass alternative to the multi-stage filter:
// the pool (or the similarity hits for a free-text query) is ranked by a
// weighted mix of similarity and hard-filter coverage.
func (p *Pipeline) legacyPrefilter(ctx context.Context, req core.MatchRequest, run *Run) ([]core.Item, error) {
	kind := req.MatchType.PoolKind()

	var items []core.Item
	searched := false
	if p.useSearch && strings.TrimSpace(req.FreeTextQuery) != "" {
		hits, err := p.search.Search(ctx, kind, req.FreeTextQuery, nil, SearchLimit, SearchThreshold)
		if err != nil {
			p.degrade(run, StageLegacyPrefilter, DegradeSearchFailed, fmt.Errorf("legacy prefilter: %w", err))
		} else {
			items, searched = hits, true
		}
	}
	if !searched {
		pool, err := p.poolFor(ctx, req, kind)
		if err != nil {
			return nil, err
		}
		items = pool
	}

	w := p.scorer.weights
	ranks := make([]float64, len(items))
	order := make([]int, len(items))
	for i, it := range items {
		coverage := 1.0
		if it.Kind == core.KindCandidate {
			coverage = scoring.FilterCoverage(it.Candidate, req.Requirements)
		}
		ranks[i] = it.Similarity*w.SearchVector + coverage*w.SearchFilter
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(ranks[b], ranks[a])
	})

	shortlist := make([]core.Item, 0, min(len(items), ShortlistSize))
	for _, i := range order[:min(len(order), ShortlistSize)] {
		shortlist = append(shortlist, items[i])
	}
	run.logf("%s: %d -> %d", StageLegacyPrefilter, len(items), len(shortlist))
	p.monitor.StageFinished(StageLegacyPrefilter, len(shortlist))
	return shortlist, nil
}

// poolFor returns the pool a request ranks against. A pair request, one that
// embeds both a project and a candidate, ranks only its paired record.
func (p *Pipeline) poolFor(ctx context.Context, req core.MatchRequest, kind core.Kind) ([]core.Item, error) {
	if req.Project != nil && req.Candidate != nil {
		if kind == core.KindCandidate {
			return []core.Item{core.CandidateItem(req.Candidate, 0)}, nil
		}
		return []core.Item{core.ProjectItem(req.Project, 0)}, nil
	}
	return p.pool(ctx, kind)
}

// pool lists every record of kind with zero similarity, preferring the
// record source over an unrestricted search.
func (p *Pipeline) pool(ctx context.Context, kind core.Kind) ([]core.Item, error) {
	if p.source == nil {
		items, err := p.search.Search(ctx, kind, "", nil, 0, 0)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPoolUnavailable, err)
		}
		return items, nil
	}

	var items []core.Item
	switch kind {
	case core.KindCandidate:
		list, err := p.source.Candidates(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPoolUnavailable, err)
		}
		items = make([]core.Item, 0, len(list))
		for _, c := range list {
			items = append(items, core.CandidateItem(c, 0))
		}
	case core.KindProject:
		list, err := p.source.Projects(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPoolUnavailable, err)
		}
		items = make([]core.Item, 0, len(list))
		for _, pr := range list {
			items = append(items, core.ProjectItem(pr, 0))
		}
	}
	return items, nil
}
