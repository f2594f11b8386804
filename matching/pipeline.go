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
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/talentmatch/ai"
	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/storage"
)

const (
	// SearchLimit and SearchThreshold bound the similarity search used by
	// both prefilters.
	SearchLimit     = 20
	SearchThreshold = 0.6

	// ShortlistSize caps the output of every prefilter.
	ShortlistSize = 10

	defaultMaxRetries = 3
	defaultRetryDelay = 500 * time.Millisecond
	savePoolSize      = 2
)

// Pipeline runs match requests. It is safe for concurrent use.
type Pipeline struct {
	source       storage.RecordSource
	search       storage.VectorSearch
	sink         storage.PersistenceSink
	useSearch    bool
	multiStage   bool
	hybrid       bool
	scorer       scorer
	monitor      Monitor
	savePool     *ants.Pool
	saves        sync.WaitGroup
	logger       *slog.Logger
	searchForced bool
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithMultiStage selects hard filter plus vector prefilter (true, default)
// or the legacy single-pass weighted prefilter (false).
func WithMultiStage(on bool) Option {
	return func(p *Pipeline) error {
		p.multiStage = on
		return nil
	}
}

// WithVectorSearch enables or disables similarity search. Default is on
// whenever a VectorSearch is supplied.
func WithVectorSearch(on bool) Option {
	return func(p *Pipeline) error {
		p.useSearch = on
		p.searchForced = true
		return nil
	}
}

// WithHybrid selects hybrid scoring (true, default) or relevance-only
// ranking (false).
func WithHybrid(on bool) Option {
	return func(p *Pipeline) error {
		p.hybrid = on
		return nil
	}
}

// WithWeights sets the hybrid and weighted-search weights.
func WithWeights(w Weights) Option {
	return func(p *Pipeline) error {
		if err := w.Validate(); err != nil {
			return err
		}
		p.scorer.weights = w
		return nil
	}
}

// WithMaxRetries sets the total number of attempts per relevance call.
// Default is 3.
//
// Each attempt is one relevance request, and a request may itself call the
// model several times while the reply cannot be parsed (ai.Config
// ParseAttempts, default 3). Worst case model calls per ranking are
// n * ParseAttempts.
func WithMaxRetries(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return ErrInvalidMaxRetries
		}
		p.scorer.maxRetries = n
		return nil
	}
}

// WithRetryDelay sets the base backoff between relevance attempts.
// Default is 500ms.
func WithRetryDelay(d time.Duration) Option {
	return func(p *Pipeline) error {
		if d < 0 {
			d = 0
		}
		p.scorer.retryDelay = d
		return nil
	}
}

// WithSink hands final results to sink after each run.
func WithSink(sink storage.PersistenceSink) Option {
	return func(p *Pipeline) error {
		p.sink = sink
		return nil
	}
}

// WithMonitor sets a run observer.
func WithMonitor(m Monitor) Option {
	return func(p *Pipeline) error {
		if m == nil {
			m = noopMonitor{}
		}
		p.monitor = m
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a pipeline. source lists the pool and resolves query
// entities; search provides similarity search; relevance scores pairs. Any
// one of source or search may be nil, but not both. A nil relevance service
// makes every relevance-backed strategy degrade.
func NewPipeline(source storage.RecordSource, search storage.VectorSearch, relevance ai.RelevanceService, opts ...Option) (*Pipeline, error) {
	if source == nil && search == nil {
		return nil, ErrPoolSourceRequired
	}

	p := &Pipeline{
		source:     source,
		search:     search,
		multiStage: true,
		hybrid:     true,
		scorer: scorer{
			relevance:  relevance,
			weights:    DefaultWeights(),
			maxRetries: defaultMaxRetries,
			retryDelay: defaultRetryDelay,
		},
		monitor: noopMonitor{},
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if !p.searchForced {
		p.useSearch = search != nil
	}
	if search == nil {
		p.useSearch = false
	}
	p.logger = p.logger.With("component", "matching")

	pool, err := ants.NewPool(savePoolSize)
	if err != nil {
		return nil, err
	}
	p.savePool = pool
	return p, nil
}

// Route returns the stage sequence the pipeline will run for req.
func (p *Pipeline) Route(req core.MatchRequest) Route {
	return Route{
		MultiStage: p.multiStage && req.MatchType == core.MatchProjectToResume,
		Hybrid:     p.hybrid,
	}
}

// Run executes one match request. It only returns an error when the request
// is invalid, the context is done, or the pool cannot be listed at all;
// collaborator failures during filtering and scoring are recorded on the Run
// as degradations.
func (p *Pipeline) Run(ctx context.Context, req core.MatchRequest) (*Run, error) {
	if err := core.ValidateMatchRequest(&req); err != nil {
		return nil, err
	}

	run := &Run{Request: req, Route: p.Route(req)}
	if p.multiStage && !run.Route.MultiStage {
		run.logf("%s requests take the legacy prefilter", req.MatchType)
	}
	run.logf("route %s", run.Route)

	q := p.resolveQuery(ctx, req, run)

	var shortlist []core.Item
	var err error
	if run.Route.MultiStage {
		shortlist, err = p.multiStagePrefilter(ctx, req, run)
	} else {
		shortlist, err = p.legacyPrefilter(ctx, req, run)
	}
	if err != nil {
		return nil, err
	}
	run.Prefiltered = len(shortlist)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.score(ctx, q, shortlist, run)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.save(ctx, q.id, run)
	return run, nil
}

// score runs the configured strategy and walks down the degrade chain:
// hybrid -> vector-only, relevance -> fallback.
func (p *Pipeline) score(ctx context.Context, q *query, items []core.Item, run *Run) {
	var out Outcome
	stage := StageRelevance
	if run.Route.Hybrid {
		stage = StageHybrid
		out = p.scorer.hybrid(ctx, q, items)
		if out.Degraded() {
			p.degrade(run, stage, out.Degrade, out.Errors...)
			out = VectorOnly(items)
		}
	} else {
		out = p.scorer.rank(ctx, q.descriptor(run.Request), items)
		if out.Degraded() {
			p.degrade(run, stage, out.Degrade, out.Errors...)
			out = Fallback(items)
		}
	}

	run.Errors = append(run.Errors, out.Errors...)
	run.Results = out.Results
	run.Strategy = out.Strategy
	run.logf("%s: %d results via %s", stage, len(out.Results), out.Strategy)
	p.monitor.StageFinished(stage, len(out.Results))
}

func (p *Pipeline) degrade(run *Run, stage StageName, reason DegradeReason, errs ...error) {
	run.Degradations = append(run.Degradations, reason)
	run.Errors = append(run.Errors, errs...)
	run.logf("%s degraded: %s", stage, reason)
	p.logger.Warn("stage degraded", "stage", stage, "reason", reason, "query", run.Request.QueryID)
	p.monitor.Degraded(stage, reason)
}

// save hands results to the sink without waiting for it.
func (p *Pipeline) save(ctx context.Context, queryID string, run *Run) {
	if p.sink == nil || queryID == "" || len(run.Results) == 0 {
		return
	}
	results := append([]core.MatchResult(nil), run.Results...)
	ctx = context.WithoutCancel(ctx)

	p.saves.Add(1)
	err := p.savePool.Submit(func() {
		defer p.saves.Done()
		if err := p.sink.Save(ctx, queryID, results); err != nil {
			p.logger.Error("error saving match results", "query", queryID, "err", err)
		}
	})
	if err != nil {
		p.saves.Done()
		p.logger.Error("error scheduling match results save", "query", queryID, "err", err)
		return
	}
	run.logf("%s: queued %d results for %s", StageSave, len(results), queryID)
	p.monitor.StageFinished(StageSave, len(results))
}

// Wait blocks until every queued save has finished.
func (p *Pipeline) Wait() {
	p.saves.Wait()
}

// Release waits for pending saves and frees the save pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	p.Wait()
	if p.savePool != nil {
		p.savePool.Release()
	}
}

// query is the resolved query entity of a request. At most one of project or
// candidate is set.
type query struct {
	id        string
	project   *core.Project
	candidate *core.Candidate
}

func (q *query) text() string {
	switch {
	case q.project != nil:
		return q.project.Text()
	case q.candidate != nil:
		return q.candidate.Text()
	}
	return ""
}

func (q *query) descriptor(req core.MatchRequest) ai.QueryDescriptor {
	return ai.QueryDescriptor{
		MatchType:    req.MatchType,
		QueryID:      q.id,
		Text:         q.text(),
		Query:        req.FreeTextQuery,
		Requirements: req.Requirements,
	}
}

// resolveQuery finds the query entity. A missing entity is recorded but not
// fatal: only the hybrid strategy needs it.
func (p *Pipeline) resolveQuery(ctx context.Context, req core.MatchRequest, run *Run) *query {
	q := &query{id: req.QueryID}
	switch req.MatchType {
	case core.MatchProjectToResume:
		q.project = req.Project
		if q.project == nil && p.source != nil {
			proj, err := p.source.Project(ctx, req.QueryID)
			if err != nil {
				run.Errors = append(run.Errors, fmt.Errorf("%w: project %s: %w", ErrQueryNotFound, req.QueryID, err))
			}
			q.project = proj
		}
		if q.project != nil && q.id == "" {
			q.id = q.project.EnsureID()
		}
	case core.MatchResumeToProject:
		q.candidate = req.Candidate
		if q.candidate == nil && p.source != nil {
			cand, err := p.source.Candidate(ctx, req.QueryID)
			if err != nil {
				run.Errors = append(run.Errors, fmt.Errorf("%w: candidate %s: %w", ErrQueryNotFound, req.QueryID, err))
			}
			q.candidate = cand
		}
		if q.candidate != nil && q.id == "" {
			q.id = q.candidate.EnsureID()
		}
	}
	return q
}
