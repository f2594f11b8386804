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


package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/talentmatch/batch"
	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/matching"
	"github.com/poiesic/talentmatch/progress"
	"github.com/poiesic/talentmatch/stream"
)

// runStages is the fixed stage sequence of a run.
var runStages = []progress.Stage{
	progress.StageInitialization,
	progress.StageClassification,
	progress.StageVectorGeneration,
	progress.StageStorage,
	progress.StageMatching,
	progress.StageResultGeneration,
}

const updateBuffer = 64

// Matcher ranks one request. *matching.Pipeline implements it.
type Matcher interface {
	Run(ctx context.Context, req core.MatchRequest) (*matching.Run, error)
}

// Hook is a delegated stage (classification, vector generation, storage).
// It reports how many items it handled; an error aborts the run.
type Hook func(ctx context.Context, requests []core.MatchRequest) (StageCount, error)

// Orchestrator runs sessions end to end. It is safe for concurrent use as
// long as each session id is run by one caller at a time.
type Orchestrator struct {
	matcher    Matcher
	executor   *batch.Executor
	registry   *Registry
	classifier Hook
	vectorizer Hook
	storer     Hook
	heartbeat  time.Duration
	metrics    *Metrics
	logger     *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithClassifier sets the classification hook.
func WithClassifier(h Hook) Option {
	return func(o *Orchestrator) error {
		o.classifier = h
		return nil
	}
}

// WithVectorizer sets the vector generation hook.
func WithVectorizer(h Hook) Option {
	return func(o *Orchestrator) error {
		o.vectorizer = h
		return nil
	}
}

// WithStorer sets the storage hook.
func WithStorer(h Hook) Option {
	return func(o *Orchestrator) error {
		o.storer = h
		return nil
	}
}

// WithHeartbeat sets the heartbeat interval of session buses during a run.
// Zero disables heartbeats. Default is stream.DefaultHeartbeatInterval.
func WithHeartbeat(d time.Duration) Option {
	return func(o *Orchestrator) error {
		if d < 0 {
			d = 0
		}
		o.heartbeat = d
		return nil
	}
}

// WithMetrics records run metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) error {
		o.metrics = m
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// New creates an orchestrator.
func New(matcher Matcher, executor *batch.Executor, registry *Registry, opts ...Option) (*Orchestrator, error) {
	if matcher == nil {
		return nil, ErrMatcherRequired
	}
	if executor == nil {
		return nil, ErrExecutorRequired
	}
	if registry == nil {
		return nil, ErrRegistryRequired
	}

	o := &Orchestrator{
		matcher:   matcher,
		executor:  executor,
		registry:  registry,
		heartbeat: stream.DefaultHeartbeatInterval,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	o.logger = o.logger.With("component", "orchestrator")
	return o, nil
}

// NewSessionID returns a fresh random session id.
func NewSessionID() string {
	return uuid.NewString()
}

// Registry returns the orchestrator's session registry.
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// Status returns the overall progress of a session.
func (o *Orchestrator) Status(sessionID string) (progress.Overall, error) {
	s, err := o.registry.Lookup(sessionID)
	if err != nil {
		return progress.Overall{}, err
	}
	return s.Tracker().Overall(), nil
}

// CleanupSession tears down a session's tracker and bus together.
func (o *Orchestrator) CleanupSession(sessionID string) bool {
	return o.registry.Cleanup(sessionID)
}

// Run executes every request for the session and returns the aggregated
// summary. An empty sessionID gets a fresh one. Per-request failures are
// recorded in the summary; an error is returned only when the run as a
// whole fails (a hook error, cancellation, or a panic), in which case the
// session completes carrying that error.
func (o *Orchestrator) Run(ctx context.Context, sessionID string, requests []core.MatchRequest) (summary *Summary, err error) {
	if sessionID == "" {
		sessionID = NewSessionID()
	}
	sess := o.registry.Session(sessionID)
	if sess.Tracker().IsCompleted() {
		return nil, fmt.Errorf("%w: %s", ErrSessionCompleted, sessionID)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan update, updateBuffer)
	done := make(chan struct{})
	go o.consume(sess, updates, done)
	if o.heartbeat > 0 {
		go sess.Bus().RunHeartbeat(ctx, o.heartbeat)
	}

	r := &reporter{updates: updates}
	start := time.Now()
	o.logger.Info("run started", "session", sessionID, "requests", len(requests))

	defer func() {
		if p := recover(); p != nil {
			summary, err = nil, fmt.Errorf("%w: %v", ErrRunPanicked, p)
		}

		status := "success"
		if err != nil {
			status = "failure"
			r.fail(err)
			r.finish(map[string]any{"error": err.Error(), "session_id": sessionID}, err)
			o.logger.Error("run failed", "session", sessionID, "stage", r.stage, "err", err)
		} else {
			r.finish(summary, nil)
			o.logger.Info("run completed", "session", sessionID,
				"requests", len(requests), "matches", summary.Matches(),
				"elapsed", time.Since(start))
		}
		close(updates)
		<-done
		o.metrics.observeRun(status, time.Since(start).Seconds())
	}()

	return o.execute(ctx, sess.ID(), requests, r, start)
}

func (o *Orchestrator) execute(ctx context.Context, sessionID string, requests []core.MatchRequest, r *reporter, start time.Time) (*Summary, error) {
	s := newSummary(sessionID, len(requests))

	r.start(progress.StageInitialization, 1, "initializing run")
	r.status("processing_started", map[string]any{
		"requests":      len(requests),
		"executor_mode": o.executor.Mode().String(),
	})
	r.complete(progress.StageInitialization, "initialized")
	s.record(progress.StageInitialization, StageCount{Processed: 1, Succeeded: 1})

	hooks := []struct {
		stage progress.Stage
		hook  Hook
	}{
		{progress.StageClassification, o.classifier},
		{progress.StageVectorGeneration, o.vectorizer},
		{progress.StageStorage, o.storer},
	}
	for _, h := range hooks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		count, err := o.runHook(ctx, r, h.stage, h.hook, requests)
		if err != nil {
			return nil, err
		}
		s.record(h.stage, count)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.Results = o.match(ctx, r, s, requests)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.start(progress.StageResultGeneration, 1, "aggregating results")
	s.record(progress.StageResultGeneration, StageCount{Processed: 1, Succeeded: 1})
	s.finish(time.Since(start))
	r.complete(progress.StageResultGeneration, "results ready")
	return s, nil
}

func (o *Orchestrator) runHook(ctx context.Context, r *reporter, stage progress.Stage, hook Hook, requests []core.MatchRequest) (StageCount, error) {
	if hook == nil {
		r.start(stage, 0, "skipped")
		r.complete(stage, "skipped")
		return StageCount{}, nil
	}

	r.start(stage, len(requests), "running "+string(stage))
	count, err := hook(ctx, requests)
	if err != nil {
		return count, fmt.Errorf("%s: %w", stage, err)
	}
	r.complete(stage, fmt.Sprintf("%d/%d succeeded", count.Succeeded, count.Processed))
	return count, nil
}

// match fans the requests out over the executor. Outcomes are index-aligned
// with requests.
func (o *Orchestrator) match(ctx context.Context, r *reporter, s *Summary, requests []core.MatchRequest) []ItemOutcome {
	r.start(progress.StageMatching, len(requests), "matching")
	results := batch.Run(ctx, o.executor, requests, o.matcher.Run, func(completed, total int) {
		r.progress(progress.StageMatching, completed, fmt.Sprintf("matched %d/%d", completed, total))
	})

	outcomes := make([]ItemOutcome, len(results))
	count := StageCount{Processed: len(results)}
	for i, res := range results {
		outcomes[i] = newItemOutcome(i, requests[i], res.Value, res.Err)
		if res.Err != nil {
			count.Failed++
			o.logger.Warn("match request failed", "index", i, "query", requests[i].QueryID, "err", res.Err)
		} else {
			count.Succeeded++
			s.Strategies[res.Value.Strategy]++
			for _, reason := range res.Value.Degradations {
				s.Degradations[reason]++
				o.metrics.observeDegradation(reason)
			}
		}
		r.result(outcomes[i], "match")
	}
	s.record(progress.StageMatching, count)
	r.complete(progress.StageMatching, fmt.Sprintf("%d/%d requests matched", count.Succeeded, count.Processed))
	return outcomes
}

// consume applies run updates to the session in order. It is the only
// writer of the session's tracker during a run. The bus also receives
// heartbeats from RunHeartbeat; the bus serializes both writers and stops
// heartbeats once consume delivers the complete event.
func (o *Orchestrator) consume(sess *Session, updates <-chan update, done chan<- struct{}) {
	defer close(done)
	for u := range updates {
		sess.apply(func(t *progress.Tracker, b *stream.Bus) {
			u.apply(t, b)
		})
	}
}
