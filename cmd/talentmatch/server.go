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


package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/matching"
	"github.com/poiesic/talentmatch/orchestrator"
	"github.com/poiesic/talentmatch/stream"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 8 << 20

// runRequest is the body of a session run. Either Requests, or Candidates
// and Projects (paired cross-product), must be set.
type runRequest struct {
	MatchType  core.MatchType      `json:"match_type,omitempty"`
	Requests   []core.MatchRequest `json:"requests,omitempty"`
	Candidates []*core.Candidate   `json:"candidates,omitempty"`
	Projects   []*core.Project     `json:"projects,omitempty"`
}

func (rr runRequest) build() ([]core.MatchRequest, error) {
	if len(rr.Requests) > 0 {
		return rr.Requests, nil
	}
	if len(rr.Candidates) == 0 || len(rr.Projects) == 0 {
		return nil, errors.New("either requests or both candidates and projects are required")
	}
	mt := rr.MatchType
	if mt == "" {
		mt = core.MatchProjectToResume
	}
	if err := core.ValidateMatchType(mt); err != nil {
		return nil, err
	}
	return orchestrator.PairRequests(rr.Candidates, rr.Projects, mt), nil
}

// matchResponse is the body returned by POST /match.
type matchResponse struct {
	QueryID      string                   `json:"query_id"`
	Route        string                   `json:"route"`
	Strategy     matching.Strategy        `json:"strategy"`
	Results      []core.MatchResult       `json:"matches"`
	Degradations []matching.DegradeReason `json:"degradations,omitempty"`
	Log          []string                 `json:"log,omitempty"`
}

type server struct {
	ctx      context.Context
	orch     *orchestrator.Orchestrator
	pipeline *matching.Pipeline
	events   http.Handler
	metrics  http.Handler
	runs     sync.WaitGroup
	logger   *slog.Logger
}

// newServer builds the HTTP surface. Async runs derive from ctx, so
// canceling it stops every in-flight session.
func newServer(ctx context.Context, orch *orchestrator.Orchestrator, pipeline *matching.Pipeline, reg *prometheus.Registry, logger *slog.Logger) *server {
	if logger == nil {
		logger = slog.Default()
	}
	return &server{
		ctx:      ctx,
		orch:     orch,
		pipeline: pipeline,
		events:   stream.NewHandler(orch.Registry().Streams(), logger),
		metrics:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		logger:   logger.With("component", "server"),
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", s.createSession)
	mux.HandleFunc("POST /sessions/{id}/runs", s.startRun)
	mux.Handle("GET /sessions/{id}/events", s.events)
	mux.HandleFunc("GET /sessions/{id}/progress", s.progress)
	mux.HandleFunc("DELETE /sessions/{id}", s.deleteSession)
	mux.HandleFunc("POST /match", s.match)
	mux.Handle("GET /metrics", s.metrics)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

func (s *server) createSession(w http.ResponseWriter, r *http.Request) {
	s.launch(w, r, orchestrator.NewSessionID())
}

func (s *server) startRun(w http.ResponseWriter, r *http.Request) {
	s.launch(w, r, r.PathValue("id"))
}

func (s *server) launch(w http.ResponseWriter, r *http.Request, id string) {
	var body runRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	requests, err := body.build()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	// Create the session before replying so clients can subscribe at once.
	sess := s.orch.Registry().Session(id)
	if sess.Tracker().IsCompleted() {
		writeError(w, http.StatusConflict, orchestrator.ErrSessionCompleted)
		return
	}

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		if _, err := s.orch.Run(s.ctx, id, requests); err != nil {
			s.logger.Warn("session run failed", "session", id, "err", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"session_id": id,
		"requests":   len(requests),
		"events":     fmt.Sprintf("/sessions/%s/events", id),
	})
}

func (s *server) progress(w http.ResponseWriter, r *http.Request) {
	overall, err := s.orch.Status(r.PathValue("id"))
	if errors.Is(err, core.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, overall)
}

func (s *server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.orch.CleanupSession(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, core.ErrSessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) match(w http.ResponseWriter, r *http.Request) {
	var req core.MatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	run, err := s.pipeline.Run(r.Context(), req)
	switch {
	case errors.Is(err, core.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, matchResponse{
		QueryID:      req.QueryID,
		Route:        run.Route.String(),
		Strategy:     run.Strategy,
		Results:      run.Results,
		Degradations: run.Degradations,
		Log:          run.Log,
	})
}

// cleanupLoop drops completed sessions older than maxAge every interval
// until ctx is done.
func (s *server) cleanupLoop(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sessions := s.orch.Registry().CleanupCompleted(maxAge)
			buses := s.orch.Registry().Streams().CleanupInactive(maxAge)
			if sessions+buses > 0 {
				s.logger.Info("cleaned up sessions", "sessions", sessions, "streams", buses)
			}
		}
	}
}

// wait blocks until every async run has returned.
func (s *server) wait() {
	s.runs.Wait()
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
