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
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/progress"
	"github.com/poiesic/talentmatch/stream"
)

// Session pairs a tracker with its event bus. Every mutation goes through
// the session lock so cleanup cannot interleave with an update.
type Session struct {
	id      string
	tracker *progress.Tracker
	bus     *stream.Bus

	mu     sync.Mutex
	closed bool
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Tracker returns the session's progress tracker.
func (s *Session) Tracker() *progress.Tracker {
	return s.tracker
}

// Bus returns the session's event bus.
func (s *Session) Bus() *stream.Bus {
	return s.bus
}

// Closed reports whether the session was cleaned up.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// apply runs fn under the session lock. It returns false without calling fn
// once the session is closed.
func (s *Session) apply(fn func(t *progress.Tracker, b *stream.Bus)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	fn(s.tracker, s.bus)
	return true
}

// Registry owns the live sessions together with their progress and stream
// managers. It is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	progress *progress.Manager
	streams  *stream.Manager
	logger   *slog.Logger
}

// NewRegistry creates an empty registry. A nil logger uses slog.Default().
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		progress: progress.NewManager(logger),
		streams:  stream.NewManager(logger),
		logger:   logger.With("component", "registry"),
	}
}

// Progress returns the registry's progress manager.
func (r *Registry) Progress() *progress.Manager {
	return r.progress
}

// Streams returns the registry's stream manager.
func (r *Registry) Streams() *stream.Manager {
	return r.streams
}

// Session returns the session for id, creating it if missing.
func (r *Registry) Session(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s
	}
	s := &Session{
		id:      id,
		tracker: r.progress.CreateTracker(id, len(runStages)),
		bus:     r.streams.Create(id),
	}
	r.sessions[id] = s
	r.logger.Debug("session created", "session", id)
	return s
}

// Lookup returns the session for id without creating it.
func (r *Registry) Lookup(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
	}
	return s, nil
}

// IDs lists the live session ids.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Cleanup tears down a session: its bus completes (closing every
// subscriber) and both the tracker and the bus are removed while the session
// lock is held. It reports whether the session existed.
func (r *Registry) Cleanup(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.bus.Complete(nil, ErrSessionClosed)
	r.streams.Remove(id)
	r.progress.Remove(id)
	r.logger.Info("session cleaned up", "session", id)
	return true
}

// CleanupCompleted removes sessions that completed more than maxAge ago.
// maxAge <= 0 uses progress.DefaultMaxAge.
func (r *Registry) CleanupCompleted(maxAge time.Duration) int {
	if maxAge <= 0 {
		maxAge = progress.DefaultMaxAge
	}
	var stale []string
	r.mu.Lock()
	for id, s := range r.sessions {
		if s.tracker.IsCompleted() && time.Since(s.tracker.CompletedAt()) > maxAge {
			stale = append(stale, id)
		}
	}
	r.mu.Unlock()

	removed := 0
	for _, id := range stale {
		if r.Cleanup(id) {
			removed++
		}
	}
	return removed
}
