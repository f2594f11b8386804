package progress

import (
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/talentmatch/batch"
)

// DefaultTotalStages is the stage count of trackers created implicitly.
const DefaultTotalStages = 8

// DefaultMaxAge is how long completed trackers are kept by CleanupCompleted.
const DefaultMaxAge = time.Hour

// Manager owns the trackers of all live sessions.
type Manager struct {
	mu       sync.RWMutex
	trackers map[string]*Tracker
	logger   *slog.Logger
}

// NewManager creates an empty manager. A nil logger uses slog.Default().
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		trackers: make(map[string]*Tracker),
		logger:   logger,
	}
}

// CreateTracker creates a tracker, replacing any existing one for id.
// totalStages < 1 uses DefaultTotalStages.
func (m *Manager) CreateTracker(id string, totalStages int) *Tracker {
	if totalStages < 1 {
		totalStages = DefaultTotalStages
	}
	t := NewTracker(id, totalStages, m.logger)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.trackers[id]; exists {
		m.logger.Warn("replacing existing tracker", "session", id)
	}
	m.trackers[id] = t
	return t
}

// Lookup returns the tracker for id without creating one.
func (m *Manager) Lookup(id string) (*Tracker, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.trackers[id]
	return t, ok
}

// Tracker returns the tracker for id, creating a default one if missing.
func (m *Manager) Tracker(id string) *Tracker {
	if t, ok := m.Lookup(id); ok {
		return t
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.trackers[id]; ok {
		return t
	}
	m.logger.Warn("no tracker for session, creating default", "session", id)
	t := NewTracker(id, DefaultTotalStages, m.logger)
	m.trackers[id] = t
	return t
}

// Remove drops the tracker for id. It reports whether one existed.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trackers[id]; !ok {
		return false
	}
	delete(m.trackers, id)
	m.logger.Info("removed tracker", "session", id)
	return true
}

// Len returns the number of live trackers.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trackers)
}

// All returns an overview of every tracker keyed by session id.
func (m *Manager) All() map[string]Overall {
	m.mu.RLock()
	trackers := make(map[string]*Tracker, len(m.trackers))
	for id, t := range m.trackers {
		trackers[id] = t
	}
	m.mu.RUnlock()

	out := make(map[string]Overall, len(trackers))
	for id, t := range trackers {
		out[id] = t.Overall()
	}
	return out
}

// BatchCallback adapts a session stage to a batch progress callback. The
// first call starts the stage with the batch total. The session's tracker is
// created if missing.
func (m *Manager) BatchCallback(id string, stage Stage) batch.ProgressFunc {
	t := m.Tracker(id)
	var once sync.Once
	return func(completed, total int) {
		once.Do(func() {
			if _, ok := t.Stage(stage); !ok {
				t.StartStage(stage, total, "starting "+string(stage))
			}
		})
		t.UpdateProgress(stage, completed, "")
	}
}

// CleanupCompleted removes completed trackers older than maxAge and returns
// how many were removed. maxAge <= 0 uses DefaultMaxAge.
func (m *Manager) CleanupCompleted(maxAge time.Duration) int {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	now := timeNow()

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, t := range m.trackers {
		if t.IsCompleted() && now.Sub(t.startTime) > maxAge {
			delete(m.trackers, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("cleaned up completed trackers", "count", removed)
	}
	return removed
}
