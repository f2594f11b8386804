package stream

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultInactiveAge is how long a bus may stay silent before
// CleanupInactive removes it.
const DefaultInactiveAge = 300 * time.Second

// Manager owns the buses of all live sessions.
type Manager struct {
	mu     sync.RWMutex
	buses  map[string]*Bus
	logger *slog.Logger
}

// NewManager creates an empty manager. A nil logger uses slog.Default().
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{buses: make(map[string]*Bus), logger: logger}
}

// Create returns a new bus for id. If one exists it is returned unchanged.
func (m *Manager) Create(id string) *Bus {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.buses[id]; ok {
		m.logger.Warn("stream already exists", "session", id)
		return b
	}
	b := NewBus(id, m.logger)
	m.buses[id] = b
	m.logger.Info("created stream", "session", id)
	return b
}

// Get returns the bus for id.
func (m *Manager) Get(id string) (*Bus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.buses[id]
	return b, ok
}

// GetOrCreate returns the bus for id, creating it if missing.
func (m *Manager) GetOrCreate(id string) *Bus {
	if b, ok := m.Get(id); ok {
		return b
	}
	return m.Create(id)
}

// Remove closes and drops the bus for id. It reports whether one existed.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	b, ok := m.buses[id]
	delete(m.buses, id)
	m.mu.Unlock()
	if !ok {
		return false
	}
	b.Close()
	m.logger.Info("removed stream", "session", id)
	return true
}

// Active lists the ids of buses still accepting events.
func (m *Manager) Active() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.buses))
	for id, b := range m.buses {
		if b.IsActive() {
			ids = append(ids, id)
		}
	}
	return ids
}

// CleanupInactive removes completed buses and buses silent for longer than
// maxAge. maxAge <= 0 uses DefaultInactiveAge. Returns how many were removed.
func (m *Manager) CleanupInactive(maxAge time.Duration) int {
	if maxAge <= 0 {
		maxAge = DefaultInactiveAge
	}
	now := timeNow()

	m.mu.Lock()
	var stale []*Bus
	for id, b := range m.buses {
		if !b.IsActive() || now.Sub(b.LastActivity()) > maxAge {
			stale = append(stale, b)
			delete(m.buses, id)
		}
	}
	m.mu.Unlock()

	for _, b := range stale {
		b.Close()
	}
	if len(stale) > 0 {
		m.logger.Info("cleaned up inactive streams", "count", len(stale))
	}
	return len(stale)
}
