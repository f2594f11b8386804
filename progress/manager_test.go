package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CreateLookupRemove(t *testing.T) {
	m := NewManager(nil)

	tr := m.CreateTracker("a", 0)
	assert.Equal(t, DefaultTotalStages, tr.Overall().TotalStages)

	got, ok := m.Lookup("a")
	require.True(t, ok)
	assert.Same(t, tr, got)

	_, ok = m.Lookup("b")
	assert.False(t, ok)

	assert.True(t, m.Remove("a"))
	assert.False(t, m.Remove("a"))
	assert.Equal(t, 0, m.Len())
}

func TestManager_TrackerAutoCreates(t *testing.T) {
	m := NewManager(nil)

	tr := m.Tracker("missing")
	require.NotNil(t, tr)
	assert.Same(t, tr, m.Tracker("missing"))
	assert.Equal(t, 1, m.Len())
}

func TestManager_BatchCallback(t *testing.T) {
	fakeClock(t)
	m := NewManager(nil)

	cb := m.BatchCallback("s1", StageMatching)
	cb(3, 7)
	cb(6, 7)
	cb(7, 7)

	info, ok := m.Tracker("s1").Stage(StageMatching)
	require.True(t, ok)
	assert.Equal(t, 7, info.Total)
	assert.Equal(t, 7, info.Current)
	assert.Equal(t, 100.0, info.Percentage())
}

func TestManager_CleanupCompleted(t *testing.T) {
	now := fakeClock(t)
	m := NewManager(nil)

	old := m.CreateTracker("old", 1)
	old.CompleteSession(nil)
	m.CreateTracker("running", 1)

	*now = now.Add(2 * time.Hour)
	fresh := m.CreateTracker("fresh", 1)
	fresh.CompleteSession(nil)

	assert.Equal(t, 1, m.CleanupCompleted(0))
	_, ok := m.Lookup("old")
	assert.False(t, ok)
	assert.Equal(t, 2, m.Len())
	assert.Len(t, m.All(), 2)
}
