package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CreateGet(t *testing.T) {
	m := NewManager(nil)

	b := m.Create("s1")
	assert.Same(t, b, m.Create("s1"))

	got, ok := m.Get("s1")
	require.True(t, ok)
	assert.Same(t, b, got)

	_, ok = m.Get("missing")
	assert.False(t, ok)

	assert.Same(t, b, m.GetOrCreate("s1"))
	assert.NotNil(t, m.GetOrCreate("s2"))
	assert.ElementsMatch(t, []string{"s1", "s2"}, m.Active())
}

func TestManager_Remove(t *testing.T) {
	m := NewManager(nil)
	b := m.Create("s1")
	sub := b.Subscribe(1)

	assert.True(t, m.Remove("s1"))
	assert.False(t, m.Remove("s1"))
	assert.False(t, b.IsActive())
	_, ok := <-sub.C
	assert.False(t, ok)
}

func TestManager_CleanupInactive(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	orig := timeNow
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = orig })

	m := NewManager(nil)
	m.Create("idle")
	m.Create("busy")
	m.Create("done").Complete(nil, nil)

	now = start.Add(4 * time.Minute)
	busy, _ := m.Get("busy")
	busy.Status("working", nil)

	now = start.Add(6 * time.Minute)
	assert.Equal(t, 2, m.CleanupInactive(0))

	_, ok := m.Get("busy")
	assert.True(t, ok)
	_, ok = m.Get("idle")
	assert.False(t, ok)
	_, ok = m.Get("done")
	assert.False(t, ok)
}
