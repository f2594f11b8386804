package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/progress"
	"github.com/poiesic/talentmatch/stream"
)

func TestRegistry_SessionIsLazy(t *testing.T) {
	r := NewRegistry(nil)

	_, err := r.Lookup("s1")
	require.ErrorIs(t, err, core.ErrSessionNotFound)

	s := r.Session("s1")
	assert.Same(t, s, r.Session("s1"))
	assert.Equal(t, "s1", s.ID())
	assert.ElementsMatch(t, []string{"s1"}, r.IDs())

	tracker, ok := r.Progress().Lookup("s1")
	require.True(t, ok)
	assert.Same(t, s.Tracker(), tracker)

	bus, ok := r.Streams().Get("s1")
	require.True(t, ok)
	assert.Same(t, s.Bus(), bus)
}

func TestRegistry_Cleanup(t *testing.T) {
	r := NewRegistry(nil)
	s := r.Session("s1")
	sub := s.Bus().Subscribe(4)

	require.True(t, r.Cleanup("s1"))
	assert.False(t, r.Cleanup("s1"))
	assert.True(t, s.Closed())

	var last stream.Event
	for ev := range sub.C {
		last = ev
	}
	assert.Equal(t, stream.EventComplete, last.Type)
	assert.Equal(t, ErrSessionClosed.Error(), last.Payload.(stream.CompletePayload).Err)

	_, ok := r.Progress().Lookup("s1")
	assert.False(t, ok)
	_, ok = r.Streams().Get("s1")
	assert.False(t, ok)

	applied := s.apply(func(*progress.Tracker, *stream.Bus) {
		t.Fatal("closed session must not apply updates")
	})
	assert.False(t, applied)
}

func TestRegistry_CleanupCompleted(t *testing.T) {
	r := NewRegistry(nil)
	r.Session("live")
	done := r.Session("done")
	done.Tracker().CompleteSession(nil)

	assert.Zero(t, r.CleanupCompleted(0))

	assert.Equal(t, 1, r.CleanupCompleted(1))
	assert.ElementsMatch(t, []string{"live"}, r.IDs())
}

func TestPairRequests(t *testing.T) {
	candidates := testCandidates()
	projects := testProjects()
	candidates[0].ID = ""

	reqs := PairRequests(candidates, projects, core.MatchProjectToResume)
	require.Len(t, reqs, 4)

	assert.Equal(t, "match_0_1", reqs[1].QueryID)
	assert.Same(t, candidates[0], reqs[1].Candidate)
	assert.Same(t, projects[1], reqs[1].Project)
	assert.NotEmpty(t, candidates[0].ID)
	for _, req := range reqs {
		assert.NoError(t, core.ValidateMatchRequest(&req))
	}

	assert.Empty(t, PairRequests(nil, projects, core.MatchProjectToResume))
}
