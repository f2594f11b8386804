package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/storage"
)

func TestRecordRepository_AddAndGet(t *testing.T) {
	recordRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	cand := &core.Candidate{Name: "Zhang San", Contact: "zs@example.com", Skills: "Java"}
	added, err := recordRepo.AddRecords(ctx, storage.NewCandidateRecord(cand, []float32{0.5, 0.5}))
	require.NoError(t, err)
	require.Len(t, added, 1)
	require.NotEmpty(t, cand.ID, "id should be derived from content")
	assert.False(t, added[0].InsertedAt.IsZero())

	got, err := recordRepo.GetRecord(ctx, core.KindCandidate, cand.ID)
	require.NoError(t, err)
	assert.Equal(t, cand, got.Candidate)
	assert.Equal(t, []float32{0.5, 0.5}, got.Vector)

	_, err = recordRepo.GetRecord(ctx, core.KindProject, cand.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRecordRepository_ReplaceKeepsInsertedAt(t *testing.T) {
	recordRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	_, err = recordRepo.AddRecords(ctx, storage.NewProjectRecord(&core.Project{ID: "P1", Title: "v1"}, nil))
	require.NoError(t, err)
	first, err := recordRepo.GetRecord(ctx, core.KindProject, "P1")
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)
	_, err = recordRepo.AddRecords(ctx, storage.NewProjectRecord(&core.Project{ID: "P1", Title: "v2"}, nil))
	require.NoError(t, err)
	second, err := recordRepo.GetRecord(ctx, core.KindProject, "P1")
	require.NoError(t, err)

	assert.Equal(t, "v2", second.Project.Title)
	assert.True(t, first.InsertedAt.Equal(second.InsertedAt))
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
}

func TestRecordRepository_ListGetDelete(t *testing.T) {
	recordRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()
	seedVectors(t, recordRepo)

	candidates, err := recordRepo.ListRecords(ctx, core.KindCandidate)
	require.NoError(t, err)
	assert.Len(t, candidates, 4)

	some, err := recordRepo.GetRecords(ctx, core.KindCandidate, "C1", "missing", "C3")
	require.NoError(t, err)
	assert.Len(t, some, 2)

	require.NoError(t, recordRepo.DeleteRecords(ctx, core.KindCandidate, "C1"))
	assert.ErrorIs(t, recordRepo.DeleteRecords(ctx, core.KindCandidate, "C1"), storage.ErrNotFound)

	candidates, err = recordRepo.ListRecords(ctx, core.KindCandidate)
	require.NoError(t, err)
	assert.Len(t, candidates, 3)
}

func TestRecordRepository_AddRejectsEmptyRecord(t *testing.T) {
	recordRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	_, err = recordRepo.AddRecords(context.Background(), &storage.Record{Kind: core.KindCandidate})
	assert.ErrorIs(t, err, core.ErrEmptyID)
}

func TestRecordSource_OverBadger(t *testing.T) {
	recordRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	seedVectors(t, recordRepo)
	ctx := context.Background()

	src := storage.NewRecordSource(recordRepo)
	cands, err := src.Candidates(ctx)
	require.NoError(t, err)
	assert.Len(t, cands, 4)

	projs, err := src.Projects(ctx)
	require.NoError(t, err)
	assert.Len(t, projs, 1)

	p, err := src.Project(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, "Same direction", p.Title)

	_, err = src.Candidate(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMatchRepository(t *testing.T) {
	_, matchRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	_, err = matchRepo.GetMatches(ctx, "P1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	results := []core.MatchResult{{ID: "C1", Name: "A", Score: 80, Reason: "r"}}
	require.NoError(t, matchRepo.Save(ctx, "P1", results))

	got, err := matchRepo.GetMatches(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, results, got)

	assert.ErrorIs(t, matchRepo.Save(ctx, "", results), core.ErrEmptyID)
}
