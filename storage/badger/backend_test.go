package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/storage"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := t.TempDir()
	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	assert.False(t, backend.IsClosed())
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	_, err = backend.FindSimilar(context.Background(), core.KindCandidate, []float32{1}, 0, 10)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestFindSimilar_NoRecords(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	results, err := backend.FindSimilar(context.Background(), core.KindCandidate, []float32{0.1, 0.2, 0.3}, 0.5, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilar_InvalidKind(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	_, err = backend.FindSimilar(context.Background(), core.Kind("robot"), []float32{1}, 0, 10)
	assert.ErrorIs(t, err, storage.ErrInvalidKind)
}

func seedVectors(t *testing.T, repo storage.RecordRepository) {
	t.Helper()
	records := []*storage.Record{
		storage.NewCandidateRecord(&core.Candidate{ID: "C1", Name: "First"}, []float32{1.0, 0.0, 0.0}),
		storage.NewCandidateRecord(&core.Candidate{ID: "C2", Name: "Second"}, []float32{0.9, 0.1, 0.0}),
		storage.NewCandidateRecord(&core.Candidate{ID: "C3", Name: "Third"}, []float32{0.0, 0.0, 1.0}),
		storage.NewCandidateRecord(&core.Candidate{ID: "C4", Name: "No vector"}, nil),
		storage.NewProjectRecord(&core.Project{ID: "P1", Title: "Same direction"}, []float32{1.0, 0.0, 0.0}),
	}
	_, err := repo.AddRecords(context.Background(), records...)
	require.NoError(t, err)
}

func TestFindSimilar_WithRecords(t *testing.T) {
	recordRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	seedVectors(t, recordRepo)

	results, err := recordRepo.FindSimilar(context.Background(), core.KindCandidate, []float32{1.0, 0.0, 0.0}, 0.8, 10)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "C1", results[0].Record.Candidate.ID)
	assert.Equal(t, "C2", results[1].Record.Candidate.ID)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestFindSimilar_LimitResults(t *testing.T) {
	recordRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	seedVectors(t, recordRepo)

	results, err := recordRepo.FindSimilar(context.Background(), core.KindCandidate, []float32{1.0, 0.0, 0.0}, 0, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "C1", results[0].Record.Candidate.ID)
}

func TestFindSimilar_KindsAreSeparate(t *testing.T) {
	recordRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	seedVectors(t, recordRepo)

	results, err := recordRepo.FindSimilar(context.Background(), core.KindProject, []float32{1.0, 0.0, 0.0}, 0.5, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "P1", results[0].Record.Project.ID)
}

func TestFindSimilar_EmptyQuery(t *testing.T) {
	recordRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	_, err = recordRepo.FindSimilar(context.Background(), core.KindCandidate, nil, 0, 10)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestFindSimilar_SkipsOtherDimensions(t *testing.T) {
	recordRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	seedVectors(t, recordRepo)

	results, err := recordRepo.FindSimilar(context.Background(), core.KindCandidate, []float32{1.0, 0.0}, -1, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilar_TiesOrderedByID(t *testing.T) {
	recordRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	_, err = recordRepo.AddRecords(context.Background(),
		storage.NewCandidateRecord(&core.Candidate{ID: "C9", Name: "Later"}, []float32{0, 1}),
		storage.NewCandidateRecord(&core.Candidate{ID: "C5", Name: "Earlier"}, []float32{0, 1}),
	)
	require.NoError(t, err)

	results, err := recordRepo.FindSimilar(context.Background(), core.KindCandidate, []float32{0, 1}, 0.5, 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "C5", results[0].Record.ID())
	assert.Equal(t, "C9", results[1].Record.ID())
}

func TestDotProduct(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float32
	}{
		{"identical vectors", []float32{1, 0, 0}, []float32{1, 0, 0}, 1.0},
		{"orthogonal vectors", []float32{1, 0, 0}, []float32{0, 1, 0}, 0.0},
		{"opposite vectors", []float32{1, 0, 0}, []float32{-1, 0, 0}, -1.0},
		{"general case", []float32{0.6, 0.8}, []float32{0.8, 0.6}, 0.96},
		{"different lengths - use min", []float32{1, 2, 3}, []float32{1, 2}, 5.0},
		{"empty vectors", []float32{}, []float32{}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, dotProduct(tt.a, tt.b), 0.0001)
		})
	}
}

func TestWithTransaction(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()

	t.Run("successful transaction", func(t *testing.T) {
		err := backend.WithTransaction(ctx, func(ctx context.Context) error {
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("failed transaction", func(t *testing.T) {
		err := backend.WithTransaction(ctx, func(ctx context.Context) error {
			return assert.AnError
		})
		assert.Equal(t, assert.AnError, err)
	})
}
