package reembed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		BatchSize:      3,
		ReportInterval: 3,
		MaxRetries:     3,
		RetryDelay:     10 * time.Millisecond,
	}
}

func TestNewReembedder_Validation(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewReembedder(nil, &mockEmbedder{}, nil, nil, nil)
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = NewReembedder(repo, nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestReembedder_Run(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	seedCandidates(t, repo, 10)
	_, err := repo.AddRecords(ctx,
		storage.NewProjectRecord(&core.Project{ID: "P1", Title: "Payments"}, nil),
		storage.NewProjectRecord(&core.Project{ID: "P2", Title: "Search"}, nil),
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	indexer := &recordingIndexer{}
	reembedder, err := NewReembedder(repo, &mockEmbedder{}, indexer, testConfig(), &buf)
	require.NoError(t, err)

	processed, err := reembedder.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, processed)
	assert.Len(t, indexer.ids, 12)

	for _, kind := range []core.Kind{core.KindCandidate, core.KindProject} {
		records, err := repo.ListRecords(ctx, kind)
		require.NoError(t, err)
		for _, record := range records {
			require.NotEmpty(t, record.Vector, "record %s should have embedding", record.ID())
			var magnitude float32
			for _, v := range record.Vector {
				magnitude += v * v
			}
			assert.InDelta(t, 1.0, magnitude, 0.01, "vector should be normalized")
		}
	}

	output := buf.String()
	assert.Contains(t, output, "candidate: 10/10")
	assert.Contains(t, output, "project: 2/2")
}

func TestReembedder_EmptyDatabase(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	var buf bytes.Buffer
	reembedder, err := NewReembedder(repo, &mockEmbedder{}, nil, DefaultConfig(), &buf)
	require.NoError(t, err)

	processed, err := reembedder.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, processed)
	assert.Contains(t, buf.String(), "No candidate records found")
	assert.Contains(t, buf.String(), "No project records found")
}

func TestReembedder_SelectedKinds(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	seedCandidates(t, repo, 2)

	cfg := testConfig()
	cfg.Kinds = []core.Kind{core.KindProject}
	embedder := &mockEmbedder{}
	reembedder, err := NewReembedder(repo, embedder, nil, cfg, nil)
	require.NoError(t, err)

	processed, err := reembedder.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, processed)
	assert.Equal(t, int32(0), embedder.calls.Load())
}

func TestReembedder_BatchFailure(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	seedCandidates(t, repo, 5)

	embedder := &mockEmbedder{
		embedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, errors.New("model unavailable")
		},
	}
	cfg := testConfig()
	cfg.MaxRetries = 1
	reembedder, err := NewReembedder(repo, embedder, nil, cfg, nil)
	require.NoError(t, err)

	processed, err := reembedder.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")
	assert.Zero(t, processed)
}
