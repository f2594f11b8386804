package qdrant

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/talentmatch/ai/mock"
	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/storage"
)

func TestConfigFromURL(t *testing.T) {
	config, err := ConfigFromURL("https://vectors.example.com:7334")
	require.NoError(t, err)
	assert.Equal(t, "vectors.example.com", config.Host)
	assert.Equal(t, 7334, config.Port)
	assert.True(t, config.UseTLS)

	config, err = ConfigFromURL("http://localhost")
	require.NoError(t, err)
	assert.Equal(t, 6334, config.Port)
	assert.False(t, config.UseTLS)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	config := DefaultConfig()
	config.ProjectCollection = config.CandidateCollection
	assert.ErrorIs(t, config.Validate(), ErrInvalidConfig)

	config = DefaultConfig()
	config.Port = 0
	assert.ErrorIs(t, config.Validate(), ErrInvalidConfig)
}

func TestPointID_Deterministic(t *testing.T) {
	a := pointID(core.KindCandidate, "C1")
	assert.Equal(t, a, pointID(core.KindCandidate, "C1"))
	assert.NotEqual(t, a, pointID(core.KindProject, "C1"))
}

func TestBuildFilter(t *testing.T) {
	assert.Nil(t, buildFilter(nil))
	assert.Nil(t, buildFilter(map[string]string{"location": ""}))

	f := buildFilter(map[string]string{storage.AttrLocationPreference: "Beijing", storage.AttrSkills: "Java"})
	require.NotNil(t, f)
	assert.Len(t, f.Must, 2)
}

func TestPayloadToAttributes(t *testing.T) {
	payload := qdrant.NewValueMap(map[string]any{"id": "C1", "name": "Zhang San"})
	attrs := payloadToAttributes(payload)
	assert.Equal(t, "C1", attrs["id"])
	item := storage.ItemFromAttributes(core.KindCandidate, attrs, 0.7)
	assert.Equal(t, "Zhang San", item.Name())
}

func TestNewWithClient_Validation(t *testing.T) {
	_, err := NewWithClient(nil, nil, mock.NewMockEmbedder())
	assert.ErrorIs(t, err, ErrClientRequired)
}

// TestStore_Integration requires a Qdrant instance on localhost:6334.
func TestStore_Integration(t *testing.T) {
	conn, err := net.DialTimeout("tcp", "localhost:6334", time.Second)
	if err != nil {
		t.Skip("Qdrant not available, skipping integration test")
	}
	conn.Close()

	embedder := mock.NewMockEmbedder()
	embedder.Dim = 8
	config := DefaultConfig()
	config.VectorSize = 8
	suffix := time.Now().Format("150405")
	config.CandidateCollection = "tm_test_candidates_" + suffix
	config.ProjectCollection = "tm_test_projects_" + suffix

	store, err := New(config, embedder)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.EnsureCollections(ctx))
	defer func() {
		_ = store.client.DeleteCollection(ctx, config.CandidateCollection)
		_ = store.client.DeleteCollection(ctx, config.ProjectCollection)
	}()

	cand := &core.Candidate{ID: "C1", Name: "Zhang San", Skills: "Java Spring", LocationPreference: "Beijing"}
	vec, err := embedder.EmbedText(ctx, "java engineer")
	require.NoError(t, err)
	require.NoError(t, store.Index(ctx, storage.NewCandidateRecord(cand, vec)))

	items, err := store.Search(ctx, core.KindCandidate, "java engineer", nil, 5, 0.5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "C1", items[0].ID())
	assert.InDelta(t, 1.0, items[0].Similarity, 1e-3)

	items, err = store.Search(ctx, core.KindCandidate, "", map[string]string{storage.AttrLocationPreference: "Beijing"}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
