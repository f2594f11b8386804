package chromem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/talentmatch/ai/mock"
	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if text == "cooking" {
			return []float32{0, 0, 1}, nil
		}
		return []float32{1, 0, 0}, nil
	}

	store, err := New(embedder)
	require.NoError(t, err)

	records := []*storage.Record{
		storage.NewCandidateRecord(&core.Candidate{ID: "C1", Name: "Zhang San", LocationPreference: "Beijing"}, []float32{1, 0, 0}),
		storage.NewCandidateRecord(&core.Candidate{ID: "C2", Name: "Li Si", LocationPreference: "Shanghai"}, []float32{0.8, 0.2, 0}),
		storage.NewCandidateRecord(&core.Candidate{ID: "C3", Name: "Wang Wu", LocationPreference: "Beijing"}, []float32{0, 0, 1}),
		storage.NewProjectRecord(&core.Project{ID: "P1", Title: "Trading"}, []float32{1, 0, 0}),
	}
	require.NoError(t, store.Index(context.Background(), records...))
	return store
}

func TestNew_RequiresEmbedder(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestSearch_Similarity(t *testing.T) {
	store := newTestStore(t)

	items, err := store.Search(context.Background(), core.KindCandidate, "java", nil, 20, 0.6)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "C1", items[0].ID())
	assert.InDelta(t, 1.0, items[0].Similarity, 1e-5)
	assert.Equal(t, "C2", items[1].ID())
}

func TestSearch_FiltersAndLimit(t *testing.T) {
	store := newTestStore(t)

	items, err := store.Search(context.Background(), core.KindCandidate, "java", map[string]string{storage.AttrLocationPreference: "shanghai"}, 20, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Li Si", items[0].Name())

	items, err = store.Search(context.Background(), core.KindCandidate, "java", nil, 1, 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestSearch_EmptyQueryListsInOrder(t *testing.T) {
	store := newTestStore(t)

	items, err := store.Search(context.Background(), core.KindCandidate, "", map[string]string{storage.AttrLocationPreference: "beijing"}, 0, 0.6)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "C1", items[0].ID())
	assert.Equal(t, "C3", items[1].ID())
	assert.Zero(t, items[0].Similarity)
}

func TestSearch_KindsAreSeparate(t *testing.T) {
	store := newTestStore(t)

	items, err := store.Search(context.Background(), core.KindProject, "java", nil, 20, 0.5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Trading", items[0].Name())

	_, err = store.Search(context.Background(), core.Kind("robot"), "java", nil, 20, 0.5)
	assert.ErrorIs(t, err, storage.ErrInvalidKind)
}

func TestSearch_EmptyCollection(t *testing.T) {
	store, err := New(mock.NewMockEmbedder())
	require.NoError(t, err)

	items, err := store.Search(context.Background(), core.KindCandidate, "java", nil, 20, 0.6)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestIndex_ReplaceKeepsOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Index(ctx, storage.NewCandidateRecord(&core.Candidate{ID: "C1", Name: "Zhang San Jr"}, []float32{1, 0, 0})))

	items, err := store.Search(ctx, core.KindCandidate, "", nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Zhang San Jr", items[0].Name())
}
