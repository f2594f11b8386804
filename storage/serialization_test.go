package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/talentmatch/core"
)

func TestMarshalUnmarshalRecord(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("candidate with vector", func(t *testing.T) {
		rec := NewCandidateRecord(&core.Candidate{
			ID:                 "C001",
			Name:               "张三",
			Skills:             "Java, Spring",
			Experience:         "5年",
			LocationPreference: "北京",
		}, []float32{0.1, 0.2, 0.3})
		rec.InsertedAt = now
		rec.UpdatedAt = now

		data, err := MarshalRecord(rec)
		require.NoError(t, err)

		decoded, err := UnmarshalRecord(data)
		require.NoError(t, err)
		assert.Equal(t, core.KindCandidate, decoded.Kind)
		assert.Equal(t, rec.Candidate, decoded.Candidate)
		assert.Nil(t, decoded.Project)
		assert.Equal(t, rec.Vector, decoded.Vector)
		assert.True(t, now.Equal(decoded.InsertedAt))
	})

	t.Run("project without vector", func(t *testing.T) {
		rec := NewProjectRecord(&core.Project{ID: "P001", Title: "电商平台开发", Budget: "20-30k"}, nil)

		data, err := MarshalRecord(rec)
		require.NoError(t, err)

		decoded, err := UnmarshalRecord(data)
		require.NoError(t, err)
		assert.Equal(t, rec.Project, decoded.Project)
		assert.Empty(t, decoded.Vector)
	})
}

func TestUnmarshalRecord_Invalid(t *testing.T) {
	_, err := UnmarshalRecord(nil)
	assert.ErrorIs(t, err, ErrTruncatedData)

	_, err = UnmarshalRecord([]byte{0xff, 0x00, 0x13})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalMatches(t *testing.T) {
	results := []core.MatchResult{
		{ID: "C1", Name: "Zhang San", Score: 88, Reason: "hybrid"},
		{ID: "C2", Name: "Li Si", Score: 61, Reason: "vector similarity 0.610"},
	}
	data, err := MarshalMatches(results)
	require.NoError(t, err)

	decoded, err := UnmarshalMatches(data)
	require.NoError(t, err)
	assert.Equal(t, results, decoded)

	_, err = UnmarshalMatches(nil)
	assert.ErrorIs(t, err, ErrTruncatedData)
}
