package redis

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/storage"
)

func TestNewSink_Validation(t *testing.T) {
	_, err := NewSink(nil)
	assert.ErrorIs(t, err, ErrClientRequired)

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	_, err = NewSink(client, WithTTL(-time.Second))
	assert.Error(t, err)

	sink, err := NewSink(client, WithPrefix("x:"), WithLogger(nil))
	require.NoError(t, err)
	assert.Equal(t, "x:P1", sink.Key("P1"))
}

// TestSink_SaveGet requires a Redis instance on localhost:6379.
func TestSink_SaveGet(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available, skipping integration test")
	}
	defer client.Close()

	prefix := "talentmatch-test-" + strconv.FormatInt(time.Now().UnixNano(), 10) + ":"
	sink, err := NewSink(client, WithPrefix(prefix), WithTTL(time.Minute))
	require.NoError(t, err)

	ctx = context.Background()
	_, err = sink.Get(ctx, "P1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	results := []core.MatchResult{{ID: "C1", Name: "Zhang San", Score: 80, Reason: "hybrid"}}
	require.NoError(t, sink.Save(ctx, "P1", results))
	defer client.Del(ctx, sink.Key("P1"))

	got, err := sink.Get(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, results, got)

	ttl, err := client.TTL(ctx, sink.Key("P1")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	assert.ErrorIs(t, sink.Save(ctx, "", results), core.ErrEmptyID)
}
