package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExecutor(t *testing.T, opts ...Option) *Executor {
	t.Helper()
	e, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(e.Release)
	return e
}

// slowFirst makes lower indexes finish later so completion order is reversed.
func slowFirst(total int) func(context.Context, int) (int, error) {
	return func(ctx context.Context, i int) (int, error) {
		time.Sleep(time.Duration(total-i) * 2 * time.Millisecond)
		return i * 10, nil
	}
}

func TestNew_Options(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		e := newExecutor(t)
		assert.Equal(t, ModeWorkerPool, e.Mode())
		assert.Equal(t, 10, e.BatchSize())
	})

	tests := []struct {
		name string
		opt  Option
		err  error
	}{
		{"zero batch size", WithBatchSize(0), ErrInvalidBatchSize},
		{"zero pool size", WithPoolSize(0), ErrInvalidConcurrency},
		{"zero max concurrent", WithMaxConcurrent(0), ErrInvalidConcurrency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opt)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	t.Run("unknown mode", func(t *testing.T) {
		_, err := New(WithMode(Mode(7)))
		assert.Error(t, err)
	})
}

func TestRunSync_IndexAligned(t *testing.T) {
	e := newExecutor(t, WithPoolSize(4), WithBatchSize(5))
	items := []int{0, 1, 2, 3, 4, 5, 6, 7}

	results := RunSync(context.Background(), e, items, slowFirst(len(items)), nil)

	require.Len(t, results, len(items))
	for i, r := range results {
		require.NoError(t, r.Err)
		assert.Equal(t, i*10, r.Value, "result %d", i)
	}
}

func TestRunAsync_IndexAligned(t *testing.T) {
	e := newExecutor(t, WithMaxConcurrent(3), WithBatchSize(4))
	items := []int{0, 1, 2, 3, 4, 5, 6, 7, 8}

	results := RunAsync(context.Background(), e, items, slowFirst(len(items)), nil)

	require.Len(t, results, len(items))
	for i, r := range results {
		require.True(t, r.OK())
		assert.Equal(t, i*10, r.Value, "result %d", i)
	}
}

func TestRun_FailuresAndPanicsAreCaptured(t *testing.T) {
	for _, mode := range []Mode{ModeWorkerPool, ModeConcurrent} {
		t.Run(mode.String(), func(t *testing.T) {
			e := newExecutor(t, WithMode(mode), WithBatchSize(2))
			boom := errors.New("boom")
			fn := func(ctx context.Context, i int) (string, error) {
				switch i {
				case 1:
					return "", boom
				case 2:
					panic("kaboom")
				}
				return "ok", nil
			}

			results := Run(context.Background(), e, []int{0, 1, 2, 3}, fn, nil)

			require.Len(t, results, 4)
			assert.Equal(t, "ok", results[0].Value)
			assert.ErrorIs(t, results[1].Err, boom)
			assert.ErrorIs(t, results[2].Err, ErrPanic)
			assert.Equal(t, "ok", results[3].Value)
		})
	}
}

func TestRun_ProgressPerBatch(t *testing.T) {
	for _, mode := range []Mode{ModeWorkerPool, ModeConcurrent} {
		t.Run(mode.String(), func(t *testing.T) {
			e := newExecutor(t, WithMode(mode), WithBatchSize(3))
			var mu sync.Mutex
			var calls [][2]int
			onProgress := func(completed, total int) {
				mu.Lock()
				defer mu.Unlock()
				calls = append(calls, [2]int{completed, total})
			}

			Run(context.Background(), e, make([]int, 7), func(ctx context.Context, i int) (int, error) {
				return i, nil
			}, onProgress)

			assert.Equal(t, [][2]int{{3, 7}, {6, 7}, {7, 7}}, calls)
		})
	}
}

func TestRunAsync_RespectsMaxConcurrent(t *testing.T) {
	e := newExecutor(t, WithMaxConcurrent(2), WithBatchSize(10))
	var inFlight, peak atomic.Int64

	RunAsync(context.Background(), e, make([]int, 10), func(ctx context.Context, _ int) (int, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return 0, nil
	}, nil)

	assert.LessOrEqual(t, peak.Load(), int64(2))
}

func TestRun_Canceled(t *testing.T) {
	for _, mode := range []Mode{ModeWorkerPool, ModeConcurrent} {
		t.Run(mode.String(), func(t *testing.T) {
			e := newExecutor(t, WithMode(mode), WithBatchSize(2))
			ctx, cancel := context.WithCancel(context.Background())

			results := Run(ctx, e, []int{0, 1, 2, 3, 4}, func(ctx context.Context, i int) (int, error) {
				if i == 1 {
					cancel()
				}
				return i, nil
			}, nil)

			require.Len(t, results, 5)
			// The first batch ran; later batches never started.
			assert.NoError(t, results[0].Err)
			for i := 2; i < 5; i++ {
				assert.ErrorIs(t, results[i].Err, context.Canceled, "item %d", i)
			}
		})
	}
}

func TestRun_Empty(t *testing.T) {
	e := newExecutor(t)
	called := false
	results := Run(context.Background(), e, nil, func(ctx context.Context, i int) (int, error) {
		return i, nil
	}, func(int, int) { called = true })
	assert.Empty(t, results)
	assert.False(t, called)
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))

	e := newExecutor(t, WithMetrics(m), WithMode(ModeConcurrent))
	Run(context.Background(), e, []int{0, 1, 2}, func(ctx context.Context, i int) (int, error) {
		if i == 2 {
			return 0, errors.New("nope")
		}
		return i, nil
	}, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.itemsTotal.WithLabelValues("concurrent", StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.itemsTotal.WithLabelValues("concurrent", StatusFailure)))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names[MetricItemsTotal])
	assert.True(t, names[MetricRunDuration])
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.observeItem(ModeWorkerPool, StatusSuccess)
	m.observeRun(ModeWorkerPool, 1)
}
