// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package batch runs a function over a slice of items, either on a fixed
// ants worker pool or as semaphore-gated goroutines.
//
// Both modes split the input into consecutive batches, finish each batch
// before starting the next, and write results by input index so results[i]
// always belongs to items[i]. Item failures and panics are captured in the
// item's Result and never abort sibling items.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/semaphore"
)

// Mode selects how items within a batch are executed.
type Mode int

const (
	// ModeWorkerPool submits items to a fixed-size ants pool.
	ModeWorkerPool Mode = iota
	// ModeConcurrent runs one goroutine per item, at most maxConcurrent at once.
	ModeConcurrent
)

func (m Mode) String() string {
	switch m {
	case ModeWorkerPool:
		return "worker_pool"
	case ModeConcurrent:
		return "concurrent"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ProgressFunc is called once per completed batch with the number of items
// finished so far and the total.
type ProgressFunc func(completed, total int)

// Result is the outcome of one item.
type Result[O any] struct {
	Value O
	Err   error
}

// OK reports whether the item succeeded.
func (r Result[O]) OK() bool {
	return r.Err == nil
}

// Executor holds the execution settings and the worker pool.
type Executor struct {
	mode          Mode
	pool          *ants.Pool
	poolSize      int
	batchSize     int
	maxConcurrent int
	metrics       *Metrics
	logger        *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor) error

// WithMode sets the default execution mode used by Run.
// Default is ModeWorkerPool.
func WithMode(mode Mode) Option {
	return func(e *Executor) error {
		if mode != ModeWorkerPool && mode != ModeConcurrent {
			return fmt.Errorf("unknown batch mode %d", int(mode))
		}
		e.mode = mode
		return nil
	}
}

// WithPoolSize sets the worker pool size.
// Default is runtime.NumCPU().
func WithPoolSize(size int) Option {
	return func(e *Executor) error {
		if size < 1 {
			return fmt.Errorf("%w: pool size %d", ErrInvalidConcurrency, size)
		}
		e.poolSize = size
		return nil
	}
}

// WithBatchSize sets how many items make up one batch.
// Default is 10.
func WithBatchSize(size int) Option {
	return func(e *Executor) error {
		if size < 1 {
			return fmt.Errorf("%w: got %d", ErrInvalidBatchSize, size)
		}
		e.batchSize = size
		return nil
	}
}

// WithMaxConcurrent sets the in-flight limit for ModeConcurrent.
// Default is 5.
func WithMaxConcurrent(n int) Option {
	return func(e *Executor) error {
		if n < 1 {
			return fmt.Errorf("%w: max concurrent %d", ErrInvalidConcurrency, n)
		}
		e.maxConcurrent = n
		return nil
	}
}

// WithMetrics records item and run metrics.
func WithMetrics(m *Metrics) Option {
	return func(e *Executor) error {
		e.metrics = m
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// New creates an executor. Call Release when done with it.
func New(opts ...Option) (*Executor, error) {
	e := &Executor{
		mode:          ModeWorkerPool,
		poolSize:      runtime.NumCPU(),
		batchSize:     10,
		maxConcurrent: 5,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "batch")

	logger := e.logger
	pool, err := ants.NewPool(e.poolSize, ants.WithPanicHandler(func(p any) {
		logger.Error("worker panicked outside item function", "panic", p)
	}))
	if err != nil {
		return nil, err
	}
	e.pool = pool
	return e, nil
}

// Mode returns the executor's default mode.
func (e *Executor) Mode() Mode {
	return e.mode
}

// BatchSize returns the configured batch size.
func (e *Executor) BatchSize() int {
	return e.batchSize
}

// Release frees the worker pool.
func (e *Executor) Release() {
	if e.pool != nil {
		e.pool.Release()
	}
}

// Run processes items with the executor's default mode.
func Run[I, O any](ctx context.Context, e *Executor, items []I, fn func(context.Context, I) (O, error), onProgress ProgressFunc) []Result[O] {
	if e.mode == ModeConcurrent {
		return RunAsync(ctx, e, items, fn, onProgress)
	}
	return RunSync(ctx, e, items, fn, onProgress)
}

// RunSync processes items batch by batch on the worker pool.
func RunSync[I, O any](ctx context.Context, e *Executor, items []I, fn func(context.Context, I) (O, error), onProgress ProgressFunc) []Result[O] {
	return run(ctx, e, ModeWorkerPool, items, fn, onProgress, func(wg *sync.WaitGroup, task func()) bool {
		if err := e.pool.Submit(func() {
			defer wg.Done()
			task()
		}); err != nil {
			wg.Done()
			e.logger.Error("failed to submit item to pool", "err", err)
			return false
		}
		return true
	})
}

// RunAsync processes items batch by batch, one goroutine per item, with at
// most maxConcurrent in flight.
func RunAsync[I, O any](ctx context.Context, e *Executor, items []I, fn func(context.Context, I) (O, error), onProgress ProgressFunc) []Result[O] {
	sem := semaphore.NewWeighted(int64(e.maxConcurrent))
	return run(ctx, e, ModeConcurrent, items, fn, onProgress, func(wg *sync.WaitGroup, task func()) bool {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Done()
			return false
		}
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			task()
		}()
		return true
	})
}

// dispatch starts task and reports whether it was started. It must call
// wg.Done exactly once, either after task runs or when it declines to run it.
type dispatch func(wg *sync.WaitGroup, task func()) bool

func run[I, O any](ctx context.Context, e *Executor, mode Mode, items []I, fn func(context.Context, I) (O, error), onProgress ProgressFunc, start dispatch) []Result[O] {
	results := make([]Result[O], len(items))
	if len(items) == 0 {
		return results
	}

	began := time.Now()
	defer func() { e.metrics.observeRun(mode, time.Since(began).Seconds()) }()

	for lo := 0; lo < len(items); lo += e.batchSize {
		hi := min(lo+e.batchSize, len(items))

		var wg sync.WaitGroup
		for i := lo; i < hi; i++ {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				e.metrics.observeItem(mode, StatusCanceled)
				continue
			}
			wg.Add(1)
			idx := i
			if !start(&wg, func() { results[idx] = invoke(ctx, e, mode, idx, items[idx], fn) }) {
				if err := ctx.Err(); err != nil {
					results[idx].Err = err
					e.metrics.observeItem(mode, StatusCanceled)
				} else {
					results[idx].Err = fmt.Errorf("item %d was not scheduled", idx)
					e.metrics.observeItem(mode, StatusFailure)
				}
			}
		}
		wg.Wait()

		if onProgress != nil {
			onProgress(hi, len(items))
		}
	}

	return results
}

// invoke runs fn for one item, converting a panic into the item's error.
func invoke[I, O any](ctx context.Context, e *Executor, mode Mode, idx int, item I, fn func(context.Context, I) (O, error)) (res Result[O]) {
	defer func() {
		if p := recover(); p != nil {
			res = Result[O]{Err: fmt.Errorf("%w: item %d: %v", ErrPanic, idx, p)}
			e.logger.Error("item function panicked", "index", idx, "panic", p)
			e.metrics.observeItem(mode, StatusFailure)
		}
	}()

	value, err := fn(ctx, item)
	if err != nil {
		e.logger.Warn("item failed", "index", idx, "mode", mode, "err", err)
		e.metrics.observeItem(mode, StatusFailure)
		return Result[O]{Err: err}
	}
	e.metrics.observeItem(mode, StatusSuccess)
	return Result[O]{Value: value}
}
