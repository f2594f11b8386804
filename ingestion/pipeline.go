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


package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/talentmatch/ai"
	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/storage"
)

// Pipeline orchestrates the ingestion and embedding of pool records.
type Pipeline struct {
	records       storage.RecordRepository
	embedder      ai.Embedder
	indexer       Indexer
	embeddingPool *ants.Pool
	embeddingProc processor
	pending       sync.WaitGroup
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.embeddingPool = pool
		return nil
	}
}

// WithIndexer forwards embedded records to a vector index.
func WithIndexer(indexer Indexer) Option {
	return func(p *Pipeline) error {
		p.indexer = indexer
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(records storage.RecordRepository, provider ai.AIProvider, opts ...Option) (*Pipeline, error) {
	if records == nil {
		return nil, ErrRecordRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := max(runtime.NumCPU()/2, 1)
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		records:       records,
		embedder:      provider.Embedder(),
		embeddingPool: pool,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	// Created after options so the processor sees the final indexer and logger.
	proc, err := newEmbeddingProcessor(records, p.embedder, p.indexer, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	p.embeddingProc = proc

	return p, nil
}

// IngestCandidates stores candidates and embeds them asynchronously.
// Candidates without an ID get a content-derived one. Returns the IDs in
// input order.
func (p *Pipeline) IngestCandidates(ctx context.Context, candidates ...*core.Candidate) ([]string, error) {
	records := make([]*storage.Record, 0, len(candidates))
	for _, c := range candidates {
		if c != nil {
			records = append(records, storage.NewCandidateRecord(c, nil))
		}
	}
	return p.ingest(ctx, core.KindCandidate, records)
}

// IngestProjects stores projects and embeds them asynchronously.
func (p *Pipeline) IngestProjects(ctx context.Context, projects ...*core.Project) ([]string, error) {
	records := make([]*storage.Record, 0, len(projects))
	for _, pr := range projects {
		if pr != nil {
			records = append(records, storage.NewProjectRecord(pr, nil))
		}
	}
	return p.ingest(ctx, core.KindProject, records)
}

func (p *Pipeline) ingest(ctx context.Context, kind core.Kind, records []*storage.Record) ([]string, error) {
	if len(records) == 0 {
		return nil, nil
	}

	added, err := p.records.AddRecords(ctx, records...)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(added))
	for i, record := range added {
		ids[i] = record.ID()
	}

	// Embedding outlives the caller's request.
	bg := context.WithoutCancel(ctx)
	p.pending.Add(1)
	err = p.embeddingPool.Submit(func() {
		defer p.pending.Done()
		if err := p.embeddingProc.process(bg, kind, ids...); err != nil {
			p.logger.Error("error processing embeddings", "kind", kind, "err", err)
		}
	})
	if err != nil {
		p.pending.Done()
		p.logger.Error("error submitting embedding task", "kind", kind, "err", err)
	}

	return ids, nil
}

// Wait blocks until every submitted embedding task has finished.
func (p *Pipeline) Wait() {
	p.pending.Wait()
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
}
