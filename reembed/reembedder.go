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


package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/talentmatch/ai"
	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/ingestion"
	"github.com/poiesic/talentmatch/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of records to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of records)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per batch
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Kinds limits which record kinds are reembedded. Empty means both.
	Kinds []core.Kind
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		Kinds:          []core.Kind{core.KindCandidate, core.KindProject},
	}
}

// Reembedder rewrites the embeddings of all stored records.
type Reembedder struct {
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *RecordIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
// indexer: optional vector index to refresh alongside storage
func NewReembedder(repo storage.RecordRepository, embedder ai.Embedder, indexer ingestion.Indexer, config *Config, progress io.Writer) (*Reembedder, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if len(config.Kinds) == 0 {
		config.Kinds = DefaultConfig().Kinds
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(repo, embedder, indexer, config.MaxRetries, config.RetryDelay),
		iterator:  NewRecordIterator(repo, config.BatchSize),
	}, nil
}

// Run reembeds every record of the configured kinds. Progress is reported
// per kind to the configured writer. Returns the number of records processed.
func (r *Reembedder) Run(ctx context.Context) (int, error) {
	processed := 0
	for _, kind := range r.config.Kinds {
		n, err := r.runKind(ctx, kind)
		processed += n
		if err != nil {
			return processed, err
		}
	}
	return processed, nil
}

func (r *Reembedder) runKind(ctx context.Context, kind core.Kind) (int, error) {
	total, err := r.iterator.Count(ctx, kind)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s records: %w", kind, err)
	}
	if total == 0 {
		fmt.Fprintf(r.progress, "No %s records found (0 records)\n", kind)
		return 0, nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d %s records (batch size: %d)\n",
		total, kind, r.iterator.batchSize)

	reporter := NewProgressReporter(r.progress, string(kind), total, r.config.ReportInterval)
	reporter.Start()

	processed := 0
	err = r.iterator.ForEach(ctx, kind, func(records []*storage.Record) error {
		if err := r.processor.Process(ctx, records); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		processed += len(records)
		reporter.Update(processed)
		return nil
	})
	if err != nil {
		return processed, err
	}

	reporter.Finish()

	elapsed := reporter.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding of %s records complete. Processed %d in %v (%.1f records/sec)\n",
		kind, processed, elapsed.Round(time.Second), float64(processed)/elapsed.Seconds())

	return processed, nil
}
