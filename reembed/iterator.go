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
	"iter"
	"slices"

	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/storage"
)

// DefaultBatchSize is the number of records embedded per request.
const DefaultBatchSize = 100

// RecordIterator walks the stored records of one kind in batches.
type RecordIterator struct {
	repo      storage.RecordRepository
	batchSize int
}

// NewRecordIterator creates a record iterator. batchSize <= 0 uses
// DefaultBatchSize.
func NewRecordIterator(repo storage.RecordRepository, batchSize int) *RecordIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &RecordIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// Count returns the number of stored records of kind.
func (it *RecordIterator) Count(ctx context.Context, kind core.Kind) (int, error) {
	records, err := it.repo.ListRecords(ctx, kind)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// Batches yields the records of kind in key order, batchSize at a time. A
// listing failure or context cancellation is yielded once as the error and
// ends the sequence.
func (it *RecordIterator) Batches(ctx context.Context, kind core.Kind) iter.Seq2[[]*storage.Record, error] {
	return func(yield func([]*storage.Record, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(nil, err)
			return
		}
		records, err := it.repo.ListRecords(ctx, kind)
		if err != nil {
			yield(nil, err)
			return
		}
		for chunk := range slices.Chunk(records, it.batchSize) {
			if !yield(chunk, nil) {
				return
			}
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
		}
	}
}

// ForEach calls fn for each batch and stops at the first error.
func (it *RecordIterator) ForEach(ctx context.Context, kind core.Kind, fn func([]*storage.Record) error) error {
	for batch, err := range it.Batches(ctx, kind) {
		if err != nil {
			return err
		}
		if err := fn(batch); err != nil {
			return err
		}
	}
	return nil
}
