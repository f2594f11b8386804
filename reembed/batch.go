package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/talentmatch/ai"
	"github.com/poiesic/talentmatch/batch"
	"github.com/poiesic/talentmatch/ingestion"
	"github.com/poiesic/talentmatch/storage"
)

// BatchProcessor handles embedding generation for batches of records.
type BatchProcessor struct {
	repo           storage.RecordRepository
	embedder       ai.Embedder
	indexer        ingestion.Indexer
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
// indexer may be nil.
func NewBatchProcessor(repo storage.RecordRepository, embedder ai.Embedder, indexer ingestion.Indexer, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		indexer:        indexer,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process generates embeddings for a batch of records and writes them back.
// Vectors are normalized after embedding.
func (bp *BatchProcessor) Process(ctx context.Context, records []*storage.Record) error {
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = record.Text()
	}

	var embeddings [][]float32
	err := batch.RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(records) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCountMismatch, len(records), len(embeddings))
	}

	for i := range records {
		records[i].Vector = storage.NormalizeVector(embeddings[i])
	}

	updated, err := bp.repo.AddRecords(ctx, records...)
	if err != nil {
		return fmt.Errorf("failed to update records: %w", err)
	}

	if bp.indexer != nil {
		if err := bp.indexer.Index(ctx, updated...); err != nil {
			return fmt.Errorf("failed to index records: %w", err)
		}
	}
	return nil
}
