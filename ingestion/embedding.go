package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/talentmatch/ai"
	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/storage"
)

// embeddingProcessor generates embeddings for stored records.
type embeddingProcessor struct {
	records  storage.RecordRepository
	embedder ai.Embedder
	indexer  Indexer
	logger   *slog.Logger
}

var _ processor = (*embeddingProcessor)(nil)

// newEmbeddingProcessor creates a new embedding processor. indexer may be nil.
func newEmbeddingProcessor(records storage.RecordRepository, embedder ai.Embedder, indexer Indexer, logger *slog.Logger) (processor, error) {
	if records == nil {
		return nil, ErrRecordRepositoryRequired
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		records:  records,
		embedder: embedder,
		indexer:  indexer,
		logger:   logger.With("processor", "embeddings"),
	}, nil
}

// process embeds the records' text, stores the unit-length vectors and
// forwards the updated records to the indexer.
func (ep *embeddingProcessor) process(ctx context.Context, kind core.Kind, ids ...string) error {
	ep.logger.Info("processing records for embeddings", "kind", kind, "records", len(ids))

	records, err := ep.records.GetRecords(ctx, kind, ids...)
	if err != nil {
		ep.logger.Error("error retrieving records", "err", err)
		return err
	}
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = record.Text()
	}

	ep.logger.Debug("generating embeddings", "records", len(texts))
	embeddings, err := ep.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		ep.logger.Error("error generating embeddings", "err", err)
		return err
	}

	if len(embeddings) != len(records) {
		return fmt.Errorf("%w: expected %d, received %d", ErrEmbeddingMismatch, len(records), len(embeddings))
	}

	for i := range embeddings {
		records[i].Vector = storage.NormalizeVector(embeddings[i])
	}

	updated, err := ep.records.AddRecords(ctx, records...)
	if err != nil {
		return err
	}

	if ep.indexer != nil {
		if err := ep.indexer.Index(ctx, updated...); err != nil {
			return fmt.Errorf("failed to index %d records: %w", len(updated), err)
		}
	}
	return nil
}
