// Package ingestion loads candidate and project records into storage.
//
// Records are stored synchronously so they are immediately visible to the
// matching pipeline. Embeddings are generated afterwards on a worker pool,
// and embedded records are optionally pushed to a vector index. Errors during
// async processing are logged but do not fail the ingestion operation.
package ingestion
