// Package reembed regenerates embeddings for every stored candidate and
// project, typically after switching embedding models.
//
// Records are processed in batches with retry and exponential backoff.
// Vectors are normalized so dot product equals cosine similarity, and can be
// pushed to a vector index as they are rewritten.
package reembed
