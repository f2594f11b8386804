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


// Package storage provides the storage abstraction layer for talentmatch.
//
// This package defines the collaborator contracts the matcher consumes and
// the repository interfaces that back them:
//
//   - RecordSource: lists the candidate or project pool
//   - VectorSearch: similarity search over the pool by free-text query
//   - PersistenceSink: receives final ranked results
//   - RecordRepository / MatchRepository: durable storage for records with
//     embeddings and for ranked results
//
// Implementations live in sub-packages:
//
//   - storage/badger: embedded BadgerDB repositories with brute-force
//     vector search
//   - storage/qdrant: VectorSearch over a Qdrant collection
//   - storage/chromem: VectorSearch over an embedded chromem-go collection
//   - storage/redis: PersistenceSink writing ranked results to Redis
//
// Values stored as bytes (Records, result lists) are encoded with CBOR.
//
// # Usage
//
//	recordRepo, matchRepo, backend, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	source := storage.NewRecordSource(recordRepo)
//
// # Thread Safety
//
// All implementations must be thread-safe and support concurrent access
// from multiple goroutines.
package storage
