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


// Package chromem implements storage.VectorSearch on an embedded chromem-go
// database. It needs no external service, which makes it the default search
// backend for single-process runs and tests.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/poiesic/talentmatch/ai"
	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/storage"
)

const (
	candidateCollection = "candidates"
	projectCollection   = "projects"
)

// ErrEmbedderRequired is returned when no embedder is provided.
var ErrEmbedderRequired = errors.New("embedder required")

// Store keeps candidates and projects in two chromem collections.
type Store struct {
	db       *chromem.DB
	embedder ai.Embedder
	logger   *slog.Logger

	// chromem has no listing API, so insertion order is tracked here.
	mu    sync.RWMutex
	order map[core.Kind][]string
	seen  map[core.Kind]map[string]struct{}
}

var _ storage.VectorSearch = (*Store)(nil)

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// New creates an in-memory store.
func New(embedder ai.Embedder, opts ...Option) (*Store, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	s := &Store{
		db:       chromem.NewDB(),
		embedder: embedder,
		logger:   slog.Default(),
		order:    make(map[core.Kind][]string),
		seen: map[core.Kind]map[string]struct{}{
			core.KindCandidate: {},
			core.KindProject:   {},
		},
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "chromem")
	return s, nil
}

func (s *Store) collection(kind core.Kind) (*chromem.Collection, error) {
	var name string
	switch kind {
	case core.KindCandidate:
		name = candidateCollection
	case core.KindProject:
		name = projectCollection
	default:
		return nil, fmt.Errorf("%w: %q", storage.ErrInvalidKind, kind)
	}
	embed := func(ctx context.Context, text string) ([]float32, error) {
		return s.embedder.EmbedText(ctx, text)
	}
	return s.db.GetOrCreateCollection(name, nil, embed)
}

// Index adds or replaces records. Records without a vector are embedded from
// their text by the collection.
func (s *Store) Index(ctx context.Context, records ...*storage.Record) error {
	byKind := make(map[core.Kind][]chromem.Document)
	for _, r := range records {
		if r == nil {
			continue
		}
		id := r.ID()
		if id == "" {
			return core.ErrEmptyID
		}
		byKind[r.Kind] = append(byKind[r.Kind], chromem.Document{
			ID:        id,
			Metadata:  r.Attributes(),
			Embedding: r.Vector,
			Content:   r.Text(),
		})
	}

	for kind, docs := range byKind {
		collection, err := s.collection(kind)
		if err != nil {
			return err
		}
		if err := collection.AddDocuments(ctx, docs, 1); err != nil {
			return fmt.Errorf("failed to add %d %s documents: %w", len(docs), kind, err)
		}
		s.mu.Lock()
		for _, d := range docs {
			if _, ok := s.seen[kind][d.ID]; !ok {
				s.seen[kind][d.ID] = struct{}{}
				s.order[kind] = append(s.order[kind], d.ID)
			}
		}
		s.mu.Unlock()
	}
	return nil
}

// Search embeds query and returns records of kind with similarity of at least
// threshold whose attributes satisfy filters. A blank query lists the
// filtered pool in insertion order with zero similarity.
func (s *Store) Search(ctx context.Context, kind core.Kind, query string, filters map[string]string, limit int, threshold float64) ([]core.Item, error) {
	collection, err := s.collection(kind)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(query) == "" {
		return s.list(ctx, kind, collection, filters, limit)
	}

	// chromem requires nResults <= document count.
	count := collection.Count()
	if count == 0 {
		return []core.Item{}, nil
	}

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	// Filters are substring matches, which chromem's where clause can't express,
	// so every document is scored and filtered here.
	results, err := collection.QueryEmbedding(ctx, storage.NormalizeVector(embedding), count, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", kind, err)
	}

	items := make([]core.Item, 0, len(results))
	for _, r := range results {
		if float64(r.Similarity) < threshold {
			break
		}
		if !storage.MatchesFilters(r.Metadata, filters) {
			continue
		}
		items = append(items, storage.ItemFromAttributes(kind, r.Metadata, float64(r.Similarity)))
		if limit > 0 && len(items) == limit {
			break
		}
	}
	s.logger.Debug("searched collection", "kind", kind, "scanned", len(results), "results", len(items))
	return items, nil
}

func (s *Store) list(ctx context.Context, kind core.Kind, collection *chromem.Collection, filters map[string]string, limit int) ([]core.Item, error) {
	s.mu.RLock()
	ids := append([]string(nil), s.order[kind]...)
	s.mu.RUnlock()

	items := make([]core.Item, 0, len(ids))
	for _, id := range ids {
		doc, err := collection.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s %s: %w", kind, id, err)
		}
		if !storage.MatchesFilters(doc.Metadata, filters) {
			continue
		}
		items = append(items, storage.ItemFromAttributes(kind, doc.Metadata, 0))
		if limit > 0 && len(items) == limit {
			break
		}
	}
	return items, nil
}
