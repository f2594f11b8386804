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


// Package qdrant implements storage.VectorSearch on a Qdrant server.
//
// Candidates and projects live in separate collections. Each point carries
// the record's flat attribute map as payload, so search results can be
// rebuilt into pool items without a second lookup.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/poiesic/talentmatch/ai"
	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/storage"
)

// Store indexes records in Qdrant and searches them by embedded query.
type Store struct {
	client   *qdrant.Client
	embedder ai.Embedder
	config   *Config
	logger   *slog.Logger
	owned    bool
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

// New connects to Qdrant using config. A nil config uses DefaultConfig.
func New(config *Config, embedder ai.Embedder, opts ...Option) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   config.Host,
		Port:   config.Port,
		APIKey: config.APIKey,
		UseTLS: config.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	s, err := NewWithClient(client, config, embedder, opts...)
	if err != nil {
		client.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewWithClient wraps an existing client. The caller keeps ownership of it.
func NewWithClient(client *qdrant.Client, config *Config, embedder ai.Embedder, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Store{
		client:   client,
		embedder: embedder,
		config:   config,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "qdrant")
	return s, nil
}

// Close releases the client if the store created it.
func (s *Store) Close() error {
	if s.owned {
		return s.client.Close()
	}
	return nil
}

// EnsureCollections creates the candidate and project collections if missing.
func (s *Store) EnsureCollections(ctx context.Context) error {
	for _, name := range []string{s.config.CandidateCollection, s.config.ProjectCollection} {
		exists, err := s.client.CollectionExists(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to check collection %s: %w", name, err)
		}
		if exists {
			continue
		}
		err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     s.config.VectorSize,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}
		s.logger.Info("created collection", "collection", name)
	}
	return nil
}

// Index upserts records that carry vectors. Records without a vector are skipped.
func (s *Store) Index(ctx context.Context, records ...*storage.Record) error {
	byCollection := make(map[string][]*qdrant.PointStruct)
	for _, r := range records {
		if r == nil || len(r.Vector) == 0 {
			continue
		}
		collection, err := s.collection(r.Kind)
		if err != nil {
			return err
		}
		id := r.ID()
		payload := make(map[string]any, len(r.Attributes()))
		for k, v := range r.Attributes() {
			payload[k] = v
		}
		byCollection[collection] = append(byCollection[collection], &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(r.Kind, id)),
			Vectors: qdrant.NewVectorsDense(r.Vector),
			Payload: qdrant.NewValueMap(payload),
		})
	}

	for collection, points := range byCollection {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		})
		if err != nil {
			return fmt.Errorf("failed to upsert %d points into %s: %w", len(points), collection, err)
		}
	}
	return nil
}

// Search embeds query and returns the closest records of kind. Filters become
// full-text must-conditions on the payload. A blank query scrolls the
// collection instead and reports zero similarity.
func (s *Store) Search(ctx context.Context, kind core.Kind, query string, filters map[string]string, limit int, threshold float64) ([]core.Item, error) {
	collection, err := s.collection(kind)
	if err != nil {
		return nil, err
	}
	filter := buildFilter(filters)

	if strings.TrimSpace(query) == "" {
		scroll := &qdrant.ScrollPoints{
			CollectionName: collection,
			Filter:         filter,
			WithPayload:    qdrant.NewWithPayload(true),
		}
		if limit > 0 {
			scroll.Limit = qdrant.PtrOf(uint32(limit))
		}
		points, err := s.client.Scroll(ctx, scroll)
		if err != nil {
			return nil, fmt.Errorf("failed to scroll %s: %w", collection, err)
		}
		items := make([]core.Item, 0, len(points))
		for _, p := range points {
			items = append(items, storage.ItemFromAttributes(kind, payloadToAttributes(p.Payload), 0))
		}
		return items, nil
	}

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	request := &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(storage.NormalizeVector(embedding)...),
		Filter:         filter,
		ScoreThreshold: qdrant.PtrOf(float32(threshold)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if limit > 0 {
		request.Limit = qdrant.PtrOf(uint64(limit))
	}

	points, err := s.client.Query(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", collection, err)
	}
	s.logger.Debug("searched collection", "collection", collection, "results", len(points))

	items := make([]core.Item, 0, len(points))
	for _, p := range points {
		items = append(items, storage.ItemFromAttributes(kind, payloadToAttributes(p.Payload), float64(p.Score)))
	}
	return items, nil
}

func (s *Store) collection(kind core.Kind) (string, error) {
	switch kind {
	case core.KindCandidate:
		return s.config.CandidateCollection, nil
	case core.KindProject:
		return s.config.ProjectCollection, nil
	}
	return "", fmt.Errorf("%w: %q", storage.ErrInvalidKind, kind)
}

// pointID maps a record id onto the UUID space Qdrant requires. The mapping is
// deterministic so re-indexing replaces points.
func pointID(kind core.Kind, id string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(string(kind)+":"+id)).String()
}

func buildFilter(filters map[string]string) *qdrant.Filter {
	conditions := make([]*qdrant.Condition, 0, len(filters))
	for key, value := range filters {
		if value == "" {
			continue
		}
		conditions = append(conditions, qdrant.NewMatchText(key, value))
	}
	if len(conditions) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: conditions}
}

func payloadToAttributes(payload map[string]*qdrant.Value) map[string]string {
	attrs := make(map[string]string, len(payload))
	for k, v := range payload {
		if v == nil {
			continue
		}
		attrs[k] = v.GetStringValue()
	}
	return attrs
}
