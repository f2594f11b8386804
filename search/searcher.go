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


package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/talentmatch/ai"
	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/storage"
)

// verbatimBoost lifts records containing every query word when ordering hits.
// Item similarity itself is left untouched.
const verbatimBoost = 0.3

// Searcher implements storage.VectorSearch over a RecordRepository, embedding
// free-text queries and ranking stored records by cosine similarity.
type Searcher struct {
	records  storage.RecordRepository
	embedder ai.Embedder
	monitor  SearchMonitor
	logger   *slog.Logger
}

var _ storage.VectorSearch = (*Searcher)(nil)

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMonitor installs a monitor notified at each step of every search.
func WithMonitor(monitor SearchMonitor) Option {
	return func(s *Searcher) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		s.monitor = monitor
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(records storage.RecordRepository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if records == nil {
		return nil, ErrRecordRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		records:  records,
		embedder: embedder,
		monitor:  &noopMonitor{},
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	return s, nil
}

// Search returns up to limit records of kind whose similarity to query is at
// least threshold and whose attributes satisfy filters. A blank query lists
// the filtered pool with zero similarity. limit <= 0 means no cap.
func (s *Searcher) Search(ctx context.Context, kind core.Kind, query string, filters map[string]string, limit int, threshold float64) ([]core.Item, error) {
	query = strings.TrimSpace(query)
	s.monitor.Start(kind, query)

	if query == "" {
		return s.list(ctx, kind, filters, limit)
	}

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	// Filters are applied after the similarity scan, so the scan is uncapped.
	matches, err := s.records.FindSimilar(ctx, kind, storage.NormalizeVector(embedding), float32(threshold), 0)
	if err != nil {
		s.logger.Error("error querying for similar records", "kind", kind, "err", err)
		return nil, err
	}

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.Record.ID())
	}
	s.monitor.AfterSemanticSearch(ids)

	type ranked struct {
		item  core.Item
		order float64
	}
	hits := make([]ranked, 0, len(matches))
	for _, m := range matches {
		if !storage.MatchesFilters(m.Record.Attributes(), filters) {
			s.monitor.Filtered(m.Record.ID())
			continue
		}
		order := float64(m.Score)
		if containsAllQueryWords(m.Record.Text(), query) {
			order += verbatimBoost
			s.monitor.VerbatimHit(m.Record.ID())
		}
		hits = append(hits, ranked{item: m.Record.Item(float64(m.Score)), order: order})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].order > hits[j].order
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	items := make([]core.Item, len(hits))
	for i, h := range hits {
		items[i] = h.item
	}
	s.monitor.Finish(items)
	return items, nil
}

func (s *Searcher) list(ctx context.Context, kind core.Kind, filters map[string]string, limit int) ([]core.Item, error) {
	records, err := s.records.ListRecords(ctx, kind)
	if err != nil {
		s.logger.Error("error listing records", "kind", kind, "err", err)
		return nil, err
	}

	items := make([]core.Item, 0, len(records))
	for _, r := range records {
		if !storage.MatchesFilters(r.Attributes(), filters) {
			s.monitor.Filtered(r.ID())
			continue
		}
		items = append(items, r.Item(0))
		if limit > 0 && len(items) == limit {
			break
		}
	}
	s.monitor.Finish(items)
	return items, nil
}
