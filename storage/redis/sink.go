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


// Package redis caches ranked match results in Redis.
//
// Sink implements storage.PersistenceSink so pipelines can publish their
// final results to a shared cache other processes read from.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/storage"
)

const (
	defaultPrefix = "talentmatch:matches:"
	defaultTTL    = 24 * time.Hour
)

// ErrClientRequired is returned when no client is provided.
var ErrClientRequired = errors.New("redis client required")

// Sink stores the latest results per query id as JSON with a TTL.
type Sink struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

var _ storage.PersistenceSink = (*Sink)(nil)

// Option configures a Sink.
type Option func(*Sink) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithTTL sets the expiry of stored results. Zero keeps them forever.
// Default: 24h
func WithTTL(ttl time.Duration) Option {
	return func(s *Sink) error {
		if ttl < 0 {
			return fmt.Errorf("ttl must not be negative, got %v", ttl)
		}
		s.ttl = ttl
		return nil
	}
}

// WithPrefix sets the key prefix.
// Default: "talentmatch:matches:"
func WithPrefix(prefix string) Option {
	return func(s *Sink) error {
		s.prefix = prefix
		return nil
	}
}

// NewSink wraps a go-redis client.
func NewSink(client *redis.Client, opts ...Option) (*Sink, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	s := &Sink{
		client: client,
		prefix: defaultPrefix,
		ttl:    defaultTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "redis-sink")
	return s, nil
}

// Key returns the Redis key results for queryID are stored under.
func (s *Sink) Key(queryID string) string {
	return s.prefix + queryID
}

// Save replaces the results stored for queryID.
func (s *Sink) Save(ctx context.Context, queryID string, results []core.MatchResult) error {
	if queryID == "" {
		return core.ErrEmptyID
	}
	if results == nil {
		results = []core.MatchResult{}
	}
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	if err := s.client.Set(ctx, s.Key(queryID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store results for %s: %w", queryID, err)
	}
	s.logger.Debug("stored results", "queryID", queryID, "count", len(results))
	return nil
}

// Get returns the results stored for queryID, or storage.ErrNotFound.
func (s *Sink) Get(ctx context.Context, queryID string) ([]core.MatchResult, error) {
	data, err := s.client.Get(ctx, s.Key(queryID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load results for %s: %w", queryID, err)
	}
	var results []core.MatchResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	return results, nil
}

// Ping checks connectivity.
func (s *Sink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
