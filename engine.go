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


// Package talentmatch wires storage, AI services and the matching pipeline
// together from a config.Config.
package talentmatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	goredis "github.com/redis/go-redis/v9"

	"github.com/poiesic/talentmatch/ai"
	"github.com/poiesic/talentmatch/ai/openai"
	"github.com/poiesic/talentmatch/batch"
	"github.com/poiesic/talentmatch/config"
	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/ingestion"
	"github.com/poiesic/talentmatch/matching"
	"github.com/poiesic/talentmatch/orchestrator"
	"github.com/poiesic/talentmatch/reembed"
	"github.com/poiesic/talentmatch/search"
	"github.com/poiesic/talentmatch/storage"
	"github.com/poiesic/talentmatch/storage/badger"
	chromemstore "github.com/poiesic/talentmatch/storage/chromem"
	qdrantstore "github.com/poiesic/talentmatch/storage/qdrant"
	redisstore "github.com/poiesic/talentmatch/storage/redis"
)

// Engine owns the storage backends and AI provider of one process.
type Engine struct {
	cfg      *config.Config
	backend  *badger.Backend
	records  storage.RecordRepository
	matches  storage.MatchRepository
	provider ai.AIProvider
	search   storage.VectorSearch
	indexer  ingestion.Indexer
	sink     storage.PersistenceSink
	closers  []func() error
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	provider     ai.AIProvider
	inMemory     bool
	embedderOnly bool
	logger       *slog.Logger
}

// WithProvider uses provider instead of building an OpenAI-compatible one
// from the config.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps the badger store in memory and ignores storage.path.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithEmbedderOnly builds the default provider without a relevance service,
// for commands that only embed.
func WithEmbedderOnly() EngineOption {
	return func(o *engineOptions) {
		o.embedderOnly = true
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine opens storage and connects the configured search backend and
// result sink.
func NewEngine(ctx context.Context, cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", config.ErrInvalidConfig)
	}
	options := &engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	backend, err := badger.OpenBackend(cfg.Storage.Path, options.inMemory)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:     cfg,
		backend: backend,
		records: badger.NewRecordRepository(backend),
		matches: badger.NewMatchRepository(backend),
		logger:  options.logger.With("component", "engine"),
	}

	e.provider = options.provider
	if e.provider == nil {
		providerOpts := []openai.ProviderOption{openai.WithLogger(options.logger)}
		if options.embedderOnly {
			providerOpts = append(providerOpts, openai.WithEmbedderOnly())
		}
		e.provider, err = openai.NewProvider(cfg.AIConfig(), providerOpts...)
		if err != nil {
			e.Close()
			return nil, err
		}
	}

	if err := e.openSearch(ctx); err != nil {
		e.Close()
		return nil, err
	}
	if err := e.openSink(); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) openSearch(ctx context.Context) error {
	embedder := e.provider.Embedder()
	switch e.cfg.Storage.Backend {
	case config.BackendQdrant:
		qcfg, err := qdrantstore.ConfigFromURL(e.cfg.Storage.QdrantURL)
		if err != nil {
			return err
		}
		store, err := qdrantstore.New(qcfg, embedder, qdrantstore.WithLogger(e.logger))
		if err != nil {
			return err
		}
		e.closers = append(e.closers, store.Close)
		if err := store.EnsureCollections(ctx); err != nil {
			return err
		}
		e.search, e.indexer = store, store

	case config.BackendChromem:
		store, err := chromemstore.New(embedder, chromemstore.WithLogger(e.logger))
		if err != nil {
			return err
		}
		// chromem is in-memory; seed it from the durable store.
		for _, kind := range []core.Kind{core.KindCandidate, core.KindProject} {
			records, err := e.records.ListRecords(ctx, kind)
			if err != nil {
				return err
			}
			if err := store.Index(ctx, records...); err != nil {
				return err
			}
		}
		e.search, e.indexer = store, store

	default:
		searcher, err := search.NewSearcher(e.records, embedder, search.WithLogger(e.logger))
		if err != nil {
			return err
		}
		e.search = searcher
	}
	return nil
}

func (e *Engine) openSink() error {
	if e.cfg.Storage.RedisURL == "" {
		e.sink = e.matches
		return nil
	}
	opts, err := goredis.ParseURL(e.cfg.Storage.RedisURL)
	if err != nil {
		return fmt.Errorf("invalid redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	e.closers = append(e.closers, client.Close)

	sink, err := redisstore.NewSink(client,
		redisstore.WithTTL(e.cfg.Storage.ResultTTL),
		redisstore.WithLogger(e.logger))
	if err != nil {
		return err
	}
	e.sink = sink
	return nil
}

// Close releases every resource in reverse order of acquisition.
func (e *Engine) Close() error {
	for _, closeFn := range slices.Backward(e.closers) {
		if err := closeFn(); err != nil {
			e.logger.Error("error closing resource", "err", err)
		}
	}
	e.closers = nil

	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
		}
	}
	if err := e.matches.Close(); err != nil {
		e.logger.Error("error closing match repository", "err", err)
		return err
	}
	if err := e.records.Close(); err != nil {
		e.logger.Error("error closing record repository", "err", err)
		return err
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (e *Engine) Config() *config.Config {
	return e.cfg
}

func (e *Engine) Records() storage.RecordRepository {
	return e.records
}

func (e *Engine) Matches() storage.MatchRepository {
	return e.matches
}

func (e *Engine) Search() storage.VectorSearch {
	return e.search
}

// Sink is where pipelines save final results: redis when configured,
// otherwise the badger match repository.
func (e *Engine) Sink() storage.PersistenceSink {
	return e.sink
}

func (e *Engine) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	base := []ingestion.Option{ingestion.WithLogger(e.logger)}
	if e.indexer != nil {
		base = append(base, ingestion.WithIndexer(e.indexer))
	}
	return ingestion.NewPipeline(e.records, e.provider, append(base, opts...)...)
}

func (e *Engine) NewReembedder(cfg *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(e.records, e.provider.Embedder(), e.indexer, cfg, progress)
}

// NewPipeline builds a matching pipeline from the config. opts are applied
// after the configured ones.
func (e *Engine) NewPipeline(opts ...matching.Option) (*matching.Pipeline, error) {
	base := append(e.cfg.PipelineOptions(),
		matching.WithSink(e.sink),
		matching.WithLogger(e.logger))
	return matching.NewPipeline(storage.NewRecordSource(e.records), e.search, e.provider.Relevance(), append(base, opts...)...)
}

// NewExecutor builds a batch executor from the config.
func (e *Engine) NewExecutor(opts ...batch.Option) (*batch.Executor, error) {
	base := append(e.cfg.ExecutorOptions(), batch.WithLogger(e.logger))
	return batch.New(append(base, opts...)...)
}

// NewOrchestrator builds an orchestrator with its own session registry.
func (e *Engine) NewOrchestrator(matcher orchestrator.Matcher, executor *batch.Executor, opts ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	base := []orchestrator.Option{
		orchestrator.WithHeartbeat(e.cfg.Server.HeartbeatInterval),
		orchestrator.WithLogger(e.logger),
	}
	return orchestrator.New(matcher, executor, orchestrator.NewRegistry(e.logger), append(base, opts...)...)
}
