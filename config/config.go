// Package config loads application settings for the talentmatch binary.
//
// Settings are layered with koanf: built-in defaults, then an optional YAML
// file, then TALENTMATCH_ environment variables. Nested keys are separated by
// a double underscore in variable names, so TALENTMATCH_AI__API_KEY sets
// ai.api_key.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/poiesic/talentmatch/ai"
	"github.com/poiesic/talentmatch/batch"
	"github.com/poiesic/talentmatch/matching"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "TALENTMATCH_"

//go:embed defaults.yaml
var defaultsYAML []byte

// Storage backends.
const (
	BackendBadger  = "badger"
	BackendQdrant  = "qdrant"
	BackendChromem = "chromem"
)

// ErrInvalidConfig indicates a setting failed validation.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the full application configuration.
type Config struct {
	AI       AIConfig       `koanf:"ai"`
	Storage  StorageConfig  `koanf:"storage"`
	Matching MatchingConfig `koanf:"matching"`
	Batch    BatchConfig    `koanf:"batch"`
	Server   ServerConfig   `koanf:"server"`
}

// AIConfig mirrors ai.Config.
type AIConfig struct {
	EmbeddingHost     string  `koanf:"embedding_host"`
	RelevanceHost     string  `koanf:"relevance_host"`
	EmbeddingModel    string  `koanf:"embedding_model"`
	RelevanceModel    string  `koanf:"relevance_model"`
	APIKey            string  `koanf:"api_key"`
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
	ParseAttempts     int     `koanf:"parse_attempts"`
}

// StorageConfig selects where records live and where results go.
type StorageConfig struct {
	Backend   string        `koanf:"backend"`
	Path      string        `koanf:"path"`
	QdrantURL string        `koanf:"qdrant_url"`
	RedisURL  string        `koanf:"redis_url"`
	ResultTTL time.Duration `koanf:"result_ttl"`
}

// MatchingConfig holds pipeline routing and scoring settings.
type MatchingConfig struct {
	MultiStage   bool             `koanf:"multi_stage"`
	VectorSearch bool             `koanf:"vector_search"`
	Hybrid       bool             `koanf:"hybrid"`
	MaxRetries   int              `koanf:"max_retries"`
	RetryDelay   time.Duration    `koanf:"retry_delay"`
	WeightsFile  string           `koanf:"weights_file"`
	Weights      matching.Weights `koanf:"weights"`
}

// BatchConfig holds executor settings. PoolSize 0 means one worker per CPU.
type BatchConfig struct {
	Mode          string `koanf:"mode"`
	BatchSize     int    `koanf:"batch_size"`
	MaxConcurrent int    `koanf:"max_concurrent"`
	PoolSize      int    `koanf:"pool_size"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr              string        `koanf:"addr"`
	HeartbeatInterval time.Duration `koanf:"heartbeat_interval"`
	CleanupInterval   time.Duration `koanf:"cleanup_interval"`
	SessionMaxAge     time.Duration `koanf:"session_max_age"`
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is not empty) and the environment, then validates it. A weights file
// named by matching.weights_file replaces the inline weights.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaultsYAML), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Matching.WeightsFile != "" {
		w, err := matching.LoadWeights(cfg.Matching.WeightsFile)
		if err != nil {
			return nil, err
		}
		cfg.Matching.Weights = w
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps TALENTMATCH_AI__API_KEY to ai.api_key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate checks every section.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendBadger, BackendQdrant, BackendChromem:
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.Storage.Backend)
	}
	if c.Storage.Backend == BackendBadger && c.Storage.Path == "" {
		return fmt.Errorf("%w: storage.path is required for badger", ErrInvalidConfig)
	}
	if c.Storage.ResultTTL < 0 {
		return fmt.Errorf("%w: storage.result_ttl cannot be negative", ErrInvalidConfig)
	}
	if c.Matching.MaxRetries < 1 {
		return fmt.Errorf("%w: matching.max_retries must be at least 1", ErrInvalidConfig)
	}
	if err := c.Matching.Weights.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.BatchMode(); err != nil {
		return err
	}
	if c.Batch.BatchSize < 1 || c.Batch.MaxConcurrent < 1 || c.Batch.PoolSize < 0 {
		return fmt.Errorf("%w: batch sizes must be positive", ErrInvalidConfig)
	}
	if err := c.AIConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// BatchMode parses batch.mode.
func (c *Config) BatchMode() (batch.Mode, error) {
	switch c.Batch.Mode {
	case batch.ModeWorkerPool.String():
		return batch.ModeWorkerPool, nil
	case batch.ModeConcurrent.String():
		return batch.ModeConcurrent, nil
	}
	return 0, fmt.Errorf("%w: unknown batch mode %q", ErrInvalidConfig, c.Batch.Mode)
}

// AIConfig converts the ai section to an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithRelevanceHost(c.AI.RelevanceHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithRelevanceModel(c.AI.RelevanceModel),
		ai.WithAPIKey(c.AI.APIKey),
		ai.WithRateLimit(c.AI.RequestsPerSecond, c.AI.Burst),
		ai.WithParseAttempts(c.AI.ParseAttempts),
	)
}

// PipelineOptions converts the matching section to pipeline options.
func (c *Config) PipelineOptions() []matching.Option {
	return []matching.Option{
		matching.WithMultiStage(c.Matching.MultiStage),
		matching.WithVectorSearch(c.Matching.VectorSearch),
		matching.WithHybrid(c.Matching.Hybrid),
		matching.WithMaxRetries(c.Matching.MaxRetries),
		matching.WithRetryDelay(c.Matching.RetryDelay),
		matching.WithWeights(c.Matching.Weights),
	}
}

// ExecutorOptions converts the batch section to executor options.
func (c *Config) ExecutorOptions() []batch.Option {
	mode, _ := c.BatchMode()
	poolSize := c.Batch.PoolSize
	if poolSize == 0 {
		poolSize = runtime.NumCPU()
	}
	return []batch.Option{
		batch.WithMode(mode),
		batch.WithBatchSize(c.Batch.BatchSize),
		batch.WithMaxConcurrent(c.Batch.MaxConcurrent),
		batch.WithPoolSize(poolSize),
	}
}
