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


package ai

import (
	"errors"
	"strings"
)

// DefaultParseAttempts is how many model calls a relevance request makes
// before malformed output is reported as ErrInvalidResponse.
const DefaultParseAttempts = 3

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// RelevanceHost is the base URL for the chat model that scores matches.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	RelevanceHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// RelevanceModel is the model identifier used for relevance scoring.
	// Example: "qwen2.5:7b", "gpt-4o-mini"
	RelevanceModel string

	// APIKey is sent as the bearer token. Local servers accept any value.
	// Default: "none"
	APIKey string

	// RequestsPerSecond limits relevance calls across all goroutines.
	// Zero disables limiting.
	RequestsPerSecond float64

	// Burst is the limiter bucket size. Ignored when RequestsPerSecond is zero.
	// Default: 1
	Burst int

	// ParseAttempts is how many times one relevance request is sent to the
	// model while its output cannot be parsed. Values below 1 mean the default.
	// Default: DefaultParseAttempts
	ParseAttempts int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithRelevanceHost sets the relevance service host URL.
func WithRelevanceHost(host string) ConfigOption {
	return func(c *Config) {
		c.RelevanceHost = host
	}
}

// WithHost sets both embedding and relevance hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.RelevanceHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithRelevanceModel sets the relevance model identifier.
func WithRelevanceModel(model string) ConfigOption {
	return func(c *Config) {
		c.RelevanceModel = model
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithRateLimit limits relevance calls to rps per second with the given burst.
func WithRateLimit(rps float64, burst int) ConfigOption {
	return func(c *Config) {
		c.RequestsPerSecond = rps
		c.Burst = burst
	}
}

// WithParseAttempts sets how many model calls one relevance request may use
// on malformed output.
func WithParseAttempts(n int) ConfigOption {
	return func(c *Config) {
		c.ParseAttempts = n
	}
}

// DefaultConfig returns a Config with sensible defaults for local OpenAI-compatible services.
// By default, both embedding and relevance use the same host.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:  defaultHost,
		RelevanceHost:  defaultHost,
		EmbeddingModel: "embeddinggemma",
		RelevanceModel: "qwen2.5:7b",
		APIKey:         "none",
		Burst:          1,
		ParseAttempts:  DefaultParseAttempts,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//   cfg := NewConfig(
//       WithHost("http://localhost:11434/v1"),
//       WithRelevanceModel("gpt-4o-mini"),
//       WithRateLimit(2, 4),
//   )
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	c.EmbeddingHost = normalizeHost(c.EmbeddingHost)
	c.RelevanceHost = normalizeHost(c.RelevanceHost)
	if c.APIKey == "" {
		c.APIKey = "none"
	}
	if c.RequestsPerSecond > 0 && c.Burst < 1 {
		c.Burst = 1
	}
	if c.ParseAttempts < 1 {
		c.ParseAttempts = DefaultParseAttempts
	}
}

func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.RelevanceHost == "" {
		return errors.New("ai config: RelevanceHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.RelevanceModel == "" {
		return errors.New("ai config: RelevanceModel is required")
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("ai config: RequestsPerSecond cannot be negative")
	}
	return nil
}
