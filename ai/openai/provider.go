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


package openai

import (
	"fmt"
	"log/slog"

	"github.com/poiesic/talentmatch/ai"
)

// Provider implements ai.AIProvider using OpenAI-compatible services.
type Provider struct {
	config    *ai.Config
	embedder  *Embedder
	relevance *RelevanceService
	logger    *slog.Logger
}

// ProviderOption configures a Provider.
type ProviderOption func(*providerOptions)

type providerOptions struct {
	logger       *slog.Logger
	embedderOnly bool
}

// WithLogger sets the logger shared by the provider's services.
func WithLogger(logger *slog.Logger) ProviderOption {
	return func(o *providerOptions) {
		o.logger = logger
	}
}

// WithEmbedderOnly skips the relevance service. Relevance then returns nil,
// which the matching pipeline reports as relevance_unavailable.
func WithEmbedderOnly() ProviderOption {
	return func(o *providerOptions) {
		o.embedderOnly = true
	}
}

// NewProvider validates config and builds the embedding and relevance
// clients.
func NewProvider(config *ai.Config, opts ...ProviderOption) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	o := providerOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	embedder, err := newEmbedder(config, o.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	p := &Provider{
		config:   config,
		embedder: embedder,
		logger:   o.logger.With("component", "openai-provider"),
	}

	if !o.embedderOnly {
		p.relevance, err = newRelevanceService(config)
		if err != nil {
			return nil, fmt.Errorf("failed to create relevance service: %w", err)
		}
		p.relevance.logger = o.logger.With("component", "openai-relevance", "model", config.RelevanceModel)
	}

	p.logger.Debug("provider ready",
		"embedding_host", config.EmbeddingHost,
		"relevance_host", config.RelevanceHost,
		"relevance", p.relevance != nil)
	return p, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Relevance returns the relevance scoring service, or nil when the provider
// was built with WithEmbedderOnly.
func (p *Provider) Relevance() ai.RelevanceService {
	if p.relevance == nil {
		return nil
	}
	return p.relevance
}

// Close is a no-op; the HTTP clients hold no resources that need releasing.
func (p *Provider) Close() error {
	return nil
}
