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


package mock

import (
	"sync/atomic"

	"github.com/poiesic/talentmatch/ai"
)

// MockProvider bundles a MockEmbedder and an optional MockRelevanceService.
type MockProvider struct {
	embedder  *MockEmbedder
	relevance *MockRelevanceService
	closed    atomic.Bool
}

// NewMockProvider returns a provider with default mock services.
func NewMockProvider() ai.AIProvider {
	return NewMockProviderWithServices(NewMockEmbedder(), NewMockRelevanceService())
}

// NewMockProviderWithServices wires the given mocks. A nil relevance service
// makes Relevance return nil, which is how a provider without a chat model
// looks to the matching pipeline.
func NewMockProviderWithServices(embedder *MockEmbedder, relevance *MockRelevanceService) ai.AIProvider {
	if embedder == nil {
		embedder = NewMockEmbedder()
	}
	return &MockProvider{
		embedder:  embedder,
		relevance: relevance,
	}
}

func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

func (p *MockProvider) Relevance() ai.RelevanceService {
	if p.relevance == nil {
		return nil
	}
	return p.relevance
}

// Close records that the provider was closed.
func (p *MockProvider) Close() error {
	p.closed.Store(true)
	return nil
}

// Closed reports whether Close has been called.
func (p *MockProvider) Closed() bool {
	return p.closed.Load()
}

// GetMockEmbedder exposes the embedder for call-count assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockRelevance exposes the relevance mock, or nil if none was wired.
func (p *MockProvider) GetMockRelevance() *MockRelevanceService {
	return p.relevance
}
