package mock

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
	"sync/atomic"
)

// MockEmbedder is a test double for ai.Embedder.
//
// Lookup order for a text: EmbedTextFunc/EmbedTextsFunc if set, then a vector
// pinned with Pin, then a deterministic hash-derived unit vector of length
// Dim. Pinned vectors let tests place records at known similarities.
type MockEmbedder struct {
	EmbedTextFunc  func(ctx context.Context, text string) ([]float32, error)
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// Dim is the length of hash-derived vectors. Default: 384
	Dim int

	mu     sync.RWMutex
	pinned map[string][]float32

	callCount atomic.Int64
}

// NewMockEmbedder creates a mock embedder with deterministic vectors.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{Dim: 384}
}

// Pin makes text embed to vec.
func (m *MockEmbedder) Pin(text string, vec []float32) *MockEmbedder {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pinned == nil {
		m.pinned = make(map[string][]float32)
	}
	m.pinned[text] = vec
	return m
}

func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.callCount.Add(1)
	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	return m.vectorFor(text), nil
}

func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.callCount.Add(1)
	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = m.vectorFor(text)
	}
	return out, nil
}

func (m *MockEmbedder) vectorFor(text string) []float32 {
	m.mu.RLock()
	vec, ok := m.pinned[text]
	m.mu.RUnlock()
	if ok {
		return vec
	}
	dim := m.Dim
	if dim <= 0 {
		dim = 384
	}
	return hashVector(text, dim)
}

// CallCount returns the number of EmbedText and EmbedTexts calls.
func (m *MockEmbedder) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count, the injected funcs and pinned vectors.
func (m *MockEmbedder) Reset() {
	m.callCount.Store(0)
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
	m.mu.Lock()
	m.pinned = nil
	m.mu.Unlock()
}

// hashVector derives a unit vector from an FNV-64 seed stepped through a
// linear congruential generator. Equal texts give equal vectors. Components
// are non-negative, so unrelated texts still land around 0.75 cosine.
func hashVector(text string, dim int) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	state := h.Sum64()

	vec := make([]float32, dim)
	var sum float64
	for i := range vec {
		state = state*6364136223846793005 + 1442695040888963407
		v := float64(state>>40) / float64(1<<24)
		vec[i] = float32(v)
		sum += v * v
	}
	if sum == 0 {
		return vec
	}
	norm := 1 / math.Sqrt(sum)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) * norm)
	}
	return vec
}
