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

import "github.com/poiesic/lore/ai"

// MockModelName tags vectors produced by the mock embedder.
const MockModelName = "mock-embedder"

// MockProvider is a test double for ai.Provider.
// It aggregates mock summarizer, keyword extractor and embedder instances.
type MockProvider struct {
	summarizer *MockSummarizer
	keywords   *MockKeywordExtractor
	embedder   *MockEmbedder
	model      string
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.Provider interface for consistency with production
// constructors. Use the GetMock* accessors for test assertions.
func NewMockProvider() ai.Provider {
	return &MockProvider{
		summarizer: NewMockSummarizer(),
		keywords:   NewMockKeywordExtractor(),
		embedder:   NewMockEmbedder(),
		model:      MockModelName,
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock
// services. This allows full control over the behavior of each service.
func NewMockProviderWithServices(summarizer *MockSummarizer, keywords *MockKeywordExtractor, embedder *MockEmbedder) ai.Provider {
	return &MockProvider{
		summarizer: summarizer,
		keywords:   keywords,
		embedder:   embedder,
		model:      MockModelName,
	}
}

// Summarizer returns the mock summarizer.
func (p *MockProvider) Summarizer() ai.Summarizer {
	return p.summarizer
}

// KeywordExtractor returns the mock keyword extractor.
func (p *MockProvider) KeywordExtractor() ai.KeywordExtractor {
	return p.keywords
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// EmbeddingModel returns the mock model tag.
func (p *MockProvider) EmbeddingModel() string {
	return p.model
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockSummarizer returns the underlying mock summarizer for test
// assertions.
func (p *MockProvider) GetMockSummarizer() *MockSummarizer {
	return p.summarizer
}

// GetMockKeywordExtractor returns the underlying mock keyword extractor for
// test assertions.
func (p *MockProvider) GetMockKeywordExtractor() *MockKeywordExtractor {
	return p.keywords
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
// This allows tests to check call counts and inject custom behavior.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}
