// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Summarizer,
// ai.KeywordExtractor, ai.Embedder and ai.Provider for use in unit tests.
// The mocks allow tests to run without external AI service dependencies and
// enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	vector, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockEmbedder := mock.NewMockEmbedder()
//	mockEmbedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//
//	// Check call counts
//	count := mockEmbedder.CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockEmbedder: unit-length deterministic vectors based on text hash
//   - MockSummarizer: the first sentence of the text
//   - MockKeywordExtractor: distinct longer words from the text
//   - MockProvider: aggregates the three with a fixed model tag
package mock
