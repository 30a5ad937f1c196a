package mock

import (
	"context"
	"strings"
)

// MockKeywordExtractor is a test double for ai.KeywordExtractor.
// It allows custom behavior injection via function fields.
type MockKeywordExtractor struct {
	// KeywordsFunc is called by Keywords if set.
	// If nil, uses default simple word extraction.
	KeywordsFunc func(ctx context.Context, text string) ([]string, error)

	callCount int
}

// NewMockKeywordExtractor creates a mock keyword extractor with default
// behavior.
// Note: Returns concrete type to allow test assertions via GetMockKeywordExtractor().
func NewMockKeywordExtractor() *MockKeywordExtractor {
	return &MockKeywordExtractor{}
}

// Keywords extracts simple mock keywords from text.
// Default behavior: the first distinct words longer than four characters,
// lowercased, up to five of them.
func (m *MockKeywordExtractor) Keywords(ctx context.Context, text string) ([]string, error) {
	m.callCount++

	if m.KeywordsFunc != nil {
		return m.KeywordsFunc(ctx, text)
	}

	words := strings.Fields(strings.ToLower(text))
	seen := make(map[string]bool)
	keywords := make([]string, 0, 5)
	for _, word := range words {
		word = strings.Trim(word, ".,!?;:\"'()[]{}")
		if len(word) <= 4 || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
		if len(keywords) == 5 {
			break
		}
	}
	return keywords, nil
}

// CallCount returns the number of times Keywords was called.
func (m *MockKeywordExtractor) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockKeywordExtractor) Reset() {
	m.callCount = 0
	m.KeywordsFunc = nil
}
