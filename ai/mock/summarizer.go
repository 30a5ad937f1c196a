package mock

import (
	"context"
	"strings"
)

// MockSummarizer is a test double for ai.Summarizer.
// It allows custom behavior injection via function fields.
type MockSummarizer struct {
	// SummarizeFunc is called by Summarize if set.
	// If nil, uses default truncation behavior.
	SummarizeFunc func(ctx context.Context, text string) (string, error)

	callCount int
}

// NewMockSummarizer creates a mock summarizer with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockSummarizer().
func NewMockSummarizer() *MockSummarizer {
	return &MockSummarizer{}
}

// Summarize produces a deterministic pseudo-summary.
// Default behavior: the first sentence of the text, capped at 200 runes.
func (m *MockSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	m.callCount++

	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, text)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	if idx := strings.Index(text, ". "); idx >= 0 {
		text = text[:idx+1]
	}
	runes := []rune(text)
	if len(runes) > 200 {
		text = string(runes[:200])
	}
	return text, nil
}

// CallCount returns the number of times Summarize was called.
func (m *MockSummarizer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockSummarizer) Reset() {
	m.callCount = 0
	m.SummarizeFunc = nil
}
