package ai

import "context"

// Summarizer condenses document text into a short prose summary.
// Implementations must be thread-safe for concurrent use.
type Summarizer interface {
	// Summarize produces a 2-4 sentence summary of the given text.
	// Returns an error if summary generation fails.
	Summarize(ctx context.Context, text string) (string, error)
}

// KeywordExtractor pulls topical keywords out of document text.
// Implementations must be thread-safe for concurrent use.
type KeywordExtractor interface {
	// Keywords returns lowercase topical keywords ordered by relevance,
	// most relevant first. Returns an empty slice if nothing stands out.
	// Returns an error if extraction fails.
	Keywords(ctx context.Context, text string) ([]string, error)
}

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector is normalized to unit length.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch. The returned slice contains embeddings in the same order as the
	// input texts. Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Provider aggregates the enrichment services for convenient initialization
// and lifecycle management. A provider creates and manages Summarizer,
// KeywordExtractor and Embedder instances, ensuring they share configuration
// and resources.
type Provider interface {
	// Summarizer returns the summary service.
	// The returned Summarizer is safe for concurrent use.
	Summarizer() Summarizer

	// KeywordExtractor returns the keyword extraction service.
	// The returned KeywordExtractor is safe for concurrent use.
	KeywordExtractor() KeywordExtractor

	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// EmbeddingModel identifies the model producing the embedder's vectors.
	// Records carry this tag so vectors from different models are never
	// compared against each other.
	EmbeddingModel() string

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
