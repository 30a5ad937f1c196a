package openai

import (
	"context"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/poiesic/lore/ai"
	"github.com/poiesic/lore/core"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
// Documents longer than the chunk size are embedded per chunk; the chunk
// vectors are averaged and re-normalized into one document vector. All
// returned vectors are unit length, so cosine similarity downstream is a
// plain dot product.
type Embedder struct {
	embedder    embeddings.Embedder
	model       string
	splitter    textsplitter.RecursiveCharacter
	chunkSize   int
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(config.Token),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder:    embedder,
		model:       config.EmbeddingModel,
		splitter:    newSplitter(config.ChunkSize, config.ChunkOverlap),
		chunkSize:   config.ChunkSize,
		maxAttempts: config.MaxAttempts,
		baseDelay:   config.BaseDelay,
		logger:      slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText generates a unit-length vector embedding for a single text.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	chunks, err := splitForModel(e.splitter, text, e.chunkSize)
	if err != nil {
		return nil, wrapErr("embed", e.model, err)
	}

	vectors, err := e.embedDocuments(ctx, chunks)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		e.logger.Warn("embedder returned empty result")
		return []float32{}, nil
	}

	if len(vectors) == 1 {
		return core.NormalizeVector(vectors[0]), nil
	}

	e.logger.Debug("pooling chunk embeddings", "chunks", len(vectors), "length", len(text))
	return core.NormalizeVector(core.MeanVector(vectors)), nil
}

// EmbedTexts generates vector embeddings for multiple text strings.
// Texts that all fit the chunk size go out as one batch; otherwise each
// text is embedded on its own so chunk pooling stays per document.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	short := true
	for _, text := range texts {
		if len(text) > e.chunkSize {
			short = false
			break
		}
	}

	if short {
		vectors, err := e.embedDocuments(ctx, texts)
		if err != nil {
			return nil, err
		}
		for i, v := range vectors {
			vectors[i] = core.NormalizeVector(v)
		}
		return vectors, nil
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vector, err := e.EmbedText(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vector
	}
	return vectors, nil
}

// embedDocuments calls the embedding API with bounded retries on transient
// failures.
func (e *Embedder) embedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32
	err := core.RetryWithBackoff(ctx, func() error {
		var err error
		vectors, err = e.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return wrapErr("embed", e.model, err)
		}
		return nil
	}, e.maxAttempts, e.baseDelay)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	return vectors, nil
}
