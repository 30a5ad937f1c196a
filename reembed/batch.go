package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/lore/ai"
	"github.com/poiesic/lore/core"
	"github.com/poiesic/lore/storage"
)

// BatchProcessor re-embeds batches of content records with a new model.
type BatchProcessor struct {
	repo           storage.ContentRepository
	embedder       ai.Embedder
	model          string
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor. The model tag is written
// to every re-embedded record so its vector is only ever compared against
// vectors from the same model.
func NewBatchProcessor(repo storage.ContentRepository, embedder ai.Embedder, model string, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		model:          model,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process generates fresh embeddings for a batch of records and updates
// them in the database. Vectors are normalized before storage so cosine
// similarity stays a dot product.
func (bp *BatchProcessor) Process(ctx context.Context, records []*core.ContentRecord) error {
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = record.Title + "\n\n" + record.Body
	}

	var embeddings [][]float32
	err := core.RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(records) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(records), len(embeddings))
	}

	for i := range records {
		records[i].Embedding = core.NormalizeVector(embeddings[i])
		records[i].EmbeddingModel = bp.model
	}

	if _, err := bp.repo.Update(ctx, records...); err != nil {
		return fmt.Errorf("failed to update records: %w", err)
	}

	return nil
}
