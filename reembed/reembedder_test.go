package reembed

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/poiesic/lore/ai/mock"
	"github.com/poiesic/lore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReembedder_Run(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	// Seed records carrying vectors from a retired model.
	added := seedRecords(t, repo, 7)
	for _, record := range added {
		record.Embedding = []float32{1, 0, 0}
		record.EmbeddingModel = "retired-model"
	}
	_, err := repo.Update(ctx, added...)
	require.NoError(t, err)

	provider := mock.NewMockProvider()
	var progress bytes.Buffer
	reembedder := NewReembedder(repo, provider, &Config{
		BatchSize:      3,
		ReportInterval: 3,
		MaxRetries:     3,
		RetryDelay:     10 * time.Millisecond,
	}, &progress)

	err = reembedder.Run(ctx)
	require.NoError(t, err)

	// Every record now carries a unit vector tagged with the new model.
	count := 0
	err = repo.ForEach(ctx, func(record *core.ContentRecord) error {
		count++
		assert.Equal(t, mock.MockModelName, record.EmbeddingModel)
		require.NotEmpty(t, record.Embedding)

		var magnitude float32
		for _, v := range record.Embedding {
			magnitude += v * v
		}
		assert.InDelta(t, 1.0, magnitude, 0.01)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, count)

	assert.Contains(t, progress.String(), "Reembedding complete")
}

func TestReembedder_Run_EmptyDatabase(t *testing.T) {
	repo := setupTestDB(t)

	var progress bytes.Buffer
	reembedder := NewReembedder(repo, mock.NewMockProvider(), nil, &progress)

	err := reembedder.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, progress.String(), "No records found")
}

func TestReembedder_DefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, 100, config.BatchSize)
	assert.Equal(t, 100, config.ReportInterval)
	assert.Equal(t, 3, config.MaxRetries)
	assert.Equal(t, 1*time.Second, config.RetryDelay)
}
