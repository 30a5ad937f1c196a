package reembed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/lore/ai"
	"github.com/poiesic/lore/core"
	"github.com/poiesic/lore/storage"
	"github.com/poiesic/lore/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) storage.ContentRepository {
	t.Helper()
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func seedRecords(t *testing.T, repo storage.ContentRepository, n int) []*core.ContentRecord {
	t.Helper()
	records := make([]*core.ContentRecord, n)
	for i := range records {
		body := "Body of record " + string(rune('a'+i))
		records[i] = &core.ContentRecord{
			URL:         "https://example.com/" + string(rune('a'+i)),
			Type:        core.SourceWeb,
			Title:       "Record " + string(rune('a'+i)),
			Body:        body,
			ContentHash: core.HashContent(body),
		}
	}
	added, err := repo.Add(context.Background(), records...)
	require.NoError(t, err)
	return added
}

// mockEmbedder for testing
type mockEmbedder struct {
	embedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *mockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *mockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if m.embedTextsFunc != nil {
		return m.embedTextsFunc(ctx, texts)
	}
	// Default: return unnormalized vectors for each text
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = []float32{1.0, 2.0, 2.0} // magnitude = 3.0
	}
	return result, nil
}

func TestBatchProcessor_Process(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	added := seedRecords(t, repo, 2)

	processor := NewBatchProcessor(repo, &mockEmbedder{}, "new-model", 3, 10*time.Millisecond)
	err := processor.Process(ctx, added)
	require.NoError(t, err)

	updated, err := repo.GetMany(ctx, added[0].Id, added[1].Id)
	require.NoError(t, err)
	require.Len(t, updated, 2)

	for _, record := range updated {
		require.NotEmpty(t, record.Embedding, "should have embedding")
		assert.Equal(t, "new-model", record.EmbeddingModel)

		var magnitude float32
		for _, v := range record.Embedding {
			magnitude += v * v
		}
		assert.InDelta(t, 1.0, magnitude, 0.01, "vector should be normalized")
	}
}

func TestBatchProcessor_EmptyBatch(t *testing.T) {
	repo := setupTestDB(t)

	processor := NewBatchProcessor(repo, &mockEmbedder{}, "new-model", 3, 10*time.Millisecond)
	err := processor.Process(context.Background(), nil)
	require.NoError(t, err, "empty batch should not error")
}

func TestBatchProcessor_EmbeddingError(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	added := seedRecords(t, repo, 1)

	embedder := &mockEmbedder{
		embedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, &ai.ProviderError{Op: "embed", Model: "new-model", Err: errors.New("invalid api key")}
		},
	}
	processor := NewBatchProcessor(repo, embedder, "new-model", 3, 10*time.Millisecond)

	err := processor.Process(ctx, added)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestBatchProcessor_RetriesTransientErrors(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	added := seedRecords(t, repo, 1)

	attempts := 0
	embedder := &mockEmbedder{
		embedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			attempts++
			if attempts < 2 {
				return nil, &ai.ProviderError{Op: "embed", Model: "new-model", Transient: true, Err: errors.New("rate limited")}
			}
			result := make([][]float32, len(texts))
			for i := range texts {
				result[i] = []float32{1.0, 0.0, 0.0}
			}
			return result, nil
		},
	}
	processor := NewBatchProcessor(repo, embedder, "new-model", 3, 10*time.Millisecond)

	err := processor.Process(ctx, added)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts, "should retry on transient failure")

	updated, err := repo.Get(ctx, added[0].Id)
	require.NoError(t, err)
	require.NotEmpty(t, updated.Embedding)
}

func TestBatchProcessor_CountMismatch(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	added := seedRecords(t, repo, 2)

	embedder := &mockEmbedder{
		embedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{{1.0, 0.0}}, nil
		},
	}
	processor := NewBatchProcessor(repo, embedder, "new-model", 3, 10*time.Millisecond)

	err := processor.Process(ctx, added)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
}

func TestBatchProcessor_ContextCancellation(t *testing.T) {
	repo := setupTestDB(t)

	added := seedRecords(t, repo, 1)

	ctx, cancel := context.WithCancel(context.Background())
	embedder := &mockEmbedder{
		embedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			cancel() // Cancel during embedding
			return nil, &ai.ProviderError{Op: "embed", Transient: true, Err: errors.New("timeout")}
		},
	}
	processor := NewBatchProcessor(repo, embedder, "new-model", 3, 10*time.Millisecond)

	err := processor.Process(ctx, added)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
