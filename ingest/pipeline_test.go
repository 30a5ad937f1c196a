package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/lore/ai/mock"
	"github.com/poiesic/lore/core"
	"github.com/poiesic/lore/extract"
	"github.com/poiesic/lore/storage"
	"github.com/poiesic/lore/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubExtractor serves canned content without touching the network.
type stubExtractor struct {
	bodies      map[string]string // URL to body override
	errorOnURL  string
	defaultBody string
}

func newStubExtractor() *stubExtractor {
	return &stubExtractor{
		bodies:      make(map[string]string),
		defaultBody: "Vector search compares embeddings by cosine similarity. It powers semantic retrieval.",
	}
}

func (s *stubExtractor) Name() string { return "stub" }

func (s *stubExtractor) CanHandle(rawURL string) bool { return true }

func (s *stubExtractor) Extract(ctx context.Context, rawURL string) (*core.RawContent, error) {
	if s.errorOnURL != "" && strings.Contains(rawURL, s.errorOnURL) {
		return nil, &extract.FetchError{URL: rawURL, StatusCode: 503, Attempts: 3, Err: errors.New("service unavailable")}
	}

	body := s.defaultBody
	if override, ok := s.bodies[rawURL]; ok {
		body = override
	}

	return &core.RawContent{
		SourceURL: rawURL,
		Type:      core.SourceWeb,
		Title:     "Stub Article",
		Body:      body,
		FetchedAt: time.Now().UTC(),
		Metadata:  map[string]string{"author": "Stub Author"},
	}, nil
}

// recordingNoteWriter captures WriteNote calls.
type recordingNoteWriter struct {
	records []*core.ContentRecord
	err     error
}

func (w *recordingNoteWriter) WriteNote(ctx context.Context, record *core.ContentRecord) error {
	if w.err != nil {
		return w.err
	}
	w.records = append(w.records, record)
	return nil
}

// failingRepository wraps a real repository and fails writes on demand.
type failingRepository struct {
	storage.ContentRepository
	failAdd bool
}

func (r *failingRepository) Add(ctx context.Context, records ...*core.ContentRecord) ([]*core.ContentRecord, error) {
	if r.failAdd {
		return nil, errors.New("disk full")
	}
	return r.ContentRepository.Add(ctx, records...)
}

func setupTestPipeline(t *testing.T, opts ...Option) (*Pipeline, storage.ContentRepository, *mock.MockProvider, *stubExtractor) {
	t.Helper()

	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	provider := mock.NewMockProvider().(*mock.MockProvider)
	stub := newStubExtractor()

	opts = append([]Option{WithRegistry(extract.NewRegistry(stub)), WithPoolSize(2)}, opts...)
	pipeline, err := NewPipeline(repo, provider, opts...)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	return pipeline, repo, provider, stub
}

func TestNewPipeline(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()
	defer repo.Close()

	provider := mock.NewMockProvider()

	t.Run("valid pipeline", func(t *testing.T) {
		pipeline, err := NewPipeline(repo, provider)
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		defer pipeline.Release()
	})

	t.Run("nil repository", func(t *testing.T) {
		_, err := NewPipeline(nil, provider)
		assert.Equal(t, ErrRepositoryRequired, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewPipeline(repo, nil)
		assert.Equal(t, ErrProviderRequired, err)
	})
}

func TestPipeline_Ingest_FullEnrichment(t *testing.T) {
	pipeline, repo, _, _ := setupTestPipeline(t)
	ctx := context.Background()

	result, err := pipeline.Ingest(ctx, "https://example.com/article", nil)
	require.NoError(t, err)
	require.Equal(t, StatusPersisted, result.Status)
	require.NotZero(t, result.RecordID)

	assert.Equal(t, OutcomeOK, result.Run.Stages[StageExtract])
	assert.Equal(t, OutcomeOK, result.Run.Stages[StageEnrich])
	assert.Equal(t, OutcomeOK, result.Run.Stages[StagePersist])
	assert.Empty(t, result.Run.Errors)

	record, err := repo.Get(ctx, result.RecordID)
	require.NoError(t, err)
	assert.Equal(t, "Stub Article", record.Title)
	assert.Equal(t, "Stub Author", record.Author)
	assert.NotEmpty(t, record.Summary)
	assert.NotEmpty(t, record.Keywords)
	assert.True(t, record.HasEmbedding())
	assert.Equal(t, mock.MockModelName, record.EmbeddingModel)
	assert.NotZero(t, record.ContentHash)
	assert.False(t, record.CreatedAt.IsZero())
}

func TestPipeline_Ingest_EnrichmentOutage(t *testing.T) {
	pipeline, repo, provider, _ := setupTestPipeline(t)
	ctx := context.Background()

	outage := errors.New("connection refused")
	provider.GetMockSummarizer().SummarizeFunc = func(ctx context.Context, text string) (string, error) {
		return "", outage
	}
	provider.GetMockKeywordExtractor().KeywordsFunc = func(ctx context.Context, text string) ([]string, error) {
		return nil, outage
	}
	provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, outage
	}

	// An AI outage degrades the record; it must still be stored and
	// retrievable.
	result, err := pipeline.Ingest(ctx, "https://example.com/article", nil)
	require.NoError(t, err)
	require.Equal(t, StatusPersisted, result.Status)

	// With every enricher down the stage itself reads as failed.
	assert.Equal(t, OutcomeFailed, result.Run.Stages[StageEnrich])
	assert.Len(t, result.Run.Errors, 3)
	for _, stageErr := range result.Run.Errors {
		assert.Equal(t, StageEnrich, stageErr.Stage)
		assert.ErrorIs(t, stageErr.Err, outage)
	}

	record, err := repo.Get(ctx, result.RecordID)
	require.NoError(t, err)
	assert.Empty(t, record.Summary)
	assert.Empty(t, record.Keywords)
	assert.False(t, record.HasEmbedding())
	assert.NotEmpty(t, record.Body)
}

func TestPipeline_Ingest_PartialEnrichmentStaysOK(t *testing.T) {
	pipeline, repo, provider, _ := setupTestPipeline(t)
	ctx := context.Background()

	provider.GetMockSummarizer().SummarizeFunc = func(ctx context.Context, text string) (string, error) {
		return "", errors.New("model overloaded")
	}

	result, err := pipeline.Ingest(ctx, "https://example.com/article", nil)
	require.NoError(t, err)
	require.Equal(t, StatusPersisted, result.Status)

	// A single failed enricher is a degradation, not a stage failure.
	assert.Equal(t, OutcomeOK, result.Run.Stages[StageEnrich])
	assert.Len(t, result.Run.Errors, 1)

	record, err := repo.Get(ctx, result.RecordID)
	require.NoError(t, err)
	assert.Empty(t, record.Summary)
	assert.NotEmpty(t, record.Keywords)
	assert.True(t, record.HasEmbedding())
}

func TestPipeline_Ingest_DuplicateSkip(t *testing.T) {
	pipeline, _, provider, _ := setupTestPipeline(t)
	ctx := context.Background()

	first, err := pipeline.Ingest(ctx, "https://example.com/article", nil)
	require.NoError(t, err)
	require.Equal(t, StatusPersisted, first.Status)

	// The same URL with tracking params resolves to the same record, and
	// the enrichment stage never runs.
	callsBefore := provider.GetMockSummarizer().CallCount()
	second, err := pipeline.Ingest(ctx, "https://example.com/article?utm_source=feed", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusDuplicate, second.Status)
	assert.Equal(t, first.RecordID, second.RecordID)
	assert.Equal(t, OutcomeSkipped, second.Run.Stages[StageEnrich])
	assert.Equal(t, OutcomeSkipped, second.Run.Stages[StagePersist])
	assert.Equal(t, callsBefore, provider.GetMockSummarizer().CallCount())
}

func TestPipeline_Ingest_DuplicateByContentHash(t *testing.T) {
	pipeline, _, _, stub := setupTestPipeline(t)
	ctx := context.Background()

	stub.bodies["https://example.com/original"] = "The same article text."
	stub.bodies["https://mirror.example.org/copy"] = "The same article text."

	first, err := pipeline.Ingest(ctx, "https://example.com/original", nil)
	require.NoError(t, err)
	require.Equal(t, StatusPersisted, first.Status)

	second, err := pipeline.Ingest(ctx, "https://mirror.example.org/copy", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusDuplicate, second.Status)
	assert.Equal(t, first.RecordID, second.RecordID)
}

func TestPipeline_Ingest_DuplicateUpdate(t *testing.T) {
	pipeline, repo, _, stub := setupTestPipeline(t)
	ctx := context.Background()

	stub.bodies["https://example.com/article"] = "Original revision of the article."
	first, err := pipeline.Ingest(ctx, "https://example.com/article", nil)
	require.NoError(t, err)

	stub.bodies["https://example.com/article"] = "Revised article with corrections."
	second, err := pipeline.Ingest(ctx, "https://example.com/article", &Options{Mode: DuplicateUpdate, Persist: true, Tags: []string{"revised"}})
	require.NoError(t, err)
	assert.Equal(t, StatusDuplicate, second.Status)
	assert.Equal(t, first.RecordID, second.RecordID)

	record, err := repo.Get(ctx, first.RecordID)
	require.NoError(t, err)
	assert.Equal(t, "Revised article with corrections.", record.Body)
	assert.Contains(t, record.Tags, "revised")
	assert.Equal(t, core.HashContent("Revised article with corrections."), record.ContentHash)
}

func TestPipeline_Ingest_DuplicateInsert(t *testing.T) {
	pipeline, _, _, _ := setupTestPipeline(t)
	ctx := context.Background()

	first, err := pipeline.Ingest(ctx, "https://example.com/article", nil)
	require.NoError(t, err)

	second, err := pipeline.Ingest(ctx, "https://example.com/article", &Options{Mode: DuplicateInsert, Persist: true})
	require.NoError(t, err)
	assert.Equal(t, StatusPersisted, second.Status)
	assert.NotEqual(t, first.RecordID, second.RecordID)
}

func TestPipeline_Ingest_DryRun(t *testing.T) {
	pipeline, repo, _, _ := setupTestPipeline(t)
	ctx := context.Background()

	result, err := pipeline.Ingest(ctx, "https://example.com/article", &Options{Persist: false})
	require.NoError(t, err)
	assert.Equal(t, StatusDryRun, result.Status)
	assert.Equal(t, OutcomeSkipped, result.Run.Stages[StagePersist])

	// The enriched record is available on the run but nothing was stored.
	require.NotNil(t, result.Run.Partial)
	assert.NotEmpty(t, result.Run.Partial.Summary)

	stored, err := repo.Query(ctx, storage.Filter{})
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestPipeline_Ingest_ExtractFailed(t *testing.T) {
	pipeline, repo, _, stub := setupTestPipeline(t)
	ctx := context.Background()

	stub.errorOnURL = "broken"

	result, err := pipeline.Ingest(ctx, "https://example.com/broken", nil)
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, StatusExtractFailed, result.Status)
	assert.Equal(t, OutcomeFailed, result.Run.Stages[StageExtract])
	assert.True(t, result.Run.Failed())

	var fetchErr *extract.FetchError
	assert.ErrorAs(t, err, &fetchErr)

	stored, err := repo.Query(ctx, storage.Filter{})
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestPipeline_Ingest_PersistFailureKeepsEnrichedRecord(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()
	defer repo.Close()

	failing := &failingRepository{ContentRepository: repo, failAdd: true}
	provider := mock.NewMockProvider()
	pipeline, err := NewPipeline(failing, provider, WithRegistry(extract.NewRegistry(newStubExtractor())))
	require.NoError(t, err)
	defer pipeline.Release()

	result, err := pipeline.Ingest(context.Background(), "https://example.com/article", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistFailed)
	assert.Equal(t, StatusPersistFailed, result.Status)

	// The enrichment work already paid for survives on the run.
	require.NotNil(t, result.Run.Partial)
	assert.NotEmpty(t, result.Run.Partial.Summary)
	assert.True(t, result.Run.Partial.HasEmbedding())
}

func TestPipeline_Ingest_AppliesTagsAndTimestamp(t *testing.T) {
	pipeline, repo, _, _ := setupTestPipeline(t)
	ctx := context.Background()

	backfill := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Microsecond)
	result, err := pipeline.Ingest(ctx, "https://example.com/article", &Options{
		Persist:   true,
		Timestamp: backfill,
		Tags:      []string{"ml", "to-read"},
	})
	require.NoError(t, err)

	record, err := repo.Get(ctx, result.RecordID)
	require.NoError(t, err)
	assert.Equal(t, []string{"ml", "to-read"}, record.Tags)
	assert.True(t, record.CreatedAt.Equal(backfill))
}

func TestPipeline_NoteWriter(t *testing.T) {
	notes := &recordingNoteWriter{}
	pipeline, _, _, _ := setupTestPipeline(t, WithNoteWriter(notes))
	ctx := context.Background()

	result, err := pipeline.Ingest(ctx, "https://example.com/article", nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeOK, result.Run.Stages[StageNote])
	require.Len(t, notes.records, 1)
	assert.Equal(t, result.RecordID, notes.records[0].Id)
}

func TestPipeline_NoteWriterFailureIsNonFatal(t *testing.T) {
	notes := &recordingNoteWriter{err: errors.New("notes dir missing")}
	pipeline, repo, _, _ := setupTestPipeline(t, WithNoteWriter(notes))
	ctx := context.Background()

	result, err := pipeline.Ingest(ctx, "https://example.com/article", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusPersisted, result.Status)
	assert.Equal(t, OutcomeFailed, result.Run.Stages[StageNote])
	require.Len(t, result.Run.Errors, 1)
	assert.Equal(t, StageNote, result.Run.Errors[0].Stage)

	// The record itself is still stored.
	_, err = repo.Get(ctx, result.RecordID)
	require.NoError(t, err)
}

func TestPipeline_IngestBatch(t *testing.T) {
	pipeline, _, _, stub := setupTestPipeline(t)
	ctx := context.Background()

	stub.errorOnURL = "broken"

	urls := make([]string, 5)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://example.com/post-%d", i)
		stub.bodies[urls[i]] = fmt.Sprintf("Article number %d with distinct text.", i)
	}
	urls[2] = "https://example.com/broken"

	results, err := pipeline.IngestBatch(ctx, urls, nil)
	require.NoError(t, err)
	require.Len(t, results, 5)

	// One failing URL never affects its neighbors, and results stay
	// positionally stable.
	for i, result := range results {
		require.NotNil(t, result, "result %d", i)
		if i == 2 {
			assert.Equal(t, StatusExtractFailed, result.Status)
			continue
		}
		assert.Equal(t, StatusPersisted, result.Status, "result %d", i)
		assert.Equal(t, urls[i], result.Run.URL)
	}
}

func TestPipeline_IngestBatch_Cancellation(t *testing.T) {
	pipeline, _, _, _ := setupTestPipeline(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := pipeline.IngestBatch(ctx, []string{"https://example.com/a", "https://example.com/b"}, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, result := range results {
		require.NotNil(t, result)
		assert.Equal(t, StatusExtractFailed, result.Status)
		assert.Equal(t, OutcomeSkipped, result.Run.Stages[StageExtract])
	}
}

func TestStageError_Message(t *testing.T) {
	withOp := &StageError{Stage: StageEnrich, Op: "summary", Err: errors.New("boom")}
	assert.Equal(t, "enrich/summary: boom", withOp.Error())

	withoutOp := &StageError{Stage: StagePersist, Err: errors.New("boom")}
	assert.Equal(t, "persist: boom", withoutOp.Error())
}
