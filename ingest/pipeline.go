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


package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/lore/ai"
	"github.com/poiesic/lore/core"
	"github.com/poiesic/lore/dedupe"
	"github.com/poiesic/lore/extract"
	"github.com/poiesic/lore/storage"
)

// DuplicateMode controls what happens when the dedupe check finds an
// existing record for incoming content.
type DuplicateMode string

const (
	// DuplicateSkip keeps the existing record untouched and reports its ID.
	DuplicateSkip DuplicateMode = "skip"

	// DuplicateUpdate refreshes the existing record's content and
	// enrichment fields in place.
	DuplicateUpdate DuplicateMode = "update"

	// DuplicateInsert stores a new record regardless of duplicates.
	DuplicateInsert DuplicateMode = "insert"
)

// NoteWriter receives a copy of every persisted record, typically to write
// a markdown note alongside the database. Failures are reported on the Run
// and never roll back the persisted record.
type NoteWriter interface {
	WriteNote(ctx context.Context, record *core.ContentRecord) error
}

// Options holds optional parameters for ingestion.
type Options struct {
	Mode      DuplicateMode // duplicate handling, DuplicateSkip when empty
	Persist   bool          // false extracts and enriches without writing
	Timestamp time.Time     // record CreatedAt override for backfills
	Tags      []string      // tags applied to the stored record
}

// DefaultOptions returns the options used when Ingest receives nil.
func DefaultOptions() *Options {
	return &Options{
		Mode:    DuplicateSkip,
		Persist: true,
	}
}

// Pipeline orchestrates ingestion: extraction, AI enrichment, duplicate
// detection and persistence for a single URL or a batch.
type Pipeline struct {
	registry   *extract.Registry
	repository storage.ContentRepository
	provider   ai.Provider
	index      *dedupe.Index
	notes      NoteWriter
	pool       *ants.Pool
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithRegistry replaces the default extractor registry.
func WithRegistry(registry *extract.Registry) Option {
	return func(p *Pipeline) error {
		if registry != nil {
			p.registry = registry
		}
		return nil
	}
}

// WithNoteWriter attaches a side channel that receives every persisted
// record.
func WithNoteWriter(notes NoteWriter) Option {
	return func(p *Pipeline) error {
		p.notes = notes
		return nil
	}
}

// WithPoolSize sets the worker pool size for batch ingestion.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an ingestion pipeline over the given repository and
// AI provider.
func NewPipeline(repository storage.ContentRepository, provider ai.Provider, opts ...Option) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		registry:   extract.NewDefaultRegistry(),
		repository: repository,
		provider:   provider,
		index:      dedupe.NewIndex(repository),
		pool:       pool,
		logger:     slog.Default().With("component", "ingest"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Ingest runs one URL through the full pipeline. The returned Result always
// describes the run; the error is non-nil only when the run ended in a
// terminal failure (extraction or persistence).
func (p *Pipeline) Ingest(ctx context.Context, rawURL string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	mode := opts.Mode
	if mode == "" {
		mode = DuplicateSkip
	}

	run := newRun(rawURL)

	raw, err := p.registry.Extract(ctx, rawURL)
	if err != nil {
		run.mark(StageExtract, OutcomeFailed)
		run.warn(StageExtract, "", err)
		p.logger.Error("extraction failed", "url", rawURL, "err", err)
		return &Result{Status: StatusExtractFailed, Run: run}, err
	}
	run.mark(StageExtract, OutcomeOK)

	// The duplicate check runs before enrichment so a skipped duplicate
	// never costs an LLM round trip. The check is advisory: a failed
	// lookup degrades to "not a duplicate".
	existing, isDup, err := p.index.Check(ctx, raw)
	if err != nil {
		run.mark(StageDedupe, OutcomeFailed)
		run.warn(StageDedupe, "", err)
		isDup = false
	} else {
		run.mark(StageDedupe, OutcomeOK)
	}

	if isDup && mode == DuplicateSkip {
		run.mark(StageEnrich, OutcomeSkipped)
		run.mark(StagePersist, OutcomeSkipped)
		p.logger.Info("duplicate skipped", "url", rawURL, "id", existing.Id)
		return &Result{Status: StatusDuplicate, RecordID: existing.Id, Run: run}, nil
	}

	record := recordFromRaw(raw, opts)
	p.enrich(ctx, record, run)

	if !opts.Persist {
		run.mark(StagePersist, OutcomeSkipped)
		run.Partial = record
		return &Result{Status: StatusDryRun, Run: run}, nil
	}

	if err := core.ValidateRecord(record); err != nil {
		return p.persistFailure(run, record, err)
	}

	var result *Result
	if isDup && mode == DuplicateUpdate {
		record = refreshRecord(existing, record)
		if _, err := p.repository.Update(ctx, record); err != nil {
			return p.persistFailure(run, record, err)
		}
		result = &Result{Status: StatusDuplicate, RecordID: existing.Id, Run: run}
	} else {
		added, err := p.repository.Add(ctx, record)
		if err != nil {
			return p.persistFailure(run, record, err)
		}
		result = &Result{Status: StatusPersisted, RecordID: added[0].Id, Run: run}
	}
	run.mark(StagePersist, OutcomeOK)

	if p.notes != nil {
		if err := p.notes.WriteNote(ctx, record); err != nil {
			run.mark(StageNote, OutcomeFailed)
			run.warn(StageNote, "", err)
			p.logger.Warn("note write failed", "url", rawURL, "err", err)
		} else {
			run.mark(StageNote, OutcomeOK)
		}
	}

	return result, nil
}

// enrich fills Summary, Keywords and Embedding concurrently. Each field is
// best effort: a provider failure leaves the field empty and records a
// warning on the run, never aborting the item.
func (p *Pipeline) enrich(ctx context.Context, record *core.ContentRecord, run *Run) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failures int
	warn := func(op string, err error) {
		mu.Lock()
		failures++
		run.warn(StageEnrich, op, err)
		mu.Unlock()
		p.logger.Warn("enrichment degraded", "url", record.URL, "op", op, "err", err)
	}

	embedText := record.Title + "\n\n" + record.Body

	wg.Add(3)
	go func() {
		defer wg.Done()
		summary, err := p.provider.Summarizer().Summarize(ctx, record.Body)
		if err != nil {
			warn("summary", err)
			return
		}
		record.Summary = summary
	}()
	go func() {
		defer wg.Done()
		keywords, err := p.provider.KeywordExtractor().Keywords(ctx, record.Body)
		if err != nil {
			warn("keywords", err)
			return
		}
		record.Keywords = keywords
	}()
	go func() {
		defer wg.Done()
		vector, err := p.provider.Embedder().EmbedText(ctx, embedText)
		if err != nil {
			warn("embedding", err)
			return
		}
		record.Embedding = vector
		record.EmbeddingModel = p.provider.EmbeddingModel()
	}()
	wg.Wait()

	// The stage is OK as long as something was enriched; when every op
	// failed the stage itself failed, though the item still proceeds.
	if failures == 3 {
		run.mark(StageEnrich, OutcomeFailed)
	} else {
		run.mark(StageEnrich, OutcomeOK)
	}
}

func (p *Pipeline) persistFailure(run *Run, record *core.ContentRecord, err error) (*Result, error) {
	run.mark(StagePersist, OutcomeFailed)
	run.warn(StagePersist, "", err)
	run.Partial = record
	p.logger.Error("persist failed", "url", run.URL, "err", err)
	return &Result{Status: StatusPersistFailed, Run: run}, fmt.Errorf("%w: %w", ErrPersistFailed, err)
}

// recordFromRaw shapes extractor output into a storable record.
func recordFromRaw(raw *core.RawContent, opts *Options) *core.ContentRecord {
	return &core.ContentRecord{
		URL:         dedupe.NormalizeURL(raw.SourceURL),
		Type:        raw.Type,
		Title:       raw.Title,
		Body:        raw.Body,
		Author:      raw.Metadata["author"],
		ContentHash: core.HashContent(raw.Body),
		Tags:        opts.Tags,
		CreatedAt:   opts.Timestamp,
		Metadata:    raw.Metadata,
	}
}

// refreshRecord carries fresh content and enrichment into an existing
// record, keeping its identity and creation time.
func refreshRecord(existing, fresh *core.ContentRecord) *core.ContentRecord {
	existing.Title = fresh.Title
	existing.Body = fresh.Body
	existing.ContentHash = fresh.ContentHash
	existing.Summary = fresh.Summary
	existing.Keywords = fresh.Keywords
	existing.Embedding = fresh.Embedding
	existing.EmbeddingModel = fresh.EmbeddingModel
	existing.Tags = mergeTags(existing.Tags, fresh.Tags)
	existing.Metadata = fresh.Metadata
	return existing
}

func mergeTags(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	merged := make([]string, 0, len(a)+len(b))
	for _, tag := range a {
		if !seen[tag] {
			seen[tag] = true
			merged = append(merged, tag)
		}
	}
	for _, tag := range b {
		if !seen[tag] {
			seen[tag] = true
			merged = append(merged, tag)
		}
	}
	return merged
}

// IngestBatch runs many URLs through the pipeline on the worker pool.
// Results are positionally stable with the input. One URL failing never
// affects its neighbors; per-item failures are carried in each Result's
// Run. Context cancellation abandons items not yet started.
func (p *Pipeline) IngestBatch(ctx context.Context, urls []string, opts *Options) ([]*Result, error) {
	results := make([]*Result, len(urls))
	var wg sync.WaitGroup

	for i, rawURL := range urls {
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()

			if ctx.Err() != nil {
				run := newRun(rawURL)
				run.mark(StageExtract, OutcomeSkipped)
				run.warn(StageExtract, "", ctx.Err())
				results[i] = &Result{Status: StatusExtractFailed, Run: run}
				return
			}

			result, err := p.Ingest(ctx, rawURL, opts)
			if err != nil {
				p.logger.Error("batch item failed", "url", rawURL, "err", err)
			}
			results[i] = result
		})
		if err != nil {
			wg.Done()
			return results, err
		}
	}

	wg.Wait()
	return results, nil
}

// Release releases the worker pool. The pipeline should not be used after
// calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
