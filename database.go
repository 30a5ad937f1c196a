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


package lore

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/poiesic/lore/ai"
	"github.com/poiesic/lore/ai/openai"
	"github.com/poiesic/lore/ingest"
	"github.com/poiesic/lore/reembed"
	"github.com/poiesic/lore/search"
	"github.com/poiesic/lore/storage"
	"github.com/poiesic/lore/storage/badger"
)

// swappableProvider is an ai.Provider whose backing provider can be
// replaced at runtime. Pipelines and searchers hold the wrapper, so a swap
// reaches them without reconstruction.
type swappableProvider struct {
	mu    sync.RWMutex
	inner ai.Provider
}

func (p *swappableProvider) current() ai.Provider {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.inner
}

func (p *swappableProvider) swap(next ai.Provider) ai.Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	old := p.inner
	p.inner = next
	return old
}

func (p *swappableProvider) Summarizer() ai.Summarizer             { return p.current().Summarizer() }
func (p *swappableProvider) KeywordExtractor() ai.KeywordExtractor { return p.current().KeywordExtractor() }
func (p *swappableProvider) Embedder() ai.Embedder                 { return p.current().Embedder() }
func (p *swappableProvider) EmbeddingModel() string                { return p.current().EmbeddingModel() }
func (p *swappableProvider) Close() error                          { return p.current().Close() }

// Database is the top-level handle over a knowledge base: the badger
// backend, the content repository and the AI provider, with constructors
// for the pipeline, searcher and reembedder wired to them.
type Database struct {
	backend     *badger.Backend
	contentRepo storage.ContentRepository
	provider    *swappableProvider
	logger      *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
	inMemory bool
}

// WithAIConfig sets the AI provider configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithProvider injects a pre-built AI provider instead of constructing one
// from config. Used by tests to run against a mock.
func WithProvider(provider ai.Provider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithInMemory opens a non-persistent database. The file path is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// NewDatabase opens (or creates) a knowledge base at the given path.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	contentRepo, err := badger.NewContentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			contentRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Database{
		backend:     backend,
		contentRepo: contentRepo,
		provider:    &swappableProvider{inner: provider},
		logger:      slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.contentRepo.Close(); err != nil {
		db.logger.Error("error closing content repository", "err", err)
		return err
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) ContentRepository() storage.ContentRepository {
	return db.contentRepo
}

// Provider returns the AI provider. The returned value stays valid across
// SwapProviderConfig calls.
func (db *Database) Provider() ai.Provider {
	return db.provider
}

func (db *Database) NewIngestionPipeline(opts ...ingest.Option) (*ingest.Pipeline, error) {
	return ingest.NewPipeline(db.contentRepo, db.provider, opts...)
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.contentRepo, db.provider, opts...)
}

func (db *Database) NewReembedder(config *reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(db.contentRepo, db.provider, config, progress)
}

// SwapProviderConfig replaces the AI provider with one built from the
// given config. Existing pipelines and searchers pick up the new provider
// on their next call. Stored embeddings keep their old model tag; run the
// reembedder to migrate them.
func (db *Database) SwapProviderConfig(config *ai.Config) error {
	next, err := openai.NewProvider(config)
	if err != nil {
		return fmt.Errorf("failed to build provider: %w", err)
	}

	old := db.provider.swap(next)
	if err := old.Close(); err != nil {
		db.logger.Error("error closing replaced AI provider", "err", err)
	}
	return nil
}
