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


// Package ai provides abstractions for the AI services used in Lore.
//
// This package defines interfaces for the enrichment operations: text
// summaries, keyword extraction and vector embeddings. It follows the
// dependency inversion principle, letting the pipeline and retrieval code
// depend on abstractions rather than concrete implementations.
//
// The package is designed around four interfaces:
//
//   - Summarizer: condenses document text into prose summaries
//   - KeywordExtractor: pulls topical keywords out of text
//   - Embedder: generates vector embeddings from text
//   - Provider: aggregates the services for convenient initialization
//
// Two implementation sub-packages exist:
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external dependencies
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// interface types to enforce abstraction. Test utility constructors
// (mock.NewMockEmbedder and friends) return concrete types so tests can
// inject behavior and assert call counts.
//
// Failures are reported as *ProviderError; the Transient field marks rate
// limits, timeouts and server errors, which callers retry with bounded
// backoff. Enrichment is best-effort: the ingestion pipeline treats any
// provider failure as a degraded record, never a lost one.
//
//	config := ai.NewConfig(ai.WithHost("http://localhost:11434"))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	summary, err := provider.Summarizer().Summarize(ctx, body)
//	vector, err := provider.Embedder().EmbedText(ctx, body)
package ai
