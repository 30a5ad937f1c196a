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


// Package search provides keyword, semantic and hybrid retrieval over
// stored content records.
//
// The Searcher type implements three strategies:
//   - Keyword search with weighted field matching and stop-word filtering
//   - Semantic search using vector embeddings
//   - Hybrid search that unions both and boosts records found by each
//
// Related retrieval finds records similar to an existing record by its own
// embedding, falling back to keyword and tag overlap for records whose
// enrichment failed.
package search
