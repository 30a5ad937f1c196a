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


// Package storage provides the storage abstraction layer for Lore.
//
// This package defines the repository interface that decouples storage
// implementation from business logic, plus the MUS wire format for stored
// records. Different backends (BadgerDB, in-memory) are interchangeable
// behind the interface.
//
// # Constructor Return Type Pattern
//
// Public constructors return interface types to enforce abstraction and
// enable multiple storage backend implementations:
//
//	repo, err := badger.NewContentRepository(backend)  // returns storage.ContentRepository
//
// Internal package constructors may return concrete types since they're
// only used within the implementation package.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - Repository: vector search, transactions, lifecycle
//   - ContentRepository: CRUD, queries and lookup indexes for content records
//
// Lookup indexes cover normalized URL, content hash and creation date;
// FindSimilar scans embeddings with a model filter so vectors from
// different embedding models are never compared.
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	repo, err := badger.NewContentRepository(backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//	defer backend.Close()
//
// Use in tests with in-memory storage:
//
//	repo, backend, err := badger.NewMemoryRepository()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support. Pass context.Background() for operations
// without specific timeout requirements.
package storage
