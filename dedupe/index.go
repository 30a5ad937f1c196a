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


// Package dedupe detects duplicate content before it lands in storage.
//
// Duplicates are identified two ways: by normalized source URL, and by
// content hash for the same text republished under a different URL. The
// check is advisory; a race between two concurrent ingests of the same
// page resolves as a benign duplicate on the next check.
package dedupe

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/lore/core"
	"github.com/poiesic/lore/storage"
)

// Key is the identity a record is deduplicated on.
type Key struct {
	NormalizedURL string
	ContentHash   uint64
}

// KeyFor derives the dedupe identity of raw content.
func KeyFor(raw *core.RawContent) Key {
	return Key{
		NormalizedURL: NormalizeURL(raw.SourceURL),
		ContentHash:   core.HashContent(raw.Body),
	}
}

// Lookup is the slice of the storage layer the index needs.
type Lookup interface {
	// FindByURL returns the record ingested from the given URL, matching
	// on the normalized form. Returns storage.ErrNotFound when absent.
	FindByURL(ctx context.Context, url string) (*core.ContentRecord, error)

	// FindByContentHash returns a record whose body hashes to the given
	// value. Returns storage.ErrNotFound when absent.
	FindByContentHash(ctx context.Context, hash uint64) (*core.ContentRecord, error)
}

// Index answers "have we ingested this already?" against the store.
type Index struct {
	store  Lookup
	logger *slog.Logger
}

// NewIndex creates a dedupe index backed by the given store.
func NewIndex(store Lookup) *Index {
	return &Index{
		store:  store,
		logger: slog.Default().With("component", "dedupe"),
	}
}

// Check looks for an existing record covering the raw content. The URL
// index is consulted first; on a miss the content hash catches the same
// text under a different URL. Returns the existing record and true when a
// duplicate exists.
func (x *Index) Check(ctx context.Context, raw *core.RawContent) (*core.ContentRecord, bool, error) {
	key := KeyFor(raw)

	existing, err := x.store.FindByURL(ctx, key.NormalizedURL)
	if err == nil {
		x.logger.Debug("duplicate by url", "url", key.NormalizedURL, "id", existing.Id)
		return existing, true, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, err
	}

	existing, err = x.store.FindByContentHash(ctx, key.ContentHash)
	if err == nil {
		x.logger.Debug("duplicate by content hash", "hash", key.ContentHash, "id", existing.Id)
		return existing, true, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, err
	}

	return nil, false, nil
}
