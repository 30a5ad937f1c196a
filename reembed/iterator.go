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


package reembed

import (
	"context"

	"github.com/poiesic/lore/core"
	"github.com/poiesic/lore/storage"
)

// DefaultBatchSize is the default number of records handed to each batch.
const DefaultBatchSize = 100

// RecordIterator walks every content record in creation order, in batches.
type RecordIterator struct {
	repo      storage.ContentRepository
	batchSize int
}

// NewRecordIterator creates a new record iterator.
// batchSize: number of records per batch (must be > 0)
func NewRecordIterator(repo storage.ContentRepository, batchSize int) *RecordIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &RecordIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEachBatch calls fn for each batch of records. Iteration stops on the
// first error from fn. Context cancellation is checked between batches.
func (it *RecordIterator) ForEachBatch(ctx context.Context, fn func([]*core.ContentRecord) error) error {
	batch := make([]*core.ContentRecord, 0, it.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return ctx.Err()
	}

	err := it.repo.ForEach(ctx, func(record *core.ContentRecord) error {
		batch = append(batch, record)
		if len(batch) == it.batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return err
	}

	return flush()
}
