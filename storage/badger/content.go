package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/lore/core"
	"github.com/poiesic/lore/dedupe"
	"github.com/poiesic/lore/storage"
)

// ContentRepository implements storage.ContentRepository for BadgerDB.
type ContentRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ContentRepository = (*ContentRepository)(nil)

// NewContentRepository creates a ContentRepository on the given backend.
//
// Returns storage.ContentRepository interface to enforce abstraction.
func NewContentRepository(backend *Backend) (storage.ContentRepository, error) {
	return newContentRepository(backend)
}

func newContentRepository(backend *Backend) (*ContentRepository, error) {
	idSeq, err := backend.GetSequence(contentIDSeq)
	if err != nil {
		return nil, err
	}

	return &ContentRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ContentRepository) Close() error {
	return r.idSeq.Release()
}

// FindSimilar delegates to the backend.
func (r *ContentRepository) FindSimilar(ctx context.Context, vector []float32, model string, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	return r.backend.FindSimilar(ctx, vector, model, minSimilarity, limit)
}

// WithTransaction delegates to the backend.
func (r *ContentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// Add adds one or more content records to storage. The record and all of
// its index entries are written in one transaction.
func (r *ContentRepository) Add(ctx context.Context, records ...*core.ContentRecord) ([]*core.ContentRecord, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			record.Id = core.ID(nextID)

			// A caller-provided CreatedAt survives; batch imports backfill
			// original publication dates this way.
			if record.CreatedAt.IsZero() {
				record.CreatedAt = time.Now().UTC()
			}
			// The wire format stores microseconds; truncate up front so
			// the in-memory record equals what a later Get returns.
			record.CreatedAt = record.CreatedAt.Truncate(time.Microsecond)
			record.UpdatedAt = record.CreatedAt

			if err := r.writeRecord(tx, record); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return records, err
}

// Update updates existing records in place.
func (r *ContentRepository) Update(ctx context.Context, records ...*core.ContentRecord) ([]*core.ContentRecord, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			old, err := r.readRecord(tx, makeContentRecordKey(record.Id))
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			if record.CreatedAt.IsZero() {
				record.CreatedAt = old.CreatedAt
			}
			record.CreatedAt = record.CreatedAt.Truncate(time.Microsecond)
			record.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

			if err := r.deleteIndexes(tx, old); err != nil {
				return err
			}
			if err := r.writeRecord(tx, record); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return records, err
}

// Delete removes records by their IDs, along with their index entries.
func (r *ContentRepository) Delete(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeContentRecordKey(id)

			record, err := r.readRecord(tx, key)
			if err != nil {
				return err
			}
			if record == nil {
				return storage.ErrNotFound
			}

			if err := r.deleteIndexes(tx, record); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Get retrieves a single record by ID.
func (r *ContentRepository) Get(ctx context.Context, id core.ID) (*core.ContentRecord, error) {
	var result *core.ContentRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readRecord(tx, makeContentRecordKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetMany retrieves multiple records by their IDs.
func (r *ContentRepository) GetMany(ctx context.Context, ids ...core.ID) ([]*core.ContentRecord, error) {
	var result []*core.ContentRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			record, err := r.readRecord(tx, makeContentRecordKey(id))
			if err != nil {
				return err
			}
			if record != nil {
				result = append(result, record)
			}
		}
		return nil
	}, false)
	return result, err
}

// Query retrieves records matching the filter via the date index, ordered
// by CreatedAt ascending.
func (r *ContentRepository) Query(ctx context.Context, filter storage.Filter) ([]*core.ContentRecord, error) {
	if filter.Limit < 0 {
		return nil, storage.ErrInvalidQuery
	}

	start := filter.CreatedAfter
	if start.IsZero() {
		// The date index encodes Unix micros unsigned; pre-epoch times
		// would sort after everything.
		start = time.UnixMicro(0)
	}
	end := filter.CreatedBefore
	if end.IsZero() {
		end = time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC)
	}

	var results []*core.ContentRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialContentDateKey(start)
		endKey := makePartialContentDateKey(end)
		prefix := []byte(contentDatePrefix + ":")

		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(prefix) || slices.Compare(key[:len(prefix)], prefix) != 0 {
				break
			}
			if slices.Compare(key[:len(endKey)], endKey) >= 0 {
				break
			}

			var recordID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				recordID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			record, err := r.readRecord(tx, makeContentRecordKey(recordID))
			if err != nil {
				return err
			}
			if record == nil || !matchesFilter(record, filter) {
				continue
			}

			results = append(results, record)
			if filter.Limit > 0 && len(results) == filter.Limit {
				break
			}
		}
		return nil
	}, false)

	return results, err
}

// FindByURL returns the record ingested from the given URL.
func (r *ContentRepository) FindByURL(ctx context.Context, url string) (*core.ContentRecord, error) {
	return r.findIndexed(makeContentURLKey(dedupe.NormalizeURL(url)))
}

// FindByContentHash returns a record whose body hashes to the given value.
func (r *ContentRepository) FindByContentHash(ctx context.Context, hash uint64) (*core.ContentRecord, error) {
	return r.findIndexed(makeContentHashKey(hash))
}

// ForEach visits every stored record.
func (r *ContentRepository) ForEach(ctx context.Context, fn func(record *core.ContentRecord) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(contentRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var record *core.ContentRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalContentRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record == nil {
				continue
			}
			if err := fn(record); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// Helper methods

// writeRecord stores the record and all of its index entries.
func (r *ContentRepository) writeRecord(tx *badger.Txn, record *core.ContentRecord) error {
	idValue := storage.MarshalID(record.Id)

	if err := tx.Set(makeContentRecordKey(record.Id), storage.MarshalContentRecord(record)); err != nil {
		return err
	}
	if err := tx.Set(makeContentDateKey(record.CreatedAt, record.Id), idValue); err != nil {
		return err
	}
	if err := tx.Set(makeContentURLKey(dedupe.NormalizeURL(record.URL)), idValue); err != nil {
		return err
	}
	if record.ContentHash != 0 {
		if err := tx.Set(makeContentHashKey(record.ContentHash), idValue); err != nil {
			return err
		}
	}
	return nil
}

// deleteIndexes removes the index entries derived from a stored record.
func (r *ContentRepository) deleteIndexes(tx *badger.Txn, record *core.ContentRecord) error {
	if err := tx.Delete(makeContentDateKey(record.CreatedAt, record.Id)); err != nil {
		return err
	}
	if err := tx.Delete(makeContentURLKey(dedupe.NormalizeURL(record.URL))); err != nil {
		return err
	}
	if record.ContentHash != 0 {
		if err := tx.Delete(makeContentHashKey(record.ContentHash)); err != nil {
			return err
		}
	}
	return nil
}

// readRecord reads a content record from the transaction.
func (r *ContentRepository) readRecord(tx *badger.Txn, key []byte) (*core.ContentRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.ContentRecord
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalContentRecord(val)
		return unmarshalErr
	})
	return record, err
}

// findIndexed resolves an index key to its record.
func (r *ContentRepository) findIndexed(indexKey []byte) (*core.ContentRecord, error) {
	var result *core.ContentRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(indexKey)
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		var recordID core.ID
		if err := item.Value(func(val []byte) error {
			var err error
			recordID, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}

		result, err = r.readRecord(tx, makeContentRecordKey(recordID))
		if err != nil {
			return err
		}
		if result == nil {
			// Dangling index entry; treat as absent.
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// matchesFilter applies the non-date dimensions of a filter.
func matchesFilter(record *core.ContentRecord, filter storage.Filter) bool {
	if len(filter.Types) > 0 && !slices.Contains(filter.Types, record.Type) {
		return false
	}
	if len(filter.Tags) > 0 {
		any := false
		for _, tag := range filter.Tags {
			if slices.Contains(record.Tags, tag) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	return true
}
