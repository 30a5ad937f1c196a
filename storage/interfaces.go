package storage

import (
	"context"
	"time"

	"github.com/poiesic/lore/core"
)

// Filter narrows Query results. Zero values leave a dimension unconstrained.
type Filter struct {
	// Types restricts results to the given source types. Empty matches all.
	Types []core.SourceType

	// Tags restricts results to records carrying at least one of the given
	// tags. Empty matches all.
	Tags []string

	// CreatedAfter keeps records with CreatedAt >= this time when non-zero.
	CreatedAfter time.Time

	// CreatedBefore keeps records with CreatedAt < this time when non-zero.
	CreatedBefore time.Time

	// Limit caps the number of results. Zero means no cap.
	Limit int
}

// Repository provides common storage operations shared across repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// FindSimilar finds records similar to the given vector. Only records
	// whose embedding was produced by the given model participate; vectors
	// from different models are never compared. Returns records with
	// similarity >= minSimilarity, up to limit results, ordered by
	// similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, model string, minSimilarity float32, limit int) ([]*core.SearchResult, error)

	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// ContentRepository provides operations for managing content records.
type ContentRepository interface {
	Repository

	// Add adds one or more content records to storage.
	// Generates IDs from sequence; sets CreatedAt/UpdatedAt when unset.
	// Returns the records with generated IDs and timestamps populated.
	Add(ctx context.Context, records ...*core.ContentRecord) ([]*core.ContentRecord, error)

	// Update updates existing records in place. The UpdatedAt timestamp is
	// set automatically; CreatedAt is preserved from the stored record when
	// unset. Returns ErrNotFound if any record doesn't exist.
	Update(ctx context.Context, records ...*core.ContentRecord) ([]*core.ContentRecord, error)

	// Delete removes records by their IDs, along with their index entries.
	// Returns ErrNotFound if any record doesn't exist.
	Delete(ctx context.Context, ids ...core.ID) error

	// Get retrieves a single record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	Get(ctx context.Context, id core.ID) (*core.ContentRecord, error)

	// GetMany retrieves multiple records by their IDs.
	// Returns only the records that exist (no error for missing records).
	GetMany(ctx context.Context, ids ...core.ID) ([]*core.ContentRecord, error)

	// Query retrieves records matching the filter, ordered by CreatedAt
	// ascending.
	Query(ctx context.Context, filter Filter) ([]*core.ContentRecord, error)

	// FindByURL returns the record ingested from the given URL, matching on
	// the normalized form. Returns ErrNotFound when absent.
	FindByURL(ctx context.Context, url string) (*core.ContentRecord, error)

	// FindByContentHash returns a record whose body hashes to the given
	// value. Returns ErrNotFound when absent.
	FindByContentHash(ctx context.Context, hash uint64) (*core.ContentRecord, error)

	// ForEach visits every stored record. Iteration stops at the first
	// error from fn and returns it.
	ForEach(ctx context.Context, fn func(record *core.ContentRecord) error) error
}
