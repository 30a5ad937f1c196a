package dedupe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/lore/core"
	"github.com/poiesic/lore/storage"
)

// fakeLookup is a function-field test double for the storage slice the
// index consumes.
type fakeLookup struct {
	findByURL  func(ctx context.Context, url string) (*core.ContentRecord, error)
	findByHash func(ctx context.Context, hash uint64) (*core.ContentRecord, error)
}

func (f *fakeLookup) FindByURL(ctx context.Context, url string) (*core.ContentRecord, error) {
	return f.findByURL(ctx, url)
}

func (f *fakeLookup) FindByContentHash(ctx context.Context, hash uint64) (*core.ContentRecord, error) {
	return f.findByHash(ctx, hash)
}

func notFoundLookup() *fakeLookup {
	return &fakeLookup{
		findByURL: func(ctx context.Context, url string) (*core.ContentRecord, error) {
			return nil, storage.ErrNotFound
		},
		findByHash: func(ctx context.Context, hash uint64) (*core.ContentRecord, error) {
			return nil, storage.ErrNotFound
		},
	}
}

func rawFixture(url, body string) *core.RawContent {
	return &core.RawContent{
		SourceURL: url,
		Type:      core.SourceWeb,
		Title:     "t",
		Body:      body,
		FetchedAt: time.Now().UTC(),
	}
}

func TestKeyFor(t *testing.T) {
	a := KeyFor(rawFixture("https://example.com/post?utm_source=x", "same body"))
	b := KeyFor(rawFixture("https://example.com/post/", "same body"))

	assert.Equal(t, a.NormalizedURL, b.NormalizedURL)
	assert.Equal(t, a.ContentHash, b.ContentHash)

	c := KeyFor(rawFixture("https://example.com/post", "different body"))
	assert.NotEqual(t, a.ContentHash, c.ContentHash)
}

func TestIndex_Check_URLHit(t *testing.T) {
	existing := &core.ContentRecord{Id: 7, URL: "https://example.com/post"}
	lookup := notFoundLookup()
	lookup.findByURL = func(ctx context.Context, url string) (*core.ContentRecord, error) {
		assert.Equal(t, "https://example.com/post", url, "lookup uses the normalized URL")
		return existing, nil
	}

	record, found, err := NewIndex(lookup).Check(context.Background(), rawFixture("https://example.com/post/?utm_medium=mail", "body"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, core.ID(7), record.Id)
}

func TestIndex_Check_HashFallback(t *testing.T) {
	existing := &core.ContentRecord{Id: 9, URL: "https://mirror.example.org/post"}
	lookup := notFoundLookup()
	lookup.findByHash = func(ctx context.Context, hash uint64) (*core.ContentRecord, error) {
		assert.Equal(t, core.HashContent("republished body"), hash)
		return existing, nil
	}

	record, found, err := NewIndex(lookup).Check(context.Background(), rawFixture("https://example.com/other", "republished body"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, core.ID(9), record.Id)
}

func TestIndex_Check_Miss(t *testing.T) {
	record, found, err := NewIndex(notFoundLookup()).Check(context.Background(), rawFixture("https://example.com/new", "fresh body"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, record)
}

func TestIndex_Check_StoreFailure(t *testing.T) {
	boom := errors.New("disk on fire")
	lookup := notFoundLookup()
	lookup.findByURL = func(ctx context.Context, url string) (*core.ContentRecord, error) {
		return nil, boom
	}

	_, found, err := NewIndex(lookup).Check(context.Background(), rawFixture("https://example.com/post", "body"))
	assert.False(t, found)
	assert.ErrorIs(t, err, boom)
}
