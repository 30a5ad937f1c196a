package reembed

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/lore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordIterator_Batches(t *testing.T) {
	repo := setupTestDB(t)
	seedRecords(t, repo, 5)

	iterator := NewRecordIterator(repo, 2)

	var batchSizes []int
	var total int
	err := iterator.ForEachBatch(context.Background(), func(records []*core.ContentRecord) error {
		batchSizes = append(batchSizes, len(records))
		total += len(records)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int{2, 2, 1}, batchSizes)
	assert.Equal(t, 5, total)
}

func TestRecordIterator_Empty(t *testing.T) {
	repo := setupTestDB(t)

	iterator := NewRecordIterator(repo, 10)

	calls := 0
	err := iterator.ForEachBatch(context.Background(), func(records []*core.ContentRecord) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestRecordIterator_StopsOnError(t *testing.T) {
	repo := setupTestDB(t)
	seedRecords(t, repo, 5)

	iterator := NewRecordIterator(repo, 2)

	boom := errors.New("boom")
	calls := 0
	err := iterator.ForEachBatch(context.Background(), func(records []*core.ContentRecord) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRecordIterator_DefaultBatchSize(t *testing.T) {
	repo := setupTestDB(t)

	iterator := NewRecordIterator(repo, 0)
	assert.Equal(t, DefaultBatchSize, iterator.batchSize)
}
