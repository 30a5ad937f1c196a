package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/lore/core"
)

func TestContentRecordRoundTrip(t *testing.T) {
	created := time.Date(2025, 11, 3, 10, 30, 0, 0, time.UTC)
	record := &core.ContentRecord{
		Id:             42,
		URL:            "https://example.com/post",
		Type:           core.SourceArxiv,
		Title:          "Attention Is All You Need",
		Body:           "The dominant sequence transduction models...",
		Summary:        "Introduces the Transformer architecture.",
		Keywords:       []string{"transformer", "attention", "machine translation"},
		Embedding:      []float32{0.6, 0.8, 0.0},
		EmbeddingModel: "embeddinggemma",
		Tags:           []string{"ml", "to-read"},
		Author:         "Ashish Vaswani",
		ContentHash:    core.HashContent("The dominant sequence transduction models..."),
		CreatedAt:      created,
		UpdatedAt:      created.Add(time.Hour),
		Metadata:       map[string]string{"paper_id": "1706.03762"},
	}

	decoded, err := UnmarshalContentRecord(MarshalContentRecord(record))
	require.NoError(t, err)
	assert.Equal(t, record, decoded)
}

func TestContentRecordRoundTrip_Unenriched(t *testing.T) {
	// A record whose enrichment never ran: no summary, keywords or vector.
	record := &core.ContentRecord{
		Id:          7,
		URL:         "https://example.com/raw",
		Type:        core.SourceWeb,
		Title:       "Untitled",
		Body:        "body",
		ContentHash: core.HashContent("body"),
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
		UpdatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}

	decoded, err := UnmarshalContentRecord(MarshalContentRecord(record))
	require.NoError(t, err)
	assert.Equal(t, record.Id, decoded.Id)
	assert.Empty(t, decoded.Summary)
	assert.Empty(t, decoded.Keywords)
	assert.False(t, decoded.HasEmbedding())
	assert.True(t, record.CreatedAt.Equal(decoded.CreatedAt))
}

func TestIDRoundTrip(t *testing.T) {
	for _, id := range []core.ID{0, 1, 255, 1 << 40} {
		decoded, err := UnmarshalID(MarshalID(id))
		require.NoError(t, err)
		assert.Equal(t, id, decoded)
	}
}

func TestUnmarshalContentRecord_Truncated(t *testing.T) {
	record := &core.ContentRecord{Id: 1, URL: "https://example.com", Type: core.SourceWeb, Title: "t", Body: "b"}
	data := MarshalContentRecord(record)

	_, err := UnmarshalContentRecord(data[:len(data)/2])
	assert.Error(t, err)
}

func TestTimeSerialization_MicrosecondPrecision(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 123456789, time.UTC)

	buf := make([]byte, TimeMUS.Size(ts))
	TimeMUS.Marshal(ts, buf)
	decoded, _, err := TimeMUS.Unmarshal(buf)
	require.NoError(t, err)

	// Sub-microsecond precision is dropped by the wire format.
	assert.True(t, decoded.Equal(ts.Truncate(time.Microsecond)))
}
