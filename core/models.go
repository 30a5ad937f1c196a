package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored content records.
// IDs are assigned by the storage layer from a database sequence and are
// never reused after deletion.
type ID uint64

// SourceType identifies the kind of source a record was extracted from.
type SourceType string

const (
	SourceWeb     SourceType = "web"
	SourceArxiv   SourceType = "arxiv"
	SourceGithub  SourceType = "github"
	SourceYoutube SourceType = "youtube"
)

// Valid reports whether the source type is one of the known variants.
func (s SourceType) Valid() bool {
	switch s {
	case SourceWeb, SourceArxiv, SourceGithub, SourceYoutube:
		return true
	}
	return false
}

// RawContent is the unpersisted output of an extractor. It carries the
// fetched text plus source-specific metadata and is consumed by the
// ingestion pipeline; it is never stored as-is.
type RawContent struct {
	SourceURL string
	Type      SourceType
	Title     string
	Body      string
	FetchedAt time.Time
	Metadata  map[string]string // author, stars, video duration, ...
}

// ContentRecord is the durable, enriched, searchable unit of the knowledge
// base. Summary, Keywords and Embedding may be empty when enrichment failed;
// such a record is still valid and retrievable.
type ContentRecord struct {
	Id             ID
	URL            string // normalized source URL
	Type           SourceType
	Title          string
	Body           string
	Summary        string    // empty until summarization succeeds
	Keywords       []string  // ordered, possibly empty
	Embedding      []float32 // nil until computed, unit length once set
	EmbeddingModel string    // model tag; vectors from different models are never compared
	Tags           []string
	Author         string
	ContentHash    uint64 // blake2b fingerprint of Body
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Metadata       map[string]string
}

// HasEmbedding reports whether the record carries a usable vector.
func (r *ContentRecord) HasEmbedding() bool {
	return len(r.Embedding) > 0 && r.EmbeddingModel != ""
}

// SimilarityMatch represents a record match from vector similarity search.
type SimilarityMatch struct {
	RecordId ID
	Score    float32
}

// SearchResult represents a search result with the full record and
// relevance score.
type SearchResult struct {
	Record *ContentRecord
	Score  float32
}

// HashContent generates a deterministic 64-bit fingerprint of text content
// using BLAKE2b. Identical body text always produces the same hash, which is
// what lets the dedup index catch the same article republished under a
// different URL.
func HashContent(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}
