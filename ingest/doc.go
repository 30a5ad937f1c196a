// Package ingest provides pipeline orchestration for turning URLs into
// stored, enriched content records.
//
// The Pipeline type manages the ingestion workflow for a URL, including:
//   - Routing the URL to an extractor and fetching content
//   - Enriching the content with a summary, keywords and an embedding
//   - Detecting duplicates by normalized URL and content hash
//   - Persisting the record with its index entries
//
// Enrichment fields are independent and best effort: a provider outage
// degrades the record rather than failing the ingestion. Every run produces
// a stage-by-stage Run report, and records that could not be persisted are
// preserved on it for salvage. Batches are processed concurrently on a
// worker pool with per-item isolation.
package ingest
