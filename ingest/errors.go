package ingest

import "errors"

var (
	// ErrRepositoryRequired is returned when a content repository is not provided.
	ErrRepositoryRequired = errors.New("content repository required")

	// ErrProviderRequired is returned when an AI provider is not provided.
	ErrProviderRequired = errors.New("AI provider required")

	// ErrPersistFailed is returned when a fully processed record could not
	// be written to storage. The enriched record is preserved in Run.Partial.
	ErrPersistFailed = errors.New("persist failed")
)
