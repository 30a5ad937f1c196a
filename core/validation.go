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


package core

import (
	"fmt"
	"time"
)

// ValidateRawContent validates extractor output according to domain rules.
//
// Validation rules:
//   - SourceURL must not be empty
//   - Body must not be empty (empty body means extraction failed)
//   - Type must be a known source type
//
// NOT validated:
//   - Title (some sources legitimately have none)
//   - Metadata (free-form, source specific)
func ValidateRawContent(raw *RawContent) error {
	if raw == nil {
		return fmt.Errorf("%w: raw content is nil", ErrInvalidRawContent)
	}

	if raw.SourceURL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRawContent, ErrEmptyURL)
	}

	if raw.Body == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRawContent, ErrEmptyBody)
	}

	if !raw.Type.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidRawContent, ErrInvalidSourceType, raw.Type)
	}

	return nil
}

// ValidateRecord validates a ContentRecord before persistence.
//
// Validation rules:
//   - URL must not be empty
//   - Body must not be empty
//   - Type must be a known source type
//   - CreatedAt must not be in the future
//
// NOT validated (enrichment may legitimately fail):
//   - Summary, Keywords, Embedding
//   - Id (0 is valid before the storage layer assigns one)
func ValidateRecord(record *ContentRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if record.URL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyURL)
	}

	if record.Body == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyBody)
	}

	if !record.Type.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidRecord, ErrInvalidSourceType, record.Type)
	}

	if !record.CreatedAt.IsZero() && !IsValidTimestamp(record.CreatedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrInvalidTimestamp)
	}

	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
