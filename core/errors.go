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

import "errors"

// Domain validation errors
var (
	// ErrInvalidRawContent indicates extracted content failed validation.
	ErrInvalidRawContent = errors.New("invalid raw content")

	// ErrInvalidRecord indicates a ContentRecord failed validation.
	ErrInvalidRecord = errors.New("invalid content record")

	// ErrEmptyBody indicates the Body field is empty. An extraction that
	// produces no body text is considered failed.
	ErrEmptyBody = errors.New("body text cannot be empty")

	// ErrEmptyURL indicates the source URL is missing.
	ErrEmptyURL = errors.New("source url cannot be empty")

	// ErrInvalidSourceType indicates an unknown SourceType value.
	ErrInvalidSourceType = errors.New("invalid source type")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrInvalidMaxAttempts indicates a retry policy with a non-positive
	// attempt budget.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")
)
