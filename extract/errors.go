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


package extract

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotApplicable signals that an extractor declines a URL. It is a
	// routing signal, not a failure; the registry tries the next variant.
	ErrNotApplicable = errors.New("extractor not applicable to url")

	// ErrInvalidURL indicates a URL that cannot be parsed at all.
	ErrInvalidURL = errors.New("invalid url")
)

// FetchError reports a network or HTTP-level failure. It carries retry
// metadata: how many attempts were made and the last status code seen
// (0 when the request never reached the server).
type FetchError struct {
	URL        string
	StatusCode int
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: status %d after %d attempt(s)", e.URL, e.StatusCode, e.Attempts)
	}
	return fmt.Sprintf("fetch %s: %v after %d attempt(s)", e.URL, e.Err, e.Attempts)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsTransient reports whether the failure is worth retrying. Network errors
// without a status, rate limits and 5xx responses are transient; 4xx
// responses are permanent.
func (e *FetchError) IsTransient() bool {
	if e.StatusCode == 0 {
		return true // network error or timeout
	}
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return e.StatusCode >= 500
}

// ParseError reports that a fetched payload could not be reduced to text,
// e.g. malformed HTML, a repository without a README, or a video without
// captions. Parse failures are never retried.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
