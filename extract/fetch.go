package extract

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/poiesic/lore/core"
)

const (
	defaultTimeout     = 20 * time.Second
	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond

	// Some sites serve bot pages to unknown agents; a desktop UA keeps the
	// fetched HTML close to what a reader sees.
	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

	maxBodyBytes = 10 << 20 // 10 MiB cap on fetched payloads
)

// fetcher is the shared HTTP helper used by all extractors. Every request
// carries a bounded timeout and transient failures are retried with
// exponential backoff, so no extraction blocks indefinitely.
type fetcher struct {
	client      *http.Client
	maxAttempts int
	baseDelay   time.Duration
}

func newFetcher() *fetcher {
	return &fetcher{
		client:      &http.Client{Timeout: defaultTimeout},
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
	}
}

// get fetches a URL and returns the response body. On failure it returns a
// *FetchError with the attempt count and last status code filled in.
func (f *fetcher) get(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	var body []byte
	attempts := 0
	lastStatus := 0

	op := func() error {
		attempts++

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return &FetchError{URL: rawURL, Attempts: attempts, Err: err}
		}
		req.Header.Set("User-Agent", userAgent)
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Set(k, v)
			}
		}

		resp, err := f.client.Do(req)
		if err != nil {
			lastStatus = 0
			return &FetchError{URL: rawURL, Attempts: attempts, Err: err}
		}
		defer resp.Body.Close()

		lastStatus = resp.StatusCode
		if resp.StatusCode != http.StatusOK {
			return &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Attempts: attempts, Err: nil}
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Attempts: attempts, Err: err}
		}
		return nil
	}

	if err := core.RetryWithBackoff(ctx, op, f.maxAttempts, f.baseDelay); err != nil {
		if fe, ok := err.(*FetchError); ok {
			fe.Attempts = attempts
			fe.StatusCode = lastStatus
			return nil, fe
		}
		// Context cancellation surfaces as-is.
		return nil, &FetchError{URL: rawURL, StatusCode: lastStatus, Attempts: attempts, Err: err}
	}
	return body, nil
}
