package openai

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/poiesic/lore/ai"
)

// transientMarkers are substrings of provider error messages that indicate
// a failure worth retrying. OpenAI-compatible servers differ in how they
// report these, so matching on message text is the practical option.
var transientMarkers = []string{
	"rate limit",
	"too many requests",
	"status code: 429",
	"status code: 500",
	"status code: 502",
	"status code: 503",
	"status code: 504",
	"timeout",
	"deadline exceeded",
	"connection refused",
	"connection reset",
	"temporarily unavailable",
	"overloaded",
}

// isTransient classifies a provider failure. Rate limits, timeouts and
// server errors are transient; auth failures and malformed requests are not.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// wrapErr wraps a provider failure with operation context and a retry
// classification.
func wrapErr(op, model string, err error) *ai.ProviderError {
	return &ai.ProviderError{Op: op, Model: model, Transient: isTransient(err), Err: err}
}
