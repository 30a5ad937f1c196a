package ai

import "fmt"

// ProviderError wraps a failure from an AI service call with enough context
// to decide whether retrying makes sense.
type ProviderError struct {
	// Op names the operation that failed: "summarize", "keywords", "embed".
	Op string

	// Model is the model identifier the call was addressed to.
	Model string

	// Transient marks failures worth retrying: rate limits, timeouts,
	// server errors. Auth failures and malformed input are not transient.
	Transient bool

	// Err is the underlying error.
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("ai %s (model %s): %v", e.Op, e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether the failure is worth retrying.
func (e *ProviderError) IsTransient() bool {
	return e.Transient
}
