// Package extract provides source-specific content extractors and the
// registry that routes URLs to them.
//
// Each extractor implements the Extractor interface: it claims URLs via
// CanHandle and produces a normalized core.RawContent via Extract. Routing
// is first-match over the registration order, with the generic web
// extractor registered last as the fallback.
//
// Extractors perform network reads only; they never write. Transient fetch
// failures (timeouts, 429, 5xx) are retried with bounded exponential
// backoff, and the resulting *FetchError records the attempt count and the
// last HTTP status seen. Payloads that cannot be reduced to text surface as
// *ParseError without retry.
package extract
