package extract

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/poiesic/lore/core"
)

// Extractor is the capability contract every source variant implements.
// Implementations must be idempotent and side-effect free beyond the
// network read: extracting the same URL twice with the network in the same
// state yields content-equivalent results.
type Extractor interface {
	// Name identifies the variant inside the registry.
	Name() string

	// CanHandle reports whether this variant claims the URL. Declining is
	// a routing decision, not an error.
	CanHandle(rawURL string) bool

	// Extract fetches and normalizes content from the URL.
	// Returns ErrNotApplicable when called with a URL the variant does not
	// claim, *FetchError on network/HTTP failure, *ParseError when the
	// payload cannot be reduced to text.
	Extract(ctx context.Context, rawURL string) (*core.RawContent, error)
}

// Registry routes URLs to extractors by first-match over registration
// order. The generic web extractor must be registered last: it claims every
// URL no specific variant does.
type Registry struct {
	extractors []Extractor
	logger     *slog.Logger
}

// NewRegistry creates a registry with the given extractors in priority
// order.
func NewRegistry(extractors ...Extractor) *Registry {
	return &Registry{
		extractors: extractors,
		logger:     slog.Default().With("component", "extract-registry"),
	}
}

// NewDefaultRegistry wires the standard variants: arxiv, github, youtube,
// with the web extractor as the fallback.
func NewDefaultRegistry(webOpts ...WebOption) *Registry {
	return NewRegistry(
		NewArxivExtractor(),
		NewGithubExtractor(),
		NewYoutubeExtractor(),
		NewWebExtractor(webOpts...),
	)
}

// ForURL returns the first extractor that claims the URL.
func (r *Registry) ForURL(rawURL string) (Extractor, error) {
	cleaned, err := CleanURL(rawURL)
	if err != nil {
		return nil, err
	}
	for _, e := range r.extractors {
		if e.CanHandle(cleaned) {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: no extractor for %s", ErrNotApplicable, cleaned)
}

// Extract routes the URL and runs the matching extractor.
func (r *Registry) Extract(ctx context.Context, rawURL string) (*core.RawContent, error) {
	cleaned, err := CleanURL(rawURL)
	if err != nil {
		return nil, err
	}

	extractor, err := r.ForURL(cleaned)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("routing url", "url", cleaned, "extractor", extractor.Name())
	raw, err := extractor.Extract(ctx, cleaned)
	if err != nil {
		return nil, err
	}

	if err := core.ValidateRawContent(raw); err != nil {
		return nil, &ParseError{URL: cleaned, Err: err}
	}
	return raw, nil
}

// CleanURL normalizes a URL for routing: adds a scheme when missing,
// validates host presence, and strips trailing slashes.
func CleanURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", ErrInvalidURL
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "https://" + rawURL
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}

	return strings.TrimRight(rawURL, "/"), nil
}

var whitespaceExpr = regexp.MustCompile(`[ \t]+`)

// cleanText normalizes extracted text: collapses runs of spaces, trims each
// line, and drops empty lines.
func cleanText(text string) string {
	if text == "" {
		return ""
	}

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(whitespaceExpr.ReplaceAllString(line, " "))
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
