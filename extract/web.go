package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/pemistahl/lingua-go"

	"github.com/poiesic/lore/core"
)

// claimedBySpecificVariant reports whether a specific extractor variant
// owns this URL. The web extractor declines exactly those URLs so that
// routing never has two variants claiming the same URL, even when the
// registry order changes; everything else on those domains (e.g. a notebook
// file on github.com) still falls back to the web extractor.
func claimedBySpecificVariant(cleaned string) bool {
	if PaperID(cleaned) != "" {
		return true
	}
	if _, _, err := splitRepoPath(cleaned); err == nil {
		return true
	}
	if VideoID(cleaned) != "" {
		return true
	}
	return false
}

// FetchStrategy produces title, body text and metadata for a web page. The
// default strategy fetches HTML and distills it with readability; an
// external HTML-to-markdown conversion service can be swapped in
// transparently since the output contract is unchanged.
type FetchStrategy interface {
	FetchPage(ctx context.Context, pageURL string) (title, body string, metadata map[string]string, err error)
}

// WebExtractor handles general web pages: articles, blog posts,
// documentation. It is the registry fallback for every URL no specific
// variant claims.
type WebExtractor struct {
	strategy FetchStrategy
	detector lingua.LanguageDetector
	logger   *slog.Logger
}

// WebOption configures a WebExtractor.
type WebOption func(*WebExtractor)

// WithFetchStrategy replaces the default readability-based fetch step.
func WithFetchStrategy(s FetchStrategy) WebOption {
	return func(w *WebExtractor) {
		if s != nil {
			w.strategy = s
		}
	}
}

// WithLanguageDetection enables language tagging of extracted pages.
// The detector model load is not free, so it is opt-in.
func WithLanguageDetection() WebOption {
	return func(w *WebExtractor) {
		w.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(
				lingua.English, lingua.German, lingua.French, lingua.Spanish,
				lingua.Portuguese, lingua.Russian, lingua.Chinese, lingua.Japanese,
			).
			Build()
	}
}

// NewWebExtractor creates the generic web extractor.
func NewWebExtractor(opts ...WebOption) *WebExtractor {
	w := &WebExtractor{
		strategy: &readabilityStrategy{fetcher: newFetcher()},
		logger:   slog.Default().With("extractor", "web"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *WebExtractor) Name() string { return "web" }

// CanHandle claims any valid http(s) URL not owned by a specific variant.
func (w *WebExtractor) CanHandle(rawURL string) bool {
	cleaned, err := CleanURL(rawURL)
	if err != nil {
		return false
	}
	return !claimedBySpecificVariant(cleaned)
}

func (w *WebExtractor) Extract(ctx context.Context, rawURL string) (*core.RawContent, error) {
	cleaned, err := CleanURL(rawURL)
	if err != nil {
		return nil, err
	}
	if !w.CanHandle(cleaned) {
		return nil, fmt.Errorf("%w: %s", ErrNotApplicable, cleaned)
	}

	title, body, metadata, err := w.strategy.FetchPage(ctx, cleaned)
	if err != nil {
		return nil, err
	}

	body = cleanText(body)
	if body == "" {
		return nil, &ParseError{URL: cleaned, Err: fmt.Errorf("page yielded no text content")}
	}

	if metadata == nil {
		metadata = make(map[string]string)
	}
	if w.detector != nil {
		if lang, ok := w.detector.DetectLanguageOf(body); ok {
			metadata["language"] = strings.ToLower(lang.IsoCode639_1().String())
		}
	}

	return &core.RawContent{
		SourceURL: cleaned,
		Type:      core.SourceWeb,
		Title:     title,
		Body:      body,
		FetchedAt: time.Now().UTC(),
		Metadata:  metadata,
	}, nil
}

// readabilityStrategy is the default fetch step: GET the page and distill
// the main article content with go-readability, falling back to goquery
// paragraph scraping when readability comes up empty.
type readabilityStrategy struct {
	fetcher *fetcher
}

func (s *readabilityStrategy) FetchPage(ctx context.Context, pageURL string) (string, string, map[string]string, error) {
	html, err := s.fetcher.get(ctx, pageURL, nil)
	if err != nil {
		return "", "", nil, err
	}

	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	metadata := make(map[string]string)
	var title, body string

	parser := readability.NewParser()
	article, err := parser.Parse(bytes.NewReader(html), parsedURL)
	if err == nil {
		title = strings.TrimSpace(article.Title)
		body = article.TextContent
		if article.Byline != "" {
			metadata["author"] = article.Byline
		}
		if article.SiteName != "" {
			metadata["site_name"] = article.SiteName
		}
		if article.Excerpt != "" {
			metadata["excerpt"] = strings.TrimSpace(article.Excerpt)
		}
	}

	if strings.TrimSpace(body) == "" {
		title, body, err = scrapeFallback(html, title)
		if err != nil {
			return "", "", nil, &ParseError{URL: pageURL, Err: err}
		}
	}

	return title, body, metadata, nil
}

// scrapeFallback pulls visible text out of pages readability cannot
// distill (index pages, sparse documents).
func scrapeFallback(html []byte, title string) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", "", err
	}

	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	var b strings.Builder
	doc.Find("h1,h2,h3,p,li,pre").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			b.WriteString(text)
			b.WriteString("\n")
		}
	})

	return title, b.String(), nil
}

// MarkdownServiceStrategy fetches pages through an external HTML-to-markdown
// conversion service instead of parsing HTML locally. The service is
// expected to return the converted markdown as the response body for
// GET <endpoint>/<url>.
type MarkdownServiceStrategy struct {
	Endpoint string
	fetcher  *fetcher
}

// NewMarkdownServiceStrategy creates a strategy backed by a conversion
// service endpoint such as a local html2markdown proxy.
func NewMarkdownServiceStrategy(endpoint string) *MarkdownServiceStrategy {
	return &MarkdownServiceStrategy{
		Endpoint: strings.TrimRight(endpoint, "/"),
		fetcher:  newFetcher(),
	}
}

func (s *MarkdownServiceStrategy) FetchPage(ctx context.Context, pageURL string) (string, string, map[string]string, error) {
	converted, err := s.fetcher.get(ctx, s.Endpoint+"/"+url.QueryEscape(pageURL), nil)
	if err != nil {
		return "", "", nil, err
	}

	body := strings.TrimSpace(string(converted))
	if body == "" {
		return "", "", nil, &ParseError{URL: pageURL, Err: fmt.Errorf("conversion service returned empty body")}
	}

	// The first markdown heading doubles as the title when present.
	title := ""
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			title = strings.TrimSpace(strings.TrimPrefix(line, "# "))
			break
		}
	}

	return title, body, map[string]string{"format": "markdown"}, nil
}
