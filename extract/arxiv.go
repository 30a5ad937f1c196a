package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/poiesic/lore/core"
)

var arxivIDExpr = regexp.MustCompile(`arxiv\.org/(?:abs|pdf)/(\d{4}\.\d{4,5})(?:v\d+)?`)

// ArxivExtractor handles arXiv paper URLs (abs and pdf forms). It fetches
// the abstract page and extracts title, abstract, authors and submission
// date.
type ArxivExtractor struct {
	baseURL string
	fetcher *fetcher
	logger  *slog.Logger
}

// ArxivOption configures an ArxivExtractor.
type ArxivOption func(*ArxivExtractor)

// WithArxivBaseURL overrides the arxiv.org host, used in tests.
func WithArxivBaseURL(base string) ArxivOption {
	return func(a *ArxivExtractor) {
		a.baseURL = strings.TrimRight(base, "/")
	}
}

// NewArxivExtractor creates an arXiv paper extractor.
func NewArxivExtractor(opts ...ArxivOption) *ArxivExtractor {
	a := &ArxivExtractor{
		baseURL: "https://arxiv.org",
		fetcher: newFetcher(),
		logger:  slog.Default().With("extractor", "arxiv"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *ArxivExtractor) Name() string { return "arxiv" }

func (a *ArxivExtractor) CanHandle(rawURL string) bool {
	return arxivIDExpr.MatchString(strings.ToLower(rawURL))
}

// PaperID extracts the arXiv identifier from a URL, or "" when the URL is
// not an arXiv paper link.
func PaperID(rawURL string) string {
	m := arxivIDExpr.FindStringSubmatch(strings.ToLower(rawURL))
	if m == nil {
		return ""
	}
	return m[1]
}

func (a *ArxivExtractor) Extract(ctx context.Context, rawURL string) (*core.RawContent, error) {
	paperID := PaperID(rawURL)
	if paperID == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotApplicable, rawURL)
	}

	pageURL := a.baseURL + "/abs/" + paperID
	html, err := a.fetcher.get(ctx, pageURL, nil)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, &ParseError{URL: pageURL, Err: err}
	}

	title := abstractPageField(doc, "h1.title", "Title:")
	abstract := abstractPageField(doc, "blockquote.abstract", "Abstract:")
	authors := abstractPageField(doc, "div.authors", "Authors:")
	dateline := strings.TrimSpace(doc.Find("div.dateline").First().Text())

	if title == "" || abstract == "" {
		return nil, &ParseError{URL: pageURL, Err: fmt.Errorf("abstract page missing title or abstract")}
	}

	metadata := map[string]string{
		"arxiv_id": paperID,
	}
	if authors != "" {
		metadata["author"] = authors
	}
	if dateline != "" {
		metadata["published"] = strings.TrimSpace(strings.Trim(dateline, "[]"))
	}

	body := fmt.Sprintf("Title: %s\nAuthors: %s\nAbstract: %s", title, authors, abstract)

	return &core.RawContent{
		SourceURL: rawURL,
		Type:      core.SourceArxiv,
		Title:     title,
		Body:      cleanText(body),
		FetchedAt: time.Now().UTC(),
		Metadata:  metadata,
	}, nil
}

// abstractPageField reads a labelled field from the abs page, dropping the
// "Title:"-style prefix arXiv renders inside the element.
func abstractPageField(doc *goquery.Document, selector, label string) string {
	text := strings.TrimSpace(doc.Find(selector).First().Text())
	text = strings.TrimSpace(strings.TrimPrefix(text, label))
	return whitespaceExpr.ReplaceAllString(strings.ReplaceAll(text, "\n", " "), " ")
}
