package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/lore/core"
)

// GithubExtractor handles GitHub repository URLs. The repository README is
// the body text; stars, primary language and description land in metadata.
type GithubExtractor struct {
	apiBaseURL string
	token      string
	fetcher    *fetcher
	logger     *slog.Logger
}

// GithubOption configures a GithubExtractor.
type GithubOption func(*GithubExtractor)

// WithGithubAPIBaseURL overrides the GitHub API host, used in tests.
func WithGithubAPIBaseURL(base string) GithubOption {
	return func(g *GithubExtractor) {
		g.apiBaseURL = strings.TrimRight(base, "/")
	}
}

// WithGithubToken sets an API token for private repos and higher rate
// limits.
func WithGithubToken(token string) GithubOption {
	return func(g *GithubExtractor) {
		g.token = token
	}
}

// NewGithubExtractor creates a GitHub repository extractor.
func NewGithubExtractor(opts ...GithubOption) *GithubExtractor {
	g := &GithubExtractor{
		apiBaseURL: "https://api.github.com",
		fetcher:    newFetcher(),
		logger:     slog.Default().With("extractor", "github"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GithubExtractor) Name() string { return "github" }

// CanHandle claims github.com repository URLs, but not raw notebooks or
// PDFs checked into repos; those fall through to the web extractor's page
// rendering.
func (g *GithubExtractor) CanHandle(rawURL string) bool {
	owner, repo, err := splitRepoPath(rawURL)
	return err == nil && owner != "" && repo != ""
}

type repoInfo struct {
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Stars       int    `json:"stargazers_count"`
	Private     bool   `json:"private"`
	Owner       struct {
		Login string `json:"login"`
	} `json:"owner"`
}

func (g *GithubExtractor) Extract(ctx context.Context, rawURL string) (*core.RawContent, error) {
	owner, repo, err := splitRepoPath(rawURL)
	if err != nil {
		return nil, err
	}

	header := http.Header{"Accept": []string{"application/vnd.github+json"}}
	if g.token != "" {
		header.Set("Authorization", "Bearer "+g.token)
	}

	infoURL := fmt.Sprintf("%s/repos/%s/%s", g.apiBaseURL, owner, repo)
	infoBody, err := g.fetcher.get(ctx, infoURL, header)
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) && fe.StatusCode == http.StatusNotFound {
			// Private or missing repo: not a fetch problem, the payload is
			// simply not available to us.
			return nil, &ParseError{URL: rawURL, Err: fmt.Errorf("repository %s/%s not accessible", owner, repo)}
		}
		return nil, err
	}

	var info repoInfo
	if err := json.Unmarshal(infoBody, &info); err != nil {
		return nil, &ParseError{URL: rawURL, Err: err}
	}

	readmeHeader := header.Clone()
	readmeHeader.Set("Accept", "application/vnd.github.raw+json")
	readmeURL := infoURL + "/readme"
	readme, err := g.fetcher.get(ctx, readmeURL, readmeHeader)
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) && fe.StatusCode == http.StatusNotFound {
			return nil, &ParseError{URL: rawURL, Err: fmt.Errorf("repository %s/%s has no README", owner, repo)}
		}
		return nil, err
	}

	body := cleanText(string(readme))
	if body == "" {
		return nil, &ParseError{URL: rawURL, Err: fmt.Errorf("repository README is empty")}
	}

	metadata := map[string]string{
		"repo":  owner + "/" + repo,
		"stars": strconv.Itoa(info.Stars),
	}
	if info.Language != "" {
		metadata["repo_language"] = info.Language
	}
	if info.Description != "" {
		metadata["description"] = info.Description
	}
	if info.Owner.Login != "" {
		metadata["author"] = info.Owner.Login
	}

	title := info.FullName
	if title == "" {
		title = owner + "/" + repo
	}

	return &core.RawContent{
		SourceURL: rawURL,
		Type:      core.SourceGithub,
		Title:     title,
		Body:      body,
		FetchedAt: time.Now().UTC(),
		Metadata:  metadata,
	}, nil
}

// splitRepoPath pulls owner and repository out of a github.com URL.
func splitRepoPath(rawURL string) (owner, repo string, err error) {
	cleaned, err := CleanURL(rawURL)
	if err != nil {
		return "", "", err
	}
	parsed, err := url.Parse(cleaned)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	if host != "github.com" {
		return "", "", fmt.Errorf("%w: %s", ErrNotApplicable, rawURL)
	}

	lower := strings.ToLower(parsed.Path)
	if strings.HasSuffix(lower, ".ipynb") || strings.HasSuffix(lower, ".pdf") {
		return "", "", fmt.Errorf("%w: %s", ErrNotApplicable, rawURL)
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %s", ErrNotApplicable, rawURL)
	}

	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}
