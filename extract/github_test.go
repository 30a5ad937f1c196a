package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/lore/core"
)

func newGithubAPIStub(t *testing.T, readme string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/poiesic/lore", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"full_name": "poiesic/lore",
			"description": "Personal knowledge base",
			"language": "Go",
			"stargazers_count": 42,
			"owner": {"login": "poiesic"}
		}`)
	})
	mux.HandleFunc("/repos/poiesic/lore/readme", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/vnd.github.raw+json", r.Header.Get("Accept"))
		fmt.Fprint(w, readme)
	})
	return httptest.NewServer(mux)
}

func TestSplitRepoPath(t *testing.T) {
	tests := []struct {
		url     string
		owner   string
		repo    string
		applies bool
	}{
		{url: "https://github.com/poiesic/lore", owner: "poiesic", repo: "lore", applies: true},
		{url: "https://github.com/poiesic/lore/", owner: "poiesic", repo: "lore", applies: true},
		{url: "https://github.com/poiesic/lore.git", owner: "poiesic", repo: "lore", applies: true},
		{url: "https://github.com/poiesic/lore/tree/main/core", owner: "poiesic", repo: "lore", applies: true},
		{url: "https://github.com/poiesic", applies: false},
		{url: "https://github.com/poiesic/lore/blob/main/x.ipynb", applies: false},
		{url: "https://github.com/poiesic/lore/blob/main/paper.pdf", applies: false},
		{url: "https://gitlab.com/poiesic/lore", applies: false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			owner, repo, err := splitRepoPath(tt.url)
			if !tt.applies {
				require.ErrorIs(t, err, ErrNotApplicable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.owner, owner)
			assert.Equal(t, tt.repo, repo)
		})
	}
}

func TestGithubExtractor_Extract(t *testing.T) {
	srv := newGithubAPIStub(t, "# lore\n\nA knowledge base with vector search.\n\n\n## Install\n")
	defer srv.Close()

	extractor := NewGithubExtractor(WithGithubAPIBaseURL(srv.URL))
	raw, err := extractor.Extract(context.Background(), "https://github.com/poiesic/lore")
	require.NoError(t, err)

	assert.Equal(t, core.SourceGithub, raw.Type)
	assert.Equal(t, "poiesic/lore", raw.Title)
	assert.Contains(t, raw.Body, "vector search")
	assert.NotContains(t, raw.Body, "\n\n", "empty lines are stripped")
	assert.Equal(t, "42", raw.Metadata["stars"])
	assert.Equal(t, "Go", raw.Metadata["repo_language"])
	assert.Equal(t, "poiesic", raw.Metadata["author"])
}

func TestGithubExtractor_MissingRepoIsParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	extractor := NewGithubExtractor(WithGithubAPIBaseURL(srv.URL))
	_, err := extractor.Extract(context.Background(), "https://github.com/poiesic/lore")
	require.Error(t, err)
	_, ok := err.(*ParseError)
	assert.True(t, ok, "private or missing repos are parse errors, got %T", err)
}

func TestGithubExtractor_TokenHeader(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/poiesic/lore", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"full_name": "poiesic/lore"}`)
	})
	mux.HandleFunc("/repos/poiesic/lore/readme", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "readme body")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	extractor := NewGithubExtractor(WithGithubAPIBaseURL(srv.URL), WithGithubToken("tok123"))
	_, err := extractor.Extract(context.Background(), "https://github.com/poiesic/lore")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok123", gotAuth)
}
