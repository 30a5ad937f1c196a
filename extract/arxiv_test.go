package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/lore/core"
)

const absPageHTML = `<!DOCTYPE html>
<html>
<body>
<h1 class="title"><span class="descriptor">Title:</span>Attention Is All You Need</h1>
<div class="authors"><span class="descriptor">Authors:</span>Ashish Vaswani, Noam Shazeer</div>
<div class="dateline">[Submitted on 12 Jun 2017]</div>
<blockquote class="abstract"><span class="descriptor">Abstract:</span>
The dominant sequence transduction models are based on complex recurrent or
convolutional neural networks.
</blockquote>
</body>
</html>`

func TestPaperID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{url: "https://arxiv.org/abs/1706.03762", want: "1706.03762"},
		{url: "https://arxiv.org/pdf/1706.03762", want: "1706.03762"},
		{url: "https://arxiv.org/abs/2401.12345v3", want: "2401.12345"},
		{url: "https://ArXiv.org/abs/1706.03762", want: "1706.03762"},
		{url: "https://arxiv.org/list/cs.AI/recent", want: ""},
		{url: "https://example.com/abs/1706.03762", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PaperID(tt.url), tt.url)
	}
}

func TestArxivExtractor_Extract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/abs/1706.03762", r.URL.Path)
		w.Write([]byte(absPageHTML))
	}))
	defer srv.Close()

	extractor := NewArxivExtractor(WithArxivBaseURL(srv.URL))
	raw, err := extractor.Extract(context.Background(), "https://arxiv.org/abs/1706.03762")
	require.NoError(t, err)

	assert.Equal(t, core.SourceArxiv, raw.Type)
	assert.Equal(t, "Attention Is All You Need", raw.Title)
	assert.Contains(t, raw.Body, "sequence transduction")
	assert.Contains(t, raw.Body, "Vaswani")
	assert.Equal(t, "1706.03762", raw.Metadata["arxiv_id"])
	assert.Equal(t, "Ashish Vaswani, Noam Shazeer", raw.Metadata["author"])
	assert.Equal(t, "Submitted on 12 Jun 2017", raw.Metadata["published"])
}

func TestArxivExtractor_DeclinesForeignURL(t *testing.T) {
	extractor := NewArxivExtractor()
	_, err := extractor.Extract(context.Background(), "https://example.com/paper")
	require.ErrorIs(t, err, ErrNotApplicable)
}

func TestArxivExtractor_MissingAbstractIsParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>rate limited page</p></body></html>"))
	}))
	defer srv.Close()

	extractor := NewArxivExtractor(WithArxivBaseURL(srv.URL))
	_, err := extractor.Extract(context.Background(), "https://arxiv.org/abs/1706.03762")
	require.Error(t, err)
	_, ok := err.(*ParseError)
	assert.True(t, ok, "expected *ParseError, got %T", err)
}
