package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "lowercase host",
			url:  "https://Example.COM/Path",
			want: "https://example.com/Path",
		},
		{
			name: "strip fragment",
			url:  "https://example.com/post#section-2",
			want: "https://example.com/post",
		},
		{
			name: "strip utm params",
			url:  "https://example.com/post?utm_source=x&utm_medium=social&id=7",
			want: "https://example.com/post?id=7",
		},
		{
			name: "strip click ids",
			url:  "https://example.com/post?fbclid=abc&gclid=def",
			want: "https://example.com/post",
		},
		{
			name: "trailing slash",
			url:  "https://example.com/post/",
			want: "https://example.com/post",
		},
		{
			name: "default https port",
			url:  "https://example.com:443/post",
			want: "https://example.com/post",
		},
		{
			name: "default http port",
			url:  "http://example.com:80/post",
			want: "http://example.com/post",
		},
		{
			name: "non-default port kept",
			url:  "https://example.com:8443/post",
			want: "https://example.com:8443/post",
		},
		{
			name: "real params kept",
			url:  "https://arxiv.org/abs/1706.03762?context=cs",
			want: "https://arxiv.org/abs/1706.03762?context=cs",
		},
		{
			name: "unparseable passes through",
			url:  "not a url",
			want: "not a url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeURL(tt.url))
		})
	}
}

func TestNormalizeURL_EquivalentForms(t *testing.T) {
	variants := []string{
		"https://example.com/post",
		"https://EXAMPLE.com/post/",
		"https://example.com/post?utm_campaign=launch",
		"https://example.com/post#comments",
		"https://example.com:443/post",
	}

	canonical := NormalizeURL(variants[0])
	for _, v := range variants[1:] {
		assert.Equal(t, canonical, NormalizeURL(v), "variant %q", v)
	}
}
