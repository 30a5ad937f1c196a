package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeywordResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     []string
	}{
		{
			name:     "plain json",
			response: `{"keywords": ["go", "vector search"]}`,
			want:     []string{"go", "vector search"},
		},
		{
			name:     "markdown fenced",
			response: "```json\n{\"keywords\": [\"badgerdb\"]}\n```",
			want:     []string{"badgerdb"},
		},
		{
			name:     "missing opening quote on key",
			response: `{keywords": ["go"]}`,
			want:     []string{"go"},
		},
		{
			name:     "empty list",
			response: `{"keywords": []}`,
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseKeywordResponse(tt.response)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Keywords)
		})
	}
}

func TestParseKeywordResponse_Garbage(t *testing.T) {
	_, err := parseKeywordResponse("Sure! Here are the keywords you asked for:")
	assert.Error(t, err)
}

func TestMergeKeywords(t *testing.T) {
	merged := mergeKeywords([][]string{
		{"Go", "badgerdb", "go"},
		{"badgerdb", "lsm tree", " "},
		{"embeddings"},
	}, 3)

	assert.Equal(t, []string{"go", "badgerdb", "lsm tree"}, merged)
}

func TestMergeKeywords_Empty(t *testing.T) {
	assert.Empty(t, mergeKeywords(nil, 5))
	assert.Empty(t, mergeKeywords([][]string{{}}, 5))
}
