package core

import (
	"testing"
)

func TestHashContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "same content produces same hash",
			content: "test content",
		},
		{
			name:    "empty string",
			content: "",
		},
		{
			name:    "long content",
			content: "This is a much longer piece of content that should still hash consistently",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h1 := HashContent(tt.content)
			h2 := HashContent(tt.content)

			if h1 != h2 {
				t.Errorf("HashContent() produced different hashes for same content: %d vs %d", h1, h2)
			}
		})
	}
}

func TestHashContent_Different(t *testing.T) {
	h1 := HashContent("content1")
	h2 := HashContent("content2")

	if h1 == h2 {
		t.Errorf("HashContent() produced same hash for different content")
	}
}

func TestSourceType_Valid(t *testing.T) {
	valid := []SourceType{SourceWeb, SourceArxiv, SourceGithub, SourceYoutube}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("SourceType(%q).Valid() = false, want true", s)
		}
	}

	invalid := []SourceType{"", "rss", "WEB", "twitter"}
	for _, s := range invalid {
		if s.Valid() {
			t.Errorf("SourceType(%q).Valid() = true, want false", s)
		}
	}
}

func TestContentRecord_HasEmbedding(t *testing.T) {
	record := &ContentRecord{}
	if record.HasEmbedding() {
		t.Error("empty record should not report an embedding")
	}

	record.Embedding = []float32{0.1, 0.2}
	if record.HasEmbedding() {
		t.Error("embedding without a model tag is not usable")
	}

	record.EmbeddingModel = "test-embed"
	if !record.HasEmbedding() {
		t.Error("record with vector and model tag should report an embedding")
	}
}
