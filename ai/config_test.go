package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.ChatHost)
	assert.Equal(t, "none", cfg.Token)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Equal(t, "qwen2.5:3b", cfg.ChatModel)
	assert.Equal(t, 3000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.BaseDelay)

	require.NoError(t, cfg.Validate())
}

func TestNewConfig_Options(t *testing.T) {
	cfg := NewConfig(
		WithHost("http://ollama.internal:11434"),
		WithToken("sk-test"),
		WithEmbeddingModel("text-embedding-3-small"),
		WithChatModel("gpt-4o-mini"),
		WithChunking(1000, 100),
		WithMaxAttempts(5),
		WithBaseDelay(time.Second),
	)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://ollama.internal:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://ollama.internal:11434/v1", cfg.ChatHost)
	assert.Equal(t, "sk-test", cfg.Token)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, "gpt-4o-mini", cfg.ChatModel)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 100, cfg.ChunkOverlap)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, time.Second, cfg.BaseDelay)
}

func TestConfig_SplitHosts(t *testing.T) {
	cfg := NewConfig(
		WithEmbeddingHost("http://localhost:11434"),
		WithChatHost("http://localhost:9100/"),
	)

	cfg.Normalize()
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:9100/v1", cfg.ChatHost)
}

func TestConfig_NormalizeIdempotent(t *testing.T) {
	cfg := NewConfig(WithHost("http://localhost:11434/v1"))
	cfg.Normalize()
	cfg.Normalize()
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
}

func TestConfig_ValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "empty embedding host", mutate: func(c *Config) { c.EmbeddingHost = "" }},
		{name: "empty chat host", mutate: func(c *Config) { c.ChatHost = "" }},
		{name: "empty embedding model", mutate: func(c *Config) { c.EmbeddingModel = "" }},
		{name: "empty chat model", mutate: func(c *Config) { c.ChatModel = "" }},
		{name: "zero chunk size", mutate: func(c *Config) { c.ChunkSize = 0 }},
		{name: "overlap not smaller than size", mutate: func(c *Config) { c.ChunkOverlap = c.ChunkSize }},
		{name: "negative overlap", mutate: func(c *Config) { c.ChunkOverlap = -1 }},
		{name: "zero attempts", mutate: func(c *Config) { c.MaxAttempts = 0 }},
		{name: "zero delay", mutate: func(c *Config) { c.BaseDelay = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
