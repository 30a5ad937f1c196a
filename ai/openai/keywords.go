// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/poiesic/lore/ai"
	"github.com/poiesic/lore/core"
)

// maxKeywords caps the merged keyword list per document.
const maxKeywords = 12

// KeywordExtractor implements ai.KeywordExtractor using OpenAI-compatible
// chat APIs in JSON mode. Long documents are chunked; per-chunk keywords
// are merged preserving first-seen order.
type KeywordExtractor struct {
	client      llms.Model
	model       string
	splitter    textsplitter.RecursiveCharacter
	chunkSize   int
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

// keywordResponse is the wrapper structure for the LLM's JSON response.
type keywordResponse struct {
	Keywords []string `json:"keywords"`
}

// newKeywordExtractor is an internal constructor that returns the concrete
// type. Used by Provider to manage the instance.
func newKeywordExtractor(config *ai.Config, client llms.Model) *KeywordExtractor {
	return &KeywordExtractor{
		client:      client,
		model:       config.ChatModel,
		splitter:    newSplitter(config.ChunkSize, config.ChunkOverlap),
		chunkSize:   config.ChunkSize,
		maxAttempts: config.MaxAttempts,
		baseDelay:   config.BaseDelay,
		logger:      slog.Default().With("component", "openai-keywords"),
	}
}

// NewKeywordExtractor creates a keyword extractor using the provided
// configuration.
//
// Returns ai.KeywordExtractor interface to enforce abstraction.
func NewKeywordExtractor(config *ai.Config) (ai.KeywordExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client, err := newChatClient(config)
	if err != nil {
		return nil, err
	}
	return newKeywordExtractor(config, client), nil
}

// Keywords extracts topical keywords from text, most relevant first.
func (e *KeywordExtractor) Keywords(ctx context.Context, text string) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{}, nil
	}

	chunks, err := splitForModel(e.splitter, text, e.chunkSize)
	if err != nil {
		return nil, wrapErr("keywords", e.model, err)
	}

	perChunk := make([][]string, 0, len(chunks))
	for _, chunk := range chunks {
		keywords, err := e.extractChunk(ctx, chunk)
		if err != nil {
			return nil, err
		}
		perChunk = append(perChunk, keywords)
	}

	merged := mergeKeywords(perChunk, maxKeywords)
	e.logger.Debug("extracted keywords", "chunks", len(chunks), "keywords", len(merged))
	return merged, nil
}

func (e *KeywordExtractor) extractChunk(ctx context.Context, chunk string) ([]string, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(buildKeywordPrompt())},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(chunk)},
		},
	}

	// Malformed JSON from small local models is common enough that parse
	// failures get fresh completions, up to the attempt budget.
	var result keywordResponse
	var lastErr error
	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		var responseText string
		err := core.RetryWithBackoff(ctx, func() error {
			response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
			if err != nil {
				return wrapErr("keywords", e.model, err)
			}
			if len(response.Choices) < 1 {
				responseText = ""
				return nil
			}
			responseText = response.Choices[0].Content
			return nil
		}, e.maxAttempts, e.baseDelay)
		if err != nil {
			e.logger.Error("keyword generation failed", "err", err)
			return nil, err
		}

		if responseText == "" {
			return []string{}, nil
		}

		if parsed, err := parseKeywordResponse(responseText); err != nil {
			lastErr = err
			e.logger.Warn("error parsing keyword response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		} else {
			result = parsed
			lastErr = nil
			break
		}
	}
	if lastErr != nil {
		e.logger.Error("failed to parse keyword response after retries", "err", lastErr)
		return nil, wrapErr("keywords", e.model, lastErr)
	}

	return result.Keywords, nil
}

// parseKeywordResponse decodes a model response, tolerating markdown fences
// and common JSON defects.
func parseKeywordResponse(responseText string) (keywordResponse, error) {
	responseText = repairJSON(stripFences(responseText))

	var result keywordResponse
	if err := json.Unmarshal([]byte(responseText), &result); err != nil {
		return keywordResponse{}, err
	}
	return result, nil
}

// mergeKeywords flattens per-chunk keyword lists preserving first-seen
// order, lowercased and deduplicated, capped at limit.
func mergeKeywords(perChunk [][]string, limit int) []string {
	seen := make(map[string]bool)
	merged := make([]string, 0, limit)
	for _, keywords := range perChunk {
		for _, keyword := range keywords {
			keyword = strings.ToLower(strings.TrimSpace(keyword))
			if keyword == "" || seen[keyword] {
				continue
			}
			seen[keyword] = true
			merged = append(merged, keyword)
			if len(merged) == limit {
				return merged
			}
		}
	}
	return merged
}
