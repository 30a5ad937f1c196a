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
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/poiesic/lore/ai"
	"github.com/poiesic/lore/core"
)

// Summarizer implements ai.Summarizer using OpenAI-compatible chat APIs.
// Documents longer than the chunk size are summarized map-reduce style:
// each chunk is summarized on its own, then the joined chunk summaries are
// summarized once more.
type Summarizer struct {
	client      llms.Model
	model       string
	splitter    textsplitter.RecursiveCharacter
	chunkSize   int
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

// newSummarizer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newSummarizer(config *ai.Config, client llms.Model) *Summarizer {
	return &Summarizer{
		client:      client,
		model:       config.ChatModel,
		splitter:    newSplitter(config.ChunkSize, config.ChunkOverlap),
		chunkSize:   config.ChunkSize,
		maxAttempts: config.MaxAttempts,
		baseDelay:   config.BaseDelay,
		logger:      slog.Default().With("component", "openai-summarizer"),
	}
}

// NewSummarizer creates a summarizer using the provided configuration.
//
// Returns ai.Summarizer interface to enforce abstraction.
func NewSummarizer(config *ai.Config) (ai.Summarizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client, err := newChatClient(config)
	if err != nil {
		return nil, err
	}
	return newSummarizer(config, client), nil
}

// Summarize produces a short prose summary of the text.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	chunks, err := splitForModel(s.splitter, text, s.chunkSize)
	if err != nil {
		return "", wrapErr("summarize", s.model, err)
	}

	if len(chunks) == 1 {
		return s.complete(ctx, summaryPrompt, chunks[0])
	}

	s.logger.Debug("map-reduce summary", "chunks", len(chunks), "length", len(text))

	partials := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		partial, err := s.complete(ctx, summaryPrompt, chunk)
		if err != nil {
			return "", err
		}
		partials = append(partials, partial)
	}

	return s.complete(ctx, reduceSummaryPrompt, strings.Join(partials, "\n\n"))
}

// complete runs one chat completion with bounded retries on transient
// failures.
func (s *Summarizer) complete(ctx context.Context, system, user string) (string, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(system)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(user)},
		},
	}

	var summary string
	err := core.RetryWithBackoff(ctx, func() error {
		response, err := s.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
		if err != nil {
			return wrapErr("summarize", s.model, err)
		}
		if len(response.Choices) < 1 {
			return wrapErr("summarize", s.model, errors.New("empty completion"))
		}
		summary = strings.TrimSpace(response.Choices[0].Content)
		return nil
	}, s.maxAttempts, s.baseDelay)
	if err != nil {
		s.logger.Error("summary generation failed", "err", err)
		return "", err
	}

	return summary, nil
}
