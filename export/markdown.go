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


// Package export writes stored content records out as markdown notes.
//
// MarkdownWriter implements the ingestion side channel: one note per
// persisted record, with a YAML front matter block carrying the source
// URL, type, tags, keywords and creation time. Notes land in a flat
// directory and are named by record ID plus a slug of the title.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/lore/core"
	"gopkg.in/yaml.v3"
)

// noteFrontMatter is the YAML header of an exported note.
type noteFrontMatter struct {
	URL      string   `yaml:"url"`
	Type     string   `yaml:"type"`
	Author   string   `yaml:"author,omitempty"`
	Tags     []string `yaml:"tags,omitempty"`
	Keywords []string `yaml:"keywords,omitempty"`
	Created  string   `yaml:"created"`
}

// MarkdownWriter writes one markdown note per content record.
type MarkdownWriter struct {
	dir    string
	logger *slog.Logger
}

// NewMarkdownWriter creates a writer targeting the given notes directory,
// creating it when missing.
func NewMarkdownWriter(dir string) (*MarkdownWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create notes directory: %w", err)
	}

	return &MarkdownWriter{
		dir:    dir,
		logger: slog.Default().With("component", "export"),
	}, nil
}

// WriteNote renders the record as a markdown note and writes it to the
// notes directory. An existing note for the same record is overwritten.
func (w *MarkdownWriter) WriteNote(ctx context.Context, record *core.ContentRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	front := noteFrontMatter{
		URL:      record.URL,
		Type:     string(record.Type),
		Author:   record.Author,
		Tags:     record.Tags,
		Keywords: record.Keywords,
		Created:  record.CreatedAt.UTC().Format(time.RFC3339),
	}
	header, err := yaml.Marshal(front)
	if err != nil {
		return fmt.Errorf("failed to render front matter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	b.WriteString("# " + noteTitle(record) + "\n\n")
	if record.Summary != "" {
		b.WriteString(record.Summary + "\n\n")
	}
	b.WriteString(record.Body + "\n")

	path := filepath.Join(w.dir, noteFilename(record))
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write note: %w", err)
	}

	w.logger.Debug("wrote note", "path", path, "id", record.Id)
	return nil
}

func noteTitle(record *core.ContentRecord) string {
	if record.Title != "" {
		return record.Title
	}
	return record.URL
}

func noteFilename(record *core.ContentRecord) string {
	return fmt.Sprintf("%d-%s.md", record.Id, slugify(noteTitle(record)))
}

// slugify reduces a title to a filesystem-safe lowercase slug.
func slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > 60 {
		slug = strings.Trim(slug[:60], "-")
	}
	if slug == "" {
		slug = "untitled"
	}
	return slug
}
