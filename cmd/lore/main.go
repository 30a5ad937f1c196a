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


package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/poiesic/lore"
	"github.com/poiesic/lore/ai"
	"github.com/poiesic/lore/core"
	"github.com/poiesic/lore/export"
	"github.com/poiesic/lore/extract"
	"github.com/poiesic/lore/ingest"
	"github.com/poiesic/lore/reembed"
	"github.com/poiesic/lore/search"
	"github.com/poiesic/lore/storage"
)

// fileConfig is the optional YAML configuration file. Every field has a
// matching flag; explicitly set flags win over file values.
type fileConfig struct {
	DB             string `yaml:"db"`
	Host           string `yaml:"host"`
	Token          string `yaml:"token"`
	EmbeddingModel string `yaml:"embedding_model"`
	ChatModel      string `yaml:"chat_model"`
	Notes          string `yaml:"notes"`
	DetectLanguage bool   `yaml:"detect_language"`
}

func main() {
	// Load .env before flag parsing so EnvVars-backed flags see the values.
	// A missing .env is not an error.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "lore",
		Usage: "Content knowledge base: ingest, enrich and search web content",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"LORE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				Value:   "./lore_db",
				EnvVars: []string{"LORE_DB"},
			},
			&cli.StringFlag{
				Name:    "host",
				Usage:   "OpenAI-compatible service host URL for chat and embeddings",
				EnvVars: []string{"LORE_HOST"},
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "API token for the AI service",
				EnvVars: []string{"LORE_TOKEN"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				EnvVars: []string{"LORE_EMBEDDING_MODEL"},
			},
			&cli.StringFlag{
				Name:    "chat-model",
				Usage:   "Chat model name for summaries and keywords",
				EnvVars: []string{"LORE_CHAT_MODEL"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest a single URL into the knowledge base",
				ArgsUsage: "<url>",
				Action:    ingestCommand,
				Flags: append(ingestFlags(),
					&cli.StringFlag{
						Name:  "salvage-dir",
						Usage: "Directory for partial-record JSON files when persistence fails",
						Value: ".",
					},
				),
			},
			{
				Name:      "batch",
				Usage:     "Ingest multiple URLs from arguments or a file",
				ArgsUsage: "[url ...]",
				Action:    batchCommand,
				Flags: append(ingestFlags(),
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "File with one URL per line ('#' starts a comment)",
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Search stored records by keyword, embedding similarity, or both",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "mode",
						Aliases: []string{"m"},
						Usage:   "Search mode (keyword, semantic, hybrid)",
						Value:   string(search.ModeHybrid),
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   search.DefaultLimit,
					},
					&cli.Float64Flag{
						Name:  "min-similarity",
						Usage: "Minimum cosine similarity for semantic matches",
						Value: search.DefaultMinSimilarity,
					},
					&cli.StringSliceFlag{
						Name:    "type",
						Aliases: []string{"t"},
						Usage:   "Restrict to source types (web, arxiv, github, youtube)",
					},
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "Restrict to records carrying any of the given tags",
					},
					&cli.StringFlag{
						Name:  "after",
						Usage: "Only records created on or after this date (2006-01-02 or RFC3339)",
					},
					&cli.StringFlag{
						Name:  "before",
						Usage: "Only records created before this date (2006-01-02 or RFC3339)",
					},
				},
			},
			{
				Name:      "related",
				Usage:     "Find records related to a stored record",
				ArgsUsage: "<record-id>",
				Action:    relatedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   5,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all content records with new embeddings",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// ingestFlags returns the flags shared by the ingest and batch commands.
func ingestFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "mode",
			Usage: "Duplicate handling (skip, update, insert)",
			Value: string(ingest.DuplicateSkip),
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Extract and enrich without writing to the database",
		},
		&cli.StringSliceFlag{
			Name:  "tag",
			Usage: "Tags applied to the stored record",
		},
		&cli.StringFlag{
			Name:  "timestamp",
			Usage: "Record creation time override for backfills (2006-01-02 or RFC3339)",
		},
		&cli.StringFlag{
			Name:  "notes",
			Usage: "Directory for markdown notes of persisted records",
		},
		&cli.BoolFlag{
			Name:  "detect-language",
			Usage: "Tag web pages with their detected language",
		},
	}
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("ingest requires exactly one URL argument")
	}

	db, cfg, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	opts, pipelineOpts, err := ingestOptions(c, cfg)
	if err != nil {
		return err
	}

	pipeline, err := db.NewIngestionPipeline(pipelineOpts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	result, err := pipeline.Ingest(context.Background(), c.Args().First(), opts)
	if result != nil {
		printResult(result)
		if salvageErr := salvagePartial(c.String("salvage-dir"), result); salvageErr != nil {
			fmt.Fprintf(os.Stderr, "failed to salvage partial record: %v\n", salvageErr)
		}
	}
	return err
}

func batchCommand(c *cli.Context) error {
	urls := c.Args().Slice()
	if path := c.String("file"); path != "" {
		fromFile, err := readURLFile(path)
		if err != nil {
			return err
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		return fmt.Errorf("batch requires URL arguments or --file")
	}

	db, cfg, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	opts, pipelineOpts, err := ingestOptions(c, cfg)
	if err != nil {
		return err
	}

	pipeline, err := db.NewIngestionPipeline(pipelineOpts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	results, err := pipeline.IngestBatch(context.Background(), urls, opts)
	if err != nil {
		return fmt.Errorf("batch ingestion failed: %w", err)
	}

	var persisted, duplicates, failed int
	for _, result := range results {
		printResult(result)
		switch result.Status {
		case ingest.StatusPersisted, ingest.StatusDryRun:
			persisted++
		case ingest.StatusDuplicate:
			duplicates++
		default:
			failed++
		}
	}
	fmt.Printf("Done: %d ingested, %d duplicates, %d failed\n", persisted, duplicates, failed)

	if failed > 0 {
		return fmt.Errorf("%d of %d URLs failed", failed, len(results))
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("search requires a query argument")
	}
	query := strings.Join(c.Args().Slice(), " ")

	filter, err := searchFilter(c)
	if err != nil {
		return err
	}

	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	results, err := searcher.Search(context.Background(), query, search.Options{
		Mode:          search.Mode(c.String("mode")),
		Filter:        filter,
		Limit:         c.Int("limit"),
		MinSimilarity: float32(c.Float64("min-similarity")),
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	printHits(results)
	return nil
}

func relatedCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("related requires a record ID argument")
	}
	id, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid record ID %q: %w", c.Args().First(), err)
	}

	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	results, err := searcher.Related(context.Background(), core.ID(id), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("related lookup failed: %w", err)
	}

	printHits(results)
	return nil
}

func reembedCommand(c *cli.Context) error {
	cfg, err := loadFileConfig(c.String("config"))
	if err != nil {
		return err
	}

	if stringOr(c, "embedding-model", cfg.EmbeddingModel) == "" {
		return fmt.Errorf("embedding-model is required")
	}

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintf(os.Stderr, "Database: %s\n", stringOr(c, "db", cfg.DB))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", stringOr(c, "embedding-model", cfg.EmbeddingModel))
	fmt.Fprintln(os.Stderr)

	reembedder := db.NewReembedder(reembedConfig, os.Stderr)
	if err := reembedder.Run(context.Background()); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

// openDatabase builds the AI config from flags, config file and defaults,
// then opens the database. The file config is returned for callers that
// need values beyond the database itself.
func openDatabase(c *cli.Context) (*lore.Database, *fileConfig, error) {
	cfg, err := loadFileConfig(c.String("config"))
	if err != nil {
		return nil, nil, err
	}

	var aiOpts []ai.ConfigOption
	if host := stringOr(c, "host", cfg.Host); host != "" {
		aiOpts = append(aiOpts, ai.WithHost(host))
	}
	if token := stringOr(c, "token", cfg.Token); token != "" {
		aiOpts = append(aiOpts, ai.WithToken(token))
	}
	if model := stringOr(c, "embedding-model", cfg.EmbeddingModel); model != "" {
		aiOpts = append(aiOpts, ai.WithEmbeddingModel(model))
	}
	if model := stringOr(c, "chat-model", cfg.ChatModel); model != "" {
		aiOpts = append(aiOpts, ai.WithChatModel(model))
	}
	aiConfig := ai.NewConfig(aiOpts...)
	if err := aiConfig.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	dbPath := stringOr(c, "db", cfg.DB)
	db, err := lore.NewDatabase(dbPath, lore.WithAIConfig(aiConfig))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, cfg, nil
}

// ingestOptions translates ingest/batch flags into pipeline and per-run
// options.
func ingestOptions(c *cli.Context, cfg *fileConfig) (*ingest.Options, []ingest.Option, error) {
	mode := ingest.DuplicateMode(c.String("mode"))
	switch mode {
	case ingest.DuplicateSkip, ingest.DuplicateUpdate, ingest.DuplicateInsert:
	default:
		return nil, nil, fmt.Errorf("invalid mode %q: must be one of skip, update, insert", c.String("mode"))
	}

	opts := &ingest.Options{
		Mode:    mode,
		Persist: !c.Bool("dry-run"),
		Tags:    c.StringSlice("tag"),
	}
	if ts := c.String("timestamp"); ts != "" {
		parsed, err := parseDate(ts)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid timestamp: %w", err)
		}
		opts.Timestamp = parsed
	}

	var pipelineOpts []ingest.Option
	if c.Bool("detect-language") || cfg.DetectLanguage {
		registry := extract.NewDefaultRegistry(extract.WithLanguageDetection())
		pipelineOpts = append(pipelineOpts, ingest.WithRegistry(registry))
	}
	if dir := stringOr(c, "notes", cfg.Notes); dir != "" {
		writer, err := export.NewMarkdownWriter(dir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create notes directory: %w", err)
		}
		pipelineOpts = append(pipelineOpts, ingest.WithNoteWriter(writer))
	}
	return opts, pipelineOpts, nil
}

func searchFilter(c *cli.Context) (storage.Filter, error) {
	var filter storage.Filter
	for _, raw := range c.StringSlice("type") {
		st := core.SourceType(strings.ToLower(raw))
		if !st.Valid() {
			return filter, fmt.Errorf("invalid source type %q: must be one of web, arxiv, github, youtube", raw)
		}
		filter.Types = append(filter.Types, st)
	}
	filter.Tags = c.StringSlice("tag")
	if after := c.String("after"); after != "" {
		parsed, err := parseDate(after)
		if err != nil {
			return filter, fmt.Errorf("invalid after date: %w", err)
		}
		filter.CreatedAfter = parsed
	}
	if before := c.String("before"); before != "" {
		parsed, err := parseDate(before)
		if err != nil {
			return filter, fmt.Errorf("invalid before date: %w", err)
		}
		filter.CreatedBefore = parsed
	}
	return filter, nil
}

func loadFileConfig(path string) (*fileConfig, error) {
	cfg := &fileConfig{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// stringOr returns the flag value when the user set it explicitly,
// otherwise the config file value, otherwise the flag default.
func stringOr(c *cli.Context, name, fromFile string) string {
	if c.IsSet(name) {
		return c.String(name)
	}
	if fromFile != "" {
		return fromFile
	}
	return c.String(name)
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func readURLFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read URL file: %w", err)
	}
	var urls []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, nil
}

func printResult(result *ingest.Result) {
	switch result.Status {
	case ingest.StatusPersisted:
		fmt.Printf("%s: persisted (%d)\n", result.Run.URL, result.RecordID)
	case ingest.StatusDuplicate:
		fmt.Printf("%s: duplicate of (%d)\n", result.Run.URL, result.RecordID)
	case ingest.StatusDryRun:
		fmt.Printf("%s: dry run, not persisted\n", result.Run.URL)
	default:
		fmt.Printf("%s: %s\n", result.Run.URL, result.Status)
	}
	for _, stageErr := range result.Run.Errors {
		fmt.Fprintf(os.Stderr, "  %s: %v\n", result.Run.URL, stageErr)
	}
}

func printHits(results []*core.SearchResult) {
	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Printf("%d: '%s' (%d)[%0.3f] %s\n", i, hit.Record.Title, hit.Record.Id, hit.Score, hit.Record.URL)
	}
}

// salvagePartial writes the enriched-but-unpersisted record to a JSON file
// so a failed run does not discard completed LLM work.
func salvagePartial(dir string, result *ingest.Result) error {
	if result.Status != ingest.StatusPersistFailed || result.Run == nil || result.Run.Partial == nil {
		return nil
	}
	data, err := json.MarshalIndent(result.Run.Partial, "", "  ")
	if err != nil {
		return err
	}
	name := fmt.Sprintf("lore-partial-%d.json", time.Now().Unix())
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "partial record saved to %s\n", path)
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
