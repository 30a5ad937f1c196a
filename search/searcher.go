package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/lore/ai"
	"github.com/poiesic/lore/core"
	"github.com/poiesic/lore/storage"
)

// Mode selects the retrieval strategy.
type Mode string

const (
	// ModeKeyword ranks by weighted token matching over the record fields.
	ModeKeyword Mode = "keyword"

	// ModeSemantic ranks by embedding similarity to the query.
	ModeSemantic Mode = "semantic"

	// ModeHybrid unions both strategies and boosts records found by each.
	ModeHybrid Mode = "hybrid"
)

// DefaultMinSimilarity is the semantic threshold used when the caller
// leaves it unset. A threshold of 0 matches everything and is useless in
// practice.
const DefaultMinSimilarity = 0.60

// DefaultLimit caps results when the caller leaves the limit unset.
const DefaultLimit = 10

// Field weights for keyword scoring. A query token found in the title
// counts three times what the same token buried in the body does.
const (
	weightTitle    float32 = 3.0
	weightKeywords float32 = 2.5
	weightSummary  float32 = 2.0
	weightBody     float32 = 1.0
)

// hybridBoost is the score base for records both strategies agree on. It
// exceeds the highest score a single-strategy hit can reach (1.0 plus the
// verbatim bonus), so agreement always outranks any lone hit.
const hybridBoost float32 = 1.5

// verbatimBonus rewards records containing every query word.
const verbatimBonus float32 = 0.3

// Options controls a single search.
type Options struct {
	Mode          Mode           // retrieval strategy, ModeHybrid when empty
	Filter        storage.Filter // type/tag/date constraints on candidates
	Limit         int            // max results, DefaultLimit when zero
	MinSimilarity float32        // semantic threshold, DefaultMinSimilarity when zero
}

// Searcher retrieves content records by keyword, by embedding similarity,
// or both.
type Searcher struct {
	repository storage.ContentRepository
	provider   ai.Provider
	logger     *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(repository storage.ContentRepository, provider ai.Provider, opts ...Option) (*Searcher, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		repository: repository,
		provider:   provider,
		logger:     slog.Default().With("component", "search"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search retrieves records matching the query, ranked by relevance.
func (s *Searcher) Search(ctx context.Context, query string, opts Options) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, opts, nil)
}

// SearchWithMonitor retrieves records matching the query with monitoring.
// The monitor receives callbacks at each stage of the search process.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, opts Options, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	mode := opts.Mode
	if mode == "" {
		mode = ModeHybrid
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.MinSimilarity == 0 {
		opts.MinSimilarity = DefaultMinSimilarity
	}

	monitor.Start(query)

	var results []*core.SearchResult
	var err error
	switch mode {
	case ModeKeyword:
		results, err = s.keywordSearch(ctx, query, opts, monitor)
	case ModeSemantic:
		results, err = s.semanticSearch(ctx, query, opts, monitor)
	case ModeHybrid:
		results, err = s.hybridSearch(ctx, query, opts, monitor)
	default:
		return nil, ErrUnknownMode
	}
	if err != nil {
		return nil, err
	}

	sortResults(results)
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	monitor.Finish(results)

	return results, nil
}

// keywordSearch scores filter-matching records by weighted token hits.
func (s *Searcher) keywordSearch(ctx context.Context, query string, opts Options, monitor SearchMonitor) ([]*core.SearchResult, error) {
	tokens := tokenizeAndFilter(query)
	if len(tokens) == 0 {
		return []*core.SearchResult{}, nil
	}

	// The limit applies after scoring; cutting candidates early would
	// drop high-relevance records that merely sort late in the index.
	filter := opts.Filter
	filter.Limit = 0
	candidates, err := s.repository.Query(ctx, filter)
	if err != nil {
		s.logger.Error("error querying keyword candidates", "err", err)
		return nil, err
	}

	results := make([]*core.SearchResult, 0)
	ids := make([]core.ID, 0)
	for _, record := range candidates {
		relevance := keywordRelevance(record, tokens)
		if relevance <= 0 {
			continue
		}
		monitor.KeywordHit(record)
		ids = append(ids, record.Id)
		results = append(results, &core.SearchResult{Record: record, Score: relevance})
	}
	monitor.AfterKeywordSearch(ids)

	return results, nil
}

// semanticSearch embeds the query and ranks records by vector similarity.
func (s *Searcher) semanticSearch(ctx context.Context, query string, opts Options, monitor SearchMonitor) ([]*core.SearchResult, error) {
	embedding, err := s.provider.Embedder().EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	matches, err := s.repository.FindSimilar(ctx, embedding, s.provider.EmbeddingModel(), opts.MinSimilarity, opts.Limit)
	if err != nil {
		s.logger.Error("error querying for similar records", "err", err)
		return nil, err
	}

	results := make([]*core.SearchResult, 0, len(matches))
	for _, match := range matches {
		if !matchesFilter(match.Record, opts.Filter) {
			continue
		}
		monitor.SemanticHit(match.Record)
		results = append(results, match)
	}
	monitor.AfterSemanticSearch(results)

	return results, nil
}

// hybridSearch unions both strategies. Records found by both score
// hybridBoost plus the mean of their similarity and relevance, which puts
// them in a tier above records found by one strategy, which keep that
// strategy's score. Records containing every query word get a verbatim
// bonus on top.
func (s *Searcher) hybridSearch(ctx context.Context, query string, opts Options, monitor SearchMonitor) ([]*core.SearchResult, error) {
	semantic, err := s.semanticSearch(ctx, query, opts, monitor)
	if err != nil {
		return nil, err
	}
	keyword, err := s.keywordSearch(ctx, query, opts, monitor)
	if err != nil {
		return nil, err
	}

	semanticScores := make(map[core.ID]float32, len(semantic))
	for _, match := range semantic {
		semanticScores[match.Record.Id] = match.Score
	}
	keywordScores := make(map[core.ID]float32, len(keyword))
	for _, match := range keyword {
		keywordScores[match.Record.Id] = match.Score
	}

	byID := make(map[core.ID]*core.ContentRecord, len(semantic)+len(keyword))
	for _, match := range semantic {
		byID[match.Record.Id] = match.Record
	}
	for _, match := range keyword {
		byID[match.Record.Id] = match.Record
	}

	results := make([]*core.SearchResult, 0, len(byID))
	for id, record := range byID {
		similarity, inSemantic := semanticScores[id]
		relevance, inKeyword := keywordScores[id]

		var score float32
		switch {
		case inSemantic && inKeyword:
			score = hybridBoost + (similarity+relevance)/2
			monitor.HybridHit(record)
		case inSemantic:
			score = similarity
		default:
			score = relevance
		}

		if containsAllQueryWords(record.Title+" "+record.Body, query) {
			score += verbatimBonus
		}

		results = append(results, &core.SearchResult{Record: record, Score: score})
	}

	return results, nil
}

// keywordRelevance scores a record against query tokens, normalized to
// [0, 1]. Each token contributes the weight of every field it appears in.
func keywordRelevance(record *core.ContentRecord, tokens []string) float32 {
	title := tokenSet(tokenizeAndFilter(record.Title))
	summary := tokenSet(tokenizeAndFilter(record.Summary))
	body := tokenSet(tokenizeAndFilter(record.Body))
	keywords := make(map[string]bool, len(record.Keywords))
	for _, kw := range record.Keywords {
		for _, token := range tokenizeAndFilter(kw) {
			keywords[token] = true
		}
	}

	const maxPerToken = weightTitle + weightKeywords + weightSummary + weightBody

	var score float32
	for _, token := range tokens {
		if title[token] {
			score += weightTitle
		}
		if keywords[token] {
			score += weightKeywords
		}
		if summary[token] {
			score += weightSummary
		}
		if body[token] {
			score += weightBody
		}
	}

	return score / (float32(len(tokens)) * maxPerToken)
}

// sortResults orders by score descending, breaking ties by recency.
func sortResults(results []*core.SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Record.CreatedAt.After(results[j].Record.CreatedAt)
	})
}

// matchesFilter applies type, tag and date constraints to a record.
func matchesFilter(record *core.ContentRecord, filter storage.Filter) bool {
	if len(filter.Types) > 0 {
		found := false
		for _, t := range filter.Types {
			if record.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(filter.Tags) > 0 {
		found := false
		for _, want := range filter.Tags {
			for _, tag := range record.Tags {
				if tag == want {
					found = true
					break
				}
			}
		}
		if !found {
			return false
		}
	}

	if !filter.CreatedAfter.IsZero() && record.CreatedAt.Before(filter.CreatedAfter) {
		return false
	}
	if !filter.CreatedBefore.IsZero() && !record.CreatedAt.Before(filter.CreatedBefore) {
		return false
	}

	return true
}
