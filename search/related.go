package search

import (
	"context"
	"strings"

	"github.com/poiesic/lore/core"
)

// relatedMinSimilarity is the threshold for embedding-based related
// content. It is looser than the query threshold: the reference is a whole
// document rather than a short query.
const relatedMinSimilarity = 0.30

// Related finds records similar to the given record. When the record
// carries an embedding, its own vector drives a similarity search. Records
// without an embedding fall back to keyword and tag overlap, so enrichment
// failures degrade the ranking instead of disabling it.
func (s *Searcher) Related(ctx context.Context, id core.ID, limit int) ([]*core.SearchResult, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	record, err := s.repository.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if record.HasEmbedding() {
		return s.relatedByEmbedding(ctx, record, limit)
	}
	return s.relatedByOverlap(ctx, record, limit)
}

func (s *Searcher) relatedByEmbedding(ctx context.Context, record *core.ContentRecord, limit int) ([]*core.SearchResult, error) {
	// Fetch one extra so the record itself can be dropped from its own
	// results.
	matches, err := s.repository.FindSimilar(ctx, record.Embedding, record.EmbeddingModel, relatedMinSimilarity, limit+1)
	if err != nil {
		s.logger.Error("error finding similar records", "id", record.Id, "err", err)
		return nil, err
	}

	results := make([]*core.SearchResult, 0, len(matches))
	for _, match := range matches {
		if match.Record.Id == record.Id {
			continue
		}
		results = append(results, match)
	}
	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

func (s *Searcher) relatedByOverlap(ctx context.Context, record *core.ContentRecord, limit int) ([]*core.SearchResult, error) {
	keywords := make(map[string]bool, len(record.Keywords))
	for _, kw := range record.Keywords {
		keywords[strings.ToLower(kw)] = true
	}
	tags := make(map[string]bool, len(record.Tags))
	for _, tag := range record.Tags {
		tags[tag] = true
	}
	if len(keywords) == 0 && len(tags) == 0 {
		return []*core.SearchResult{}, nil
	}

	results := make([]*core.SearchResult, 0)
	err := s.repository.ForEach(ctx, func(candidate *core.ContentRecord) error {
		if candidate.Id == record.Id {
			return nil
		}

		var score float32
		for _, kw := range candidate.Keywords {
			if keywords[strings.ToLower(kw)] {
				score += 1.0
			}
		}
		for _, tag := range candidate.Tags {
			if tags[tag] {
				score += 0.5
			}
		}
		if score > 0 {
			results = append(results, &core.SearchResult{Record: candidate, Score: score})
		}
		return nil
	})
	if err != nil {
		s.logger.Error("error scanning for overlap", "id", record.Id, "err", err)
		return nil, err
	}

	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}
