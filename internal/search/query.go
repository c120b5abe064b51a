package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchParams configures a search query.
type SearchParams struct {
	Query   string    // Free text
	Types   []DocType // Empty means all
	ListTag string    // Optional list filter
	Limit   int
	Offset  int
}

// SearchResult holds one page of hits.
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"took_ms"`
	Hits   []SearchHit `json:"hits"`
}

// SearchHit is a single matching catalog entry.
type SearchHit struct {
	ID           string            `json:"id"`
	Type         DocType           `json:"type"`
	Relevance    float64           `json:"relevance"`
	Name         string            `json:"name"`
	Artist       string            `json:"artist,omitempty"`
	ListTag      string            `json:"list_tag"`
	StableID     string            `json:"stable_id,omitempty"`
	CatalogScore int               `json:"score"`
	Highlights   map[string]string `json:"highlights,omitempty"`
}

// Search executes a search query.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if params.Limit <= 0 {
		params.Limit = 20
	}
	params.Limit = min(params.Limit, 100)

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	req.SortBy([]string{"-_score", "-score"})
	req.Highlight = bleve.NewHighlight()
	req.Highlight.AddField("name")
	req.Highlight.AddField("artist")
	req.Fields = []string{"type", "name", "artist", "list_tag", "stable_id", "score"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(res.Hits)),
	}
	for _, hit := range res.Hits {
		h := SearchHit{ID: hit.ID, Relevance: hit.Score}
		if v, ok := hit.Fields["type"].(string); ok {
			h.Type = DocType(v)
		}
		if v, ok := hit.Fields["name"].(string); ok {
			h.Name = v
		}
		if v, ok := hit.Fields["artist"].(string); ok {
			h.Artist = v
		}
		if v, ok := hit.Fields["list_tag"].(string); ok {
			h.ListTag = v
		}
		if v, ok := hit.Fields["stable_id"].(string); ok {
			h.StableID = v
		}
		if v, ok := hit.Fields["score"].(float64); ok {
			h.CatalogScore = int(v)
		}
		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string, len(hit.Fragments))
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, h)
	}
	return result, nil
}

// buildSearchQuery matches title/name first, then artist, with fuzzy and
// prefix fallbacks on the name for typos and autocomplete.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		nameMatch := bleve.NewMatchQuery(q)
		nameMatch.SetField("name")
		nameMatch.SetBoost(3.0)

		artistMatch := bleve.NewMatchQuery(q)
		artistMatch.SetField("artist")
		artistMatch.SetBoost(2.0)

		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("name")
		fuzzy.SetBoost(0.8)

		text := []query.Query{nameMatch, artistMatch, fuzzy}
		if len(q) >= 2 && !strings.ContainsRune(q, ' ') {
			prefix := bleve.NewPrefixQuery(strings.ToLower(q))
			prefix.SetField("name")
			prefix.SetBoost(0.5)
			text = append(text, prefix)
		}
		queries = append(queries, bleve.NewDisjunctionQuery(text...))
	}

	if len(params.Types) > 0 {
		types := make([]query.Query, len(params.Types))
		for i, t := range params.Types {
			tq := bleve.NewTermQuery(string(t))
			tq.SetField("type")
			types[i] = tq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(types...))
	}

	if params.ListTag != "" {
		lq := bleve.NewTermQuery(params.ListTag)
		lq.SetField("list_tag")
		queries = append(queries, lq)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}
