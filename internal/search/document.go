// Package search provides full-text catalog search using Bleve.
// The index is a disposable projection of the materialized lists: it is
// rebuilt wholesale from relay data and never treated as a source of truth.
package search

import (
	"github.com/trustwaveapp/trustwave-server/internal/domain"
)

// DocType represents the type of document in the index.
type DocType string

// Document types for the search index.
const (
	DocTypeSong   DocType = "song"
	DocTypeArtist DocType = "artist"
)

// SearchDocument is the indexed projection of one catalog entry.
type SearchDocument struct {
	ID   string  `json:"id"` // Record id
	Type DocType `json:"type"`

	// Song title or artist name.
	Name string `json:"name"`
	// Song artist; empty for artist documents.
	Artist      string `json:"artist,omitempty"`
	Description string `json:"description,omitempty"`

	ListTag  string `json:"list_tag"`
	StableID string `json:"stable_id,omitempty"`
	FeedID   string `json:"feed_id,omitempty"`

	Score     int   `json:"score"`
	CreatedAt int64 `json:"created_at"`
}

// NewDocument projects a scored entry into a search document.
func NewDocument(e *domain.ScoredEntry) *SearchDocument {
	doc := &SearchDocument{
		ID:          e.ID,
		Type:        DocType(e.Kind),
		Name:        e.DisplayName(),
		Description: e.Description,
		ListTag:     e.ListTag,
		StableID:    e.StableID(),
		FeedID:      e.FeedID(),
		Score:       e.Score,
		CreatedAt:   e.CreatedAt,
	}
	if e.Song != nil {
		doc.Artist = e.Song.Artist
	}
	return doc
}

// ToMap converts the document to the field names the mapping declares.
func (d *SearchDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"type":       string(d.Type),
		"name":       d.Name,
		"list_tag":   d.ListTag,
		"score":      float64(d.Score),
		"created_at": float64(d.CreatedAt),
	}
	if d.Artist != "" {
		m["artist"] = d.Artist
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.StableID != "" {
		m["stable_id"] = d.StableID
	}
	if d.FeedID != "" {
		m["feed_id"] = d.FeedID
	}
	return m
}
