// Package reconcile cross-references external index candidates with catalog
// entries and guards imports against duplicate writes.
package reconcile

import (
	"github.com/trustwaveapp/trustwave-server/internal/domain"
)

// Match pairs a candidate with the catalog entry that already carries its id.
type Match[T any] struct {
	Candidate T                   `json:"candidate"`
	Entry     domain.CatalogEntry `json:"entry"`
}

// Result splits candidates by whether the catalog already has them.
type Result[T any] struct {
	Present    []Match[T] `json:"present"`
	Importable []T        `json:"importable"`
	// Unidentified candidates have no stable id and cannot be reconciled or imported.
	Unidentified int `json:"unidentified"`
}

// Index maps stable ids to entries. Artist entries are reachable by both their
// "t" value and their feed GUID.
func Index(entries []domain.CatalogEntry) map[string]domain.CatalogEntry {
	idx := make(map[string]domain.CatalogEntry, len(entries))
	for _, e := range entries {
		if id := e.StableID(); id != "" {
			if _, ok := idx[id]; !ok {
				idx[id] = e
			}
		}
		if e.Artist != nil && e.Artist.FeedGUID != "" {
			if _, ok := idx[e.Artist.FeedGUID]; !ok {
				idx[e.Artist.FeedGUID] = e
			}
		}
	}
	return idx
}

// Reconcile splits candidates into present and importable, keeping their order.
// Candidates sharing a stable id are reported once.
func Reconcile[T any](candidates []T, stableID func(T) string, local map[string]domain.CatalogEntry) Result[T] {
	var res Result[T]
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		id := stableID(c)
		if id == "" {
			res.Unidentified++
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if e, ok := local[id]; ok {
			res.Present = append(res.Present, Match[T]{Candidate: c, Entry: e})
			continue
		}
		res.Importable = append(res.Importable, c)
	}
	return res
}
