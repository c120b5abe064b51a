package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for catalog documents.
// Names and artists use the standard analyzer: music titles are rarely
// English prose, so stemming does more harm than good.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = standard.Name

	docMapping := bleve.NewDocumentMapping()

	text := func(store, vectors bool) *mapping.FieldMapping {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = standard.Name
		fm.Store = store
		fm.IncludeTermVectors = vectors
		return fm
	}
	kw := func(store bool) *mapping.FieldMapping {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		fm.Store = store
		return fm
	}
	num := func() *mapping.FieldMapping {
		fm := bleve.NewNumericFieldMapping()
		fm.Store = true
		return fm
	}

	docMapping.AddFieldMappingsAt("name", text(true, true))
	docMapping.AddFieldMappingsAt("artist", text(true, true))
	docMapping.AddFieldMappingsAt("description", text(false, false))

	docMapping.AddFieldMappingsAt("id", kw(false))
	docMapping.AddFieldMappingsAt("type", kw(true))
	docMapping.AddFieldMappingsAt("list_tag", kw(true))
	docMapping.AddFieldMappingsAt("stable_id", kw(true))
	docMapping.AddFieldMappingsAt("feed_id", kw(true))

	docMapping.AddFieldMappingsAt("score", num())
	docMapping.AddFieldMappingsAt("created_at", num())

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}
