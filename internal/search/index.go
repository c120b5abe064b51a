package search

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// SearchIndex wraps a Bleve index with catalog operations.
// All public methods are safe for concurrent use.
type SearchIndex struct {
	index  bleve.Index
	path   string // Empty for an in-memory index
	logger *slog.Logger
	mu     sync.RWMutex // Protects the index handle during Replace
}

// Options configures the search index.
type Options struct {
	DataPath string       // Directory for index storage; empty keeps the index in memory
	Logger   *slog.Logger // Uses discard if nil
}

// mappingVersion is incremented whenever the index mapping changes,
// which triggers a rebuild on startup.
const mappingVersion = "1"

const batchSize = 500

// NewSearchIndex creates or opens a search index.
// A corrupted index or one with an outdated mapping is removed and recreated.
func NewSearchIndex(opts Options) (*SearchIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if opts.DataPath == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create in-memory index: %w", err)
		}
		return &SearchIndex{index: index, logger: logger}, nil
	}

	indexPath := filepath.Join(opts.DataPath, "catalog.bleve")
	versionPath := filepath.Join(opts.DataPath, "catalog.version")

	var index bleve.Index
	if _, err := os.Stat(indexPath); err == nil {
		existing, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil || string(existing) != mappingVersion:
			logger.Info("search index mapping version changed, will rebuild",
				"old_version", string(existing),
				"new_version", mappingVersion,
			)
		default:
			index, err = bleve.Open(indexPath)
			if err != nil {
				logger.Warn("failed to open existing index, will recreate", "path", indexPath, "error", err)
				index = nil
			}
		}
	}

	if index == nil {
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("remove old index: %w", err)
		}
		var err error
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			logger.Warn("failed to write search version file", "error", err)
		}
		logger.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	return &SearchIndex{index: index, path: indexPath, logger: logger}, nil
}

// Close closes the index and releases resources.
func (s *SearchIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// DocumentCount returns the total number of indexed documents.
func (s *SearchIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Replace swaps the index contents for docs. A fresh index is built on the
// side and swapped in, so searches keep hitting the old one until it is ready.
func (s *SearchIndex) Replace(docs []*SearchDocument) error {
	var (
		fresh    bleve.Index
		err      error
		tempPath string
	)
	if s.path == "" {
		fresh, err = bleve.NewMemOnly(buildIndexMapping())
	} else {
		tempPath = s.path + ".next"
		if err := os.RemoveAll(tempPath); err != nil {
			return fmt.Errorf("remove stale rebuild: %w", err)
		}
		fresh, err = bleve.New(tempPath, buildIndexMapping())
	}
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	if err := indexInto(fresh, docs); err != nil {
		fresh.Close()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		s.logger.Warn("failed to close previous index", "error", err)
	}

	if s.path != "" {
		if err := fresh.Close(); err != nil {
			return fmt.Errorf("close rebuilt index: %w", err)
		}
		if err := os.RemoveAll(s.path); err != nil {
			return fmt.Errorf("remove index: %w", err)
		}
		if err := os.Rename(tempPath, s.path); err != nil {
			return fmt.Errorf("swap index: %w", err)
		}
		if fresh, err = bleve.Open(s.path); err != nil {
			return fmt.Errorf("reopen index: %w", err)
		}
	}

	s.index = fresh
	s.logger.Info("rebuilt search index", "documents", len(docs))
	return nil
}

func indexInto(index bleve.Index, docs []*SearchDocument) error {
	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))

		batch := index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}
