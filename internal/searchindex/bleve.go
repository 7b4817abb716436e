package searchindex

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/Aman-CERP/ctxindex/pkg/resolver"
)

// BleveIndex stores documents in a Bleve full-text index.
type BleveIndex struct {
	base

	mu     sync.RWMutex
	index  bleve.Index
	path   string
	closed bool
}

var _ Index = (*BleveIndex)(nil)

// NewBleveIndex opens the index at path, creating it when missing.
// If path is empty, creates an in-memory index.
func NewBleveIndex(name, path string, crawlers []resolver.Crawler) (*BleveIndex, error) {
	m := documentMapping()

	var (
		idx bleve.Index
		err error
	)
	if path == "" {
		idx, err = bleve.NewMemOnly(m)
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			slog.Debug("creating bleve index",
				slog.String("index", name),
				slog.String("path", path))
			idx, err = bleve.New(path, m)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create/open index %s: %w", name, err)
	}

	return &BleveIndex{
		base:  base{name: name, typ: TypeBleve, crawlers: crawlers},
		index: idx,
		path:  path,
	}, nil
}

// documentMapping indexes name and path as text and keeps database and
// template as exact keywords.
func documentMapping() *mapping.IndexMappingImpl {
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name

	exact := bleve.NewTextFieldMapping()
	exact.Analyzer = keyword.Name

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("name", text)
	doc.AddFieldMappingsAt("path", text)
	doc.AddFieldMappingsAt("database", exact)
	doc.AddFieldMappingsAt("template", exact)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

// Add stores or replaces a document.
func (b *BleveIndex) Add(ctx context.Context, doc Document) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("index is closed")
	}

	body := doc
	body.Path = strings.ReplaceAll(doc.Path, "/", " ")
	if err := b.index.Index(doc.ID, body); err != nil {
		return fmt.Errorf("failed to index document %s: %w", doc.ID, err)
	}
	return nil
}

// Search runs a match query over name and path.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, fmt.Errorf("index is closed")
	}
	if strings.TrimSpace(query) == "" {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	nameQ := bleve.NewMatchQuery(query)
	nameQ.SetField("name")
	pathQ := bleve.NewMatchQuery(query)
	pathQ.SetField("path")

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(nameQ, pathQ))
	req.Size = limit

	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	ids := make([]string, len(res.Hits))
	for i, hit := range res.Hits {
		ids[i] = hit.ID
	}
	return ids, nil
}

// Count returns the number of documents.
func (b *BleveIndex) Count(ctx context.Context) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return 0, fmt.Errorf("index is closed")
	}
	n, err := b.index.DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return int(n), nil
}

// Close closes the index.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.index.Close()
}
