package searchindex

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Aman-CERP/ctxindex/pkg/resolver"
)

// MemoryIndex keeps documents in a map. Search is a case-insensitive
// substring match over the document text.
type MemoryIndex struct {
	base

	mu   sync.RWMutex
	docs map[string]Document
}

var _ Index = (*MemoryIndex)(nil)

// NewMemoryIndex creates an empty memory index.
func NewMemoryIndex(name string, crawlers []resolver.Crawler) *MemoryIndex {
	return &MemoryIndex{
		base: base{name: name, typ: TypeMemory, crawlers: crawlers},
		docs: make(map[string]Document),
	}
}

// Add stores or replaces a document.
func (m *MemoryIndex) Add(ctx context.Context, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = doc
	return nil
}

// Search returns matching IDs sorted by path.
func (m *MemoryIndex) Search(ctx context.Context, query string, limit int) ([]string, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []string{}, nil
	}

	m.mu.RLock()
	var hits []Document
	for _, d := range m.docs {
		if strings.Contains(strings.ToLower(d.text()), q) {
			hits = append(hits, d)
		}
	}
	m.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool { return hits[i].Path < hits[j].Path })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	ids := make([]string, len(hits))
	for i, d := range hits {
		ids[i] = d.ID
	}
	return ids, nil
}

// Count returns the number of documents.
func (m *MemoryIndex) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs), nil
}

// Close drops all documents.
func (m *MemoryIndex) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = make(map[string]Document)
	return nil
}
