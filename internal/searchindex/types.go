// Package searchindex provides the search index kinds that content items are
// routed into once the resolver has picked an owner.
package searchindex

import (
	"context"
	"sort"
	"strings"

	"github.com/Aman-CERP/ctxindex/internal/content"
	"github.com/Aman-CERP/ctxindex/pkg/resolver"
)

// Index type handles.
const (
	TypeBleve  resolver.TypeHandle = "bleve"
	TypeSQLite resolver.TypeHandle = "sqlite"
	TypeMemory resolver.TypeHandle = "memory"
)

// Document is what an index stores for a content item.
type Document struct {
	ID       string `json:"id"`
	Database string `json:"database"`
	Path     string `json:"path"`
	Name     string `json:"name"`
	Template string `json:"template"`
}

// DocumentFromItem builds the document stored for an item.
func DocumentFromItem(it *content.Item) Document {
	return Document{
		ID:       it.Database + ":" + it.ID,
		Database: it.Database,
		Path:     it.Path,
		Name:     it.Name,
		Template: it.Template,
	}
}

// text is the searchable body of a document.
func (d Document) text() string {
	return d.Name + " " + strings.ReplaceAll(d.Path, "/", " ") + " " + d.Template
}

// Index is a search index that can be resolved to and written into.
type Index interface {
	resolver.SearchIndex
	resolver.Rankable

	// SetCrawlers replaces the crawlers deciding what the index covers.
	SetCrawlers(crawlers []resolver.Crawler)

	// Add stores or replaces a document.
	Add(ctx context.Context, doc Document) error

	// Search returns IDs of documents matching query, best first.
	Search(ctx context.Context, query string, limit int) ([]string, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// Types maps type names to handles. Names compare without case.
type Types struct {
	handles map[string]resolver.TypeHandle
}

var _ resolver.TypeLookup = (*Types)(nil)

// NewTypes returns a lookup knowing the built-in index kinds.
func NewTypes() *Types {
	t := &Types{handles: make(map[string]resolver.TypeHandle)}
	for _, h := range []resolver.TypeHandle{TypeBleve, TypeSQLite, TypeMemory} {
		t.handles[string(h)] = h
	}
	return t
}

// LookupType resolves a type name.
func (t *Types) LookupType(name string) (resolver.TypeHandle, bool) {
	h, ok := t.handles[strings.ToLower(strings.TrimSpace(name))]
	return h, ok
}

// Names returns the known type names in order.
func (t *Types) Names() []string {
	names := make([]string, 0, len(t.handles))
	for n := range t.handles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
