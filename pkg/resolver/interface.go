package resolver

import (
	"context"
	"math"
)

// Unranked is the rank of a candidate that cannot be ranked for an indexable.
// It always sorts after every real rank.
const Unranked = math.MaxInt

// DefaultIndexTypeSetting is the settings key naming the preferred index type
// used to break ties between equally specific indexes.
const DefaultIndexTypeSetting = "ContentSearch.DefaultIndexType"

// Indexable is a content unit being evaluated for search indexing.
type Indexable interface {
	// ID returns the identifier of the content unit.
	ID() string

	// AbsolutePath returns the human-readable location of the content unit.
	AbsolutePath() string
}

// TreePosition locates an indexable or a crawler root inside a content tree.
type TreePosition struct {
	// Database is the partition (named data store) the node lives in.
	Database string

	// LongID is the canonical ancestor chain, e.g. "/{root}/{content}/{home}".
	LongID string

	// Level is the depth of the node; the tree root is level 0.
	Level int
}

// TreeIndexable is an Indexable backed by a node of a content tree.
type TreeIndexable interface {
	Indexable

	// TreePosition returns the node position, or false when the indexable
	// has no underlying tree mapping.
	TreePosition() (TreePosition, bool)
}

// Crawler feeds content into a search index.
type Crawler interface {
	// IsExcluded reports whether the crawler explicitly excludes the indexable.
	IsExcluded(ctx context.Context, indexable Indexable) bool
}

// TreeCrawler is a Crawler scoped to a sub-tree of one database.
type TreeCrawler interface {
	Crawler

	// Database returns the configured database name.
	Database() string

	// Root resolves the crawler root. It returns false when the configured
	// root does not exist.
	Root(ctx context.Context) (TreePosition, bool)
}

// Rankable is implemented by crawlers and indexes that can score how
// specific they are for an indexable. Lower is better; Unranked means
// not applicable.
type Rankable interface {
	ContextRank(ctx context.Context, indexable Indexable) int
}

// TypeHandle identifies a search index implementation type.
// Handles are comparable.
type TypeHandle string

// SearchIndex is a named, configured search index.
type SearchIndex interface {
	// Name returns the unique index name.
	Name() string

	// Type returns the implementation type of the index.
	Type() TypeHandle

	// Crawlers returns the crawlers feeding the index. May be empty.
	Crawlers() []Crawler
}

// Registry enumerates the configured search indexes.
// Implementations must be safe for concurrent use.
type Registry interface {
	Indexes() []SearchIndex
}

// Settings provides process-wide read-only configuration.
type Settings interface {
	GetSetting(key, defaultValue string) string
}

// TypeLookup resolves a type name to a TypeHandle.
type TypeLookup interface {
	LookupType(name string) (TypeHandle, bool)
}

// RegistryFunc adapts a function to the Registry interface.
type RegistryFunc func() []SearchIndex

// Indexes calls f.
func (f RegistryFunc) Indexes() []SearchIndex { return f() }

// MapSettings is a Settings backed by a map.
type MapSettings map[string]string

// GetSetting returns the value for key, or defaultValue when unset or empty.
func (m MapSettings) GetSetting(key, defaultValue string) string {
	if v, ok := m[key]; ok && v != "" {
		return v
	}
	return defaultValue
}
