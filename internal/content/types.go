package content

import (
	"context"
	"strings"

	"github.com/Aman-CERP/ctxindex/pkg/resolver"
)

// Item is a node of a content tree.
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Database string `json:"database"`
	ParentID string `json:"parent_id,omitempty"`
	Template string `json:"template,omitempty"`

	// Path is the name chain from the tree root, e.g. "/sitecore/content/home".
	Path string `json:"path"`

	// LongID is the ID chain from the tree root, e.g. "/{A}/{B}/{C}".
	LongID string `json:"long_id"`

	// Level is the depth of the item; a tree root is level 0.
	Level int `json:"level"`
}

func (it *Item) clone() *Item {
	cp := *it
	return &cp
}

// Position returns the tree position of the item.
func (it *Item) Position() resolver.TreePosition {
	return resolver.TreePosition{
		Database: it.Database,
		LongID:   it.LongID,
		Level:    it.Level,
	}
}

// Store reads and writes content items.
//
// Implementations must be safe for concurrent use. Reads of a missing item
// return an error with code ErrCodeItemNotFound.
type Store interface {
	// Get returns the item with the given ID.
	Get(ctx context.Context, database, id string) (*Item, error)

	// GetByPath returns the item at the given path. Paths compare without case.
	GetByPath(ctx context.Context, database, path string) (*Item, error)

	// Children returns the direct children of an item ordered by name.
	Children(ctx context.Context, database, id string) ([]*Item, error)

	// Items returns every item of a database ordered by path.
	Items(ctx context.Context, database string) ([]*Item, error)

	// Put inserts or replaces an item. Path, LongID and Level are derived
	// from the parent. Descendants of a moved item are not re-pathed.
	Put(ctx context.Context, item *Item) error

	// Close releases resources.
	Close() error
}

// normalizePath trims a trailing slash and ensures a leading one.
func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "/" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimSuffix(p, "/")
}
