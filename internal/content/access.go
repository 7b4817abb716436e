package content

import (
	"context"
	"fmt"
	"strings"

	cerrors "github.com/Aman-CERP/ctxindex/internal/errors"
	"github.com/Aman-CERP/ctxindex/internal/scope"
)

// DenyRule hides a sub-tree of one database from normal reads.
type DenyRule struct {
	Database   string
	PathPrefix string
}

// matches reports whether the rule covers the item. Both the database and
// the path compare without case; the prefix must end on a segment boundary.
func (r DenyRule) matches(it *Item) bool {
	if !strings.EqualFold(r.Database, it.Database) {
		return false
	}
	prefix := strings.ToLower(normalizePath(r.PathPrefix))
	path := strings.ToLower(it.Path)
	if prefix == "/" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// GuardedStore enforces deny rules on reads unless security is suspended in
// the context. Denied single-item reads fail with ErrCodeAccessDenied; denied
// items are dropped from listings.
type GuardedStore struct {
	inner Store
	rules []DenyRule
}

var _ Store = (*GuardedStore)(nil)

// NewGuardedStore wraps inner with deny rules.
func NewGuardedStore(inner Store, rules []DenyRule) *GuardedStore {
	return &GuardedStore{inner: inner, rules: rules}
}

func (g *GuardedStore) denied(ctx context.Context, it *Item) bool {
	if scope.SecurityDisabled(ctx) {
		return false
	}
	for _, r := range g.rules {
		if r.matches(it) {
			return true
		}
	}
	return false
}

func (g *GuardedStore) check(ctx context.Context, it *Item, err error) (*Item, error) {
	if err != nil {
		return nil, err
	}
	if g.denied(ctx, it) {
		return nil, cerrors.AccessDenied(fmt.Sprintf("read access to %s denied", it.Path)).
			WithDetail("database", it.Database)
	}
	return it, nil
}

// Get returns the item unless it is denied.
func (g *GuardedStore) Get(ctx context.Context, database, id string) (*Item, error) {
	it, err := g.inner.Get(ctx, database, id)
	return g.check(ctx, it, err)
}

// GetByPath returns the item unless it is denied.
func (g *GuardedStore) GetByPath(ctx context.Context, database, path string) (*Item, error) {
	it, err := g.inner.GetByPath(ctx, database, path)
	return g.check(ctx, it, err)
}

// Children returns the readable children of an item.
func (g *GuardedStore) Children(ctx context.Context, database, id string) ([]*Item, error) {
	items, err := g.inner.Children(ctx, database, id)
	if err != nil {
		return nil, err
	}
	return g.filter(ctx, items), nil
}

// Items returns the readable items of a database.
func (g *GuardedStore) Items(ctx context.Context, database string) ([]*Item, error) {
	items, err := g.inner.Items(ctx, database)
	if err != nil {
		return nil, err
	}
	return g.filter(ctx, items), nil
}

// Put passes through to the inner store.
func (g *GuardedStore) Put(ctx context.Context, item *Item) error {
	return g.inner.Put(ctx, item)
}

// Close closes the inner store.
func (g *GuardedStore) Close() error {
	return g.inner.Close()
}

func (g *GuardedStore) filter(ctx context.Context, items []*Item) []*Item {
	out := items[:0:0]
	for _, it := range items {
		if !g.denied(ctx, it) {
			out = append(out, it)
		}
	}
	return out
}
