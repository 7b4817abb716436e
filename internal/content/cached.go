package content

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/ctxindex/internal/scope"
)

// DefaultItemCacheSize is the default number of items kept in memory.
const DefaultItemCacheSize = 1000

// CachedStore wraps a Store with an LRU item cache. Reads write through to
// the cache unless cache writes are suspended in the context. Callers always
// get their own copy of an item, so mutating it never reaches the cache.
type CachedStore struct {
	inner Store
	cache *lru.Cache[string, *Item]
}

var _ Store = (*CachedStore)(nil)

// NewCachedStore creates a cached store wrapping inner.
func NewCachedStore(inner Store, cacheSize int) *CachedStore {
	if cacheSize <= 0 {
		cacheSize = DefaultItemCacheSize
	}
	cache, _ := lru.New[string, *Item](cacheSize)
	return &CachedStore{
		inner: inner,
		cache: cache,
	}
}

func idKey(database, id string) string {
	return "id\x00" + strings.ToLower(database) + "\x00" + id
}

func pathKey(database, path string) string {
	return "path\x00" + strings.ToLower(database) + "\x00" + strings.ToLower(normalizePath(path))
}

// Get returns a cached item or loads it from the inner store.
func (c *CachedStore) Get(ctx context.Context, database, id string) (*Item, error) {
	if it, ok := c.cache.Get(idKey(database, id)); ok {
		return it.clone(), nil
	}
	it, err := c.inner.Get(ctx, database, id)
	if err != nil {
		return nil, err
	}
	c.remember(ctx, it)
	return it, nil
}

// GetByPath returns a cached item or loads it from the inner store.
func (c *CachedStore) GetByPath(ctx context.Context, database, path string) (*Item, error) {
	if it, ok := c.cache.Get(pathKey(database, path)); ok {
		return it.clone(), nil
	}
	it, err := c.inner.GetByPath(ctx, database, path)
	if err != nil {
		return nil, err
	}
	c.remember(ctx, it)
	return it, nil
}

// Children passes through to the inner store.
func (c *CachedStore) Children(ctx context.Context, database, id string) ([]*Item, error) {
	return c.inner.Children(ctx, database, id)
}

// Items passes through to the inner store.
func (c *CachedStore) Items(ctx context.Context, database string) ([]*Item, error) {
	return c.inner.Items(ctx, database)
}

// Put invalidates cached entries for the item and writes to the inner store.
func (c *CachedStore) Put(ctx context.Context, item *Item) error {
	if item != nil {
		if old, ok := c.cache.Peek(idKey(item.Database, item.ID)); ok {
			c.cache.Remove(pathKey(old.Database, old.Path))
		}
		c.cache.Remove(idKey(item.Database, item.ID))
	}
	return c.inner.Put(ctx, item)
}

// Close purges the cache and closes the inner store.
func (c *CachedStore) Close() error {
	c.cache.Purge()
	return c.inner.Close()
}

// Len returns the number of cache entries.
func (c *CachedStore) Len() int {
	return c.cache.Len()
}

// Inner returns the wrapped store.
func (c *CachedStore) Inner() Store {
	return c.inner
}

func (c *CachedStore) remember(ctx context.Context, it *Item) {
	if scope.CacheWritesDisabled(ctx) {
		return
	}
	cp := it.clone()
	c.cache.Add(idKey(cp.Database, cp.ID), cp)
	c.cache.Add(pathKey(cp.Database, cp.Path), cp)
}
