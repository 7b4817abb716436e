package searchindex

import (
	"context"
	"sync"

	"github.com/Aman-CERP/ctxindex/pkg/resolver"
)

// base carries what every index kind shares. Crawlers may be swapped on a
// configuration reload while resolutions are running.
type base struct {
	name string
	typ  resolver.TypeHandle

	crawlerMu sync.RWMutex
	crawlers  []resolver.Crawler
}

// Name returns the index name.
func (b *base) Name() string { return b.name }

// Type returns the index type handle.
func (b *base) Type() resolver.TypeHandle { return b.typ }

// Crawlers returns a snapshot of the index crawlers.
func (b *base) Crawlers() []resolver.Crawler {
	b.crawlerMu.RLock()
	defer b.crawlerMu.RUnlock()
	return append([]resolver.Crawler(nil), b.crawlers...)
}

// SetCrawlers replaces the index crawlers.
func (b *base) SetCrawlers(crawlers []resolver.Crawler) {
	b.crawlerMu.Lock()
	defer b.crawlerMu.Unlock()
	b.crawlers = crawlers
}

// ContextRank is the best rank among the crawlers able to rank. An index
// without such crawlers is unranked.
func (b *base) ContextRank(ctx context.Context, indexable resolver.Indexable) int {
	best := resolver.Unranked
	for _, c := range b.Crawlers() {
		r, ok := c.(resolver.Rankable)
		if !ok {
			continue
		}
		if rank := r.ContextRank(ctx, indexable); rank < best {
			best = rank
		}
	}
	return best
}
