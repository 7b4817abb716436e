// Package registry owns the configured search indexes and keeps them in step
// with the configuration file.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Aman-CERP/ctxindex/internal/config"
	"github.com/Aman-CERP/ctxindex/internal/content"
	"github.com/Aman-CERP/ctxindex/internal/crawler"
	"github.com/Aman-CERP/ctxindex/internal/searchindex"
	"github.com/Aman-CERP/ctxindex/pkg/resolver"
)

// Registry holds the search indexes built from a configuration. Indexes
// returns a snapshot, so a reload never changes a slice a caller holds.
type Registry struct {
	store   content.Store
	types   *searchindex.Types
	logger  *slog.Logger
	inMem   bool
	dataDir string

	mu      sync.RWMutex
	cfg     *config.Config
	indexes []searchindex.Index
}

var _ resolver.Registry = (*Registry)(nil)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// InMemory keeps every index in memory regardless of the data directory.
func InMemory() Option {
	return func(r *Registry) {
		r.inMem = true
	}
}

// New builds the indexes declared in cfg over store.
func New(store content.Store, cfg *config.Config, opts ...Option) (*Registry, error) {
	r := &Registry{
		store:  store,
		types:  searchindex.NewTypes(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.Reload(cfg); err != nil {
		return nil, err
	}
	return r, nil
}

// Indexes returns the indexes in configuration order.
func (r *Registry) Indexes() []resolver.SearchIndex {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]resolver.SearchIndex, len(r.indexes))
	for i, idx := range r.indexes {
		out[i] = idx
	}
	return out
}

// List returns the concrete indexes in configuration order.
func (r *Registry) List() []searchindex.Index {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]searchindex.Index(nil), r.indexes...)
}

// Index returns the named index.
func (r *Registry) Index(name string) (searchindex.Index, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, idx := range r.indexes {
		if idx.Name() == name {
			return idx, true
		}
	}
	return nil, false
}

// Types returns the index type lookup.
func (r *Registry) Types() *searchindex.Types {
	return r.types
}

// Config returns the configuration currently applied.
func (r *Registry) Config() *config.Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg
}

// Settings returns a view of the current configuration settings.
func (r *Registry) Settings() resolver.Settings {
	return settingsView{r}
}

// Reload applies cfg. Indexes keeping their name and type keep their data
// and get new crawlers; others are opened or closed. On error the previous
// configuration stays in effect.
func (r *Registry) Reload(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("registry requires a configuration")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing := make(map[string]searchindex.Index, len(r.indexes))
	for _, idx := range r.indexes {
		existing[idx.Name()] = idx
	}

	type planned struct {
		index    searchindex.Index
		crawlers []resolver.Crawler
		opened   bool
	}
	plan := make([]planned, 0, len(cfg.Indexes))
	abort := func(err error) error {
		for _, p := range plan {
			if p.opened {
				_ = p.index.Close()
			}
		}
		return err
	}

	for _, ic := range cfg.Indexes {
		crawlers, err := r.buildCrawlers(ic)
		if err != nil {
			return abort(err)
		}

		handle, ok := r.types.LookupType(ic.Type)
		if old, found := existing[ic.Name]; found && ok && old.Type() == handle {
			plan = append(plan, planned{index: old, crawlers: crawlers})
			continue
		}

		idx, err := searchindex.Open(r.types, ic.Type, ic.Name, r.dataDirFor(cfg), crawlers)
		if err != nil {
			return abort(err)
		}
		plan = append(plan, planned{index: idx, crawlers: crawlers, opened: true})
	}

	indexes := make([]searchindex.Index, len(plan))
	kept := make(map[searchindex.Index]bool, len(plan))
	for i, p := range plan {
		p.index.SetCrawlers(p.crawlers)
		indexes[i] = p.index
		kept[p.index] = true
	}
	for _, old := range existing {
		if !kept[old] {
			_ = old.Close()
		}
	}

	r.indexes = indexes
	r.cfg = cfg
	r.logger.Info("index registry loaded", slog.Int("indexes", len(indexes)))
	return nil
}

func (r *Registry) buildCrawlers(ic config.IndexConfig) ([]resolver.Crawler, error) {
	crawlers := make([]resolver.Crawler, 0, len(ic.Crawlers))
	for _, cc := range ic.Crawlers {
		c, err := crawler.New(r.store, crawler.Config{
			Database:         cc.Database,
			Root:             cc.Root,
			ExcludePaths:     cc.ExcludePaths,
			ExcludeTemplates: cc.ExcludeTemplates,
			ExcludePatterns:  cc.ExcludePatterns,
		}, crawler.WithLogger(r.logger))
		if err != nil {
			return nil, fmt.Errorf("index %s: %w", ic.Name, err)
		}
		crawlers = append(crawlers, c)
	}
	return crawlers, nil
}

func (r *Registry) dataDirFor(cfg *config.Config) string {
	if r.inMem {
		return ""
	}
	return cfg.DataDir
}

// Close closes every index.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for _, idx := range r.indexes {
		if err := idx.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.indexes = nil
	return firstErr
}

// Count returns the document count of every index by name.
func (r *Registry) Count(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, idx := range r.List() {
		n, err := idx.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", idx.Name(), err)
		}
		counts[idx.Name()] = n
	}
	return counts, nil
}

// settingsView reads settings from the registry's current configuration.
type settingsView struct {
	r *Registry
}

// GetSetting returns the setting or def when it is unset or empty.
func (s settingsView) GetSetting(key, def string) string {
	cfg := s.r.Config()
	if cfg == nil {
		return def
	}
	if v, ok := cfg.Settings[key]; ok && v != "" {
		return v
	}
	return def
}
