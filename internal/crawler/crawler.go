// Package crawler implements tree crawlers: the rules that decide which
// content items a search index covers and how specific that coverage is.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/Aman-CERP/ctxindex/internal/content"
	cerrors "github.com/Aman-CERP/ctxindex/internal/errors"
	"github.com/Aman-CERP/ctxindex/internal/scope"
	"github.com/Aman-CERP/ctxindex/pkg/resolver"
)

// Config describes one tree crawler.
type Config struct {
	// Database is the content database crawled, e.g. "master".
	Database string `yaml:"database" json:"database"`

	// Root is the path of the crawled sub-tree, e.g. "/sitecore/content".
	Root string `yaml:"root" json:"root"`

	// ExcludePaths are sub-trees skipped by the crawler.
	ExcludePaths []string `yaml:"exclude_paths,omitempty" json:"exclude_paths,omitempty"`

	// ExcludeTemplates are template names skipped by the crawler.
	ExcludeTemplates []string `yaml:"exclude_templates,omitempty" json:"exclude_templates,omitempty"`

	// ExcludePatterns are path.Match patterns tested against item paths.
	ExcludePatterns []string `yaml:"exclude_patterns,omitempty" json:"exclude_patterns,omitempty"`
}

// Validate checks the crawler configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database) == "" {
		return cerrors.ValidationError("crawler database is required", nil)
	}
	if !strings.HasPrefix(c.Root, "/") {
		return cerrors.New(cerrors.ErrCodeInvalidPath,
			fmt.Sprintf("crawler root %q must be an absolute item path", c.Root), nil)
	}
	for _, p := range c.ExcludePatterns {
		if _, err := path.Match(p, ""); err != nil {
			return cerrors.ValidationError(fmt.Sprintf("invalid exclude pattern %q", p), err)
		}
	}
	return nil
}

// TreeCrawler covers one sub-tree of one content database.
type TreeCrawler struct {
	cfg       Config
	store     content.Store
	logger    *slog.Logger
	templates map[string]struct{}
}

var (
	_ resolver.TreeCrawler = (*TreeCrawler)(nil)
	_ resolver.Rankable    = (*TreeCrawler)(nil)
)

// Option configures a TreeCrawler.
type Option func(*TreeCrawler)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *TreeCrawler) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a crawler reading items from store.
func New(store content.Store, cfg Config, opts ...Option) (*TreeCrawler, error) {
	if store == nil {
		return nil, cerrors.ValidationError("crawler requires a content store", nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &TreeCrawler{
		cfg:       cfg,
		store:     store,
		logger:    slog.Default(),
		templates: make(map[string]struct{}, len(cfg.ExcludeTemplates)),
	}
	for _, t := range cfg.ExcludeTemplates {
		c.templates[strings.ToLower(t)] = struct{}{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Database returns the crawled database name.
func (c *TreeCrawler) Database() string {
	return c.cfg.Database
}

// Config returns the crawler configuration.
func (c *TreeCrawler) Config() Config {
	return c.cfg
}

// String describes the crawler as database:root.
func (c *TreeCrawler) String() string {
	return c.cfg.Database + ":" + c.cfg.Root
}

// Root resolves the crawler root item. Resolution runs with access checks and
// cache writes suspended, so a root hidden from the caller still resolves.
func (c *TreeCrawler) Root(ctx context.Context) (resolver.TreePosition, bool) {
	root, err := c.root(ctx)
	if err != nil {
		c.logger.Debug("crawler root not resolvable",
			slog.String("crawler", c.String()),
			slog.String("error", err.Error()))
		return resolver.TreePosition{}, false
	}
	return root.Position(), true
}

func (c *TreeCrawler) root(ctx context.Context) (*content.Item, error) {
	type result struct {
		item *content.Item
		err  error
	}
	r := scope.Run(ctx, func(ctx context.Context) result {
		it, err := c.store.GetByPath(ctx, c.cfg.Database, c.cfg.Root)
		return result{it, err}
	})
	return r.item, r.err
}

// IsExcluded reports whether the crawler skips the indexable. Anything that
// is not an item of the crawled database under the root is excluded, as are
// items matching an exclude rule.
func (c *TreeCrawler) IsExcluded(ctx context.Context, indexable resolver.Indexable) bool {
	pos, ok := treePosition(indexable)
	if !ok || !resolver.SameDatabase(pos.Database, c.cfg.Database) {
		return true
	}
	root, ok := c.Root(ctx)
	if !ok || !underLongID(pos.LongID, root.LongID) {
		return true
	}

	ii, ok := indexable.(*content.ItemIndexable)
	if !ok || ii.Item() == nil {
		return false
	}
	return c.excludedItem(ii.Item())
}

func (c *TreeCrawler) excludedItem(it *content.Item) bool {
	if _, ok := c.templates[strings.ToLower(it.Template)]; ok && it.Template != "" {
		return true
	}
	itemPath := strings.ToLower(it.Path)
	for _, p := range c.cfg.ExcludePaths {
		p = strings.ToLower(strings.TrimSuffix(p, "/"))
		if itemPath == p || strings.HasPrefix(itemPath, p+"/") {
			return true
		}
	}
	for _, p := range c.cfg.ExcludePatterns {
		if ok, _ := path.Match(strings.ToLower(p), itemPath); ok {
			return true
		}
	}
	return false
}

// ContextRank returns how many levels the indexable sits below the crawler
// root. Items of another database or outside the root, indexables without a
// tree position and crawlers whose root is missing are resolver.Unranked.
func (c *TreeCrawler) ContextRank(ctx context.Context, indexable resolver.Indexable) int {
	return scope.Run(ctx, func(ctx context.Context) int {
		pos, ok := treePosition(indexable)
		if !ok {
			c.logger.Info("Indexable is not a content item, cannot rank",
				slog.String("crawler", c.String()),
				slog.String("id", indexable.ID()))
			return resolver.Unranked
		}
		if !resolver.SameDatabase(pos.Database, c.cfg.Database) {
			c.logger.Info("Item belongs to another database, cannot rank",
				slog.String("crawler", c.String()),
				slog.String("database", pos.Database),
				slog.String("id", indexable.ID()))
			return resolver.Unranked
		}
		root, ok := c.Root(ctx)
		if !ok {
			c.logger.Info("Crawler root is missing, cannot rank",
				slog.String("crawler", c.String()),
				slog.String("id", indexable.ID()))
			return resolver.Unranked
		}
		if !underLongID(pos.LongID, root.LongID) {
			c.logger.Info("Item is outside the crawler root, cannot rank",
				slog.String("crawler", c.String()),
				slog.String("id", indexable.ID()))
			return resolver.Unranked
		}
		return pos.Level - root.Level
	})
}

func treePosition(indexable resolver.Indexable) (resolver.TreePosition, bool) {
	if indexable == nil {
		return resolver.TreePosition{}, false
	}
	ti, ok := indexable.(resolver.TreeIndexable)
	if !ok {
		return resolver.TreePosition{}, false
	}
	return ti.TreePosition()
}

// underLongID reports whether longID is root or one of its descendants.
func underLongID(longID, root string) bool {
	return longID == root || strings.HasPrefix(longID, root+"/")
}
