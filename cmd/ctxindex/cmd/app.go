package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Aman-CERP/ctxindex/internal/config"
	"github.com/Aman-CERP/ctxindex/internal/content"
	cerrors "github.com/Aman-CERP/ctxindex/internal/errors"
	"github.com/Aman-CERP/ctxindex/internal/registry"
	"github.com/Aman-CERP/ctxindex/internal/telemetry"
	"github.com/Aman-CERP/ctxindex/pkg/resolver"
)

// app is the wired set of components a command works with.
type app struct {
	cfg      *config.Config
	cfgPath  string
	store    content.Store
	registry *registry.Registry
	resolver *resolver.Resolver
	metrics  *telemetry.Metrics
	logger   *slog.Logger
}

// resolveConfigPath returns --config, or the project config of the working
// directory.
func (o *rootOptions) resolveConfigPath() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return config.ProjectConfigPath(cwd), nil
}

// loadConfig loads the effective configuration. A file named by --config
// must exist; the project default may be absent.
func (o *rootOptions) loadConfig() (*config.Config, string, error) {
	path, err := o.resolveConfigPath()
	if err != nil {
		return nil, "", err
	}
	if o.configPath != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, "", cerrors.New(cerrors.ErrCodeConfigNotFound,
				fmt.Sprintf("config file %s not found", path), err).
				WithSuggestion("Run 'ctxindex config init --project --config " + path + "'")
		}
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// openStore opens the content store described by cfg: SQLite underneath, an
// LRU read cache above it and the access rules on top.
func openStore(cfg *config.Config) (content.Store, error) {
	base, err := content.NewSQLiteStore(cfg.Content.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open content store: %w", err)
	}

	var st content.Store = base
	if cfg.Content.CacheSize > 0 {
		st = content.NewCachedStore(st, cfg.Content.CacheSize)
	}
	if len(cfg.Content.Deny) > 0 {
		rules := make([]content.DenyRule, 0, len(cfg.Content.Deny))
		for _, r := range cfg.Content.Deny {
			rules = append(rules, content.DenyRule{Database: r.Database, PathPrefix: r.Path})
		}
		st = content.NewGuardedStore(st, rules)
	}
	return st, nil
}

// openApp loads configuration and wires the store, registry, resolver and
// metrics together.
func (o *rootOptions) openApp(logger *slog.Logger) (*app, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg, path, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	reg, err := registry.New(st, cfg, registry.WithLogger(logger))
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	metrics := telemetry.New()
	res, err := resolver.New(reg,
		resolver.WithSettings(reg.Settings()),
		resolver.WithTypeLookup(reg.Types()),
		resolver.WithLogger(logger),
		resolver.WithObserver(metrics))
	if err != nil {
		_ = reg.Close()
		_ = st.Close()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		cfgPath:  path,
		store:    st,
		registry: reg,
		resolver: res,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// Close releases the registry and the store.
func (a *app) Close() error {
	return errors.Join(a.registry.Close(), a.store.Close())
}
