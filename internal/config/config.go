package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	cerrors "github.com/Aman-CERP/ctxindex/internal/errors"
)

// DefaultIndexTypeSetting is the settings key naming the index type that
// wins rank ties.
const DefaultIndexTypeSetting = "ContentSearch.DefaultIndexType"

// Config represents the complete ctxindex configuration.
type Config struct {
	Version     int               `yaml:"version" json:"version"`
	DataDir     string            `yaml:"data_dir" json:"data_dir"`
	Content     ContentConfig     `yaml:"content" json:"content"`
	Indexes     []IndexConfig     `yaml:"indexes" json:"indexes"`
	Settings    map[string]string `yaml:"settings" json:"settings"`
	Performance PerformanceConfig `yaml:"performance" json:"performance"`
	Server      ServerConfig      `yaml:"server" json:"server"`
}

// ContentConfig configures the content store.
type ContentConfig struct {
	// DBPath is the SQLite file holding the content trees.
	DBPath string `yaml:"db_path" json:"db_path"`

	// CacheSize is the number of items kept in the read cache.
	CacheSize int `yaml:"cache_size" json:"cache_size"`

	// Deny hides sub-trees from normal reads.
	Deny []AccessRule `yaml:"deny" json:"deny"`
}

// AccessRule denies reads below Path in Database.
type AccessRule struct {
	Database string `yaml:"database" json:"database"`
	Path     string `yaml:"path" json:"path"`
}

// IndexConfig declares one search index and its crawlers.
type IndexConfig struct {
	Name     string          `yaml:"name" json:"name"`
	Type     string          `yaml:"type" json:"type"`
	Crawlers []CrawlerConfig `yaml:"crawlers" json:"crawlers"`
}

// CrawlerConfig declares one tree crawler.
type CrawlerConfig struct {
	Database         string   `yaml:"database" json:"database"`
	Root             string   `yaml:"root" json:"root"`
	ExcludePaths     []string `yaml:"exclude_paths,omitempty" json:"exclude_paths,omitempty"`
	ExcludeTemplates []string `yaml:"exclude_templates,omitempty" json:"exclude_templates,omitempty"`
	ExcludePatterns  []string `yaml:"exclude_patterns,omitempty" json:"exclude_patterns,omitempty"`
}

// PerformanceConfig configures batch work.
type PerformanceConfig struct {
	Workers       int    `yaml:"workers" json:"workers"`
	WatchDebounce string `yaml:"watch_debounce" json:"watch_debounce"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	LogLevel    string `yaml:"log_level" json:"log_level"`
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	home := defaultHome()
	return &Config{
		Version: 1,
		DataDir: filepath.Join(home, "indexes"),
		Content: ContentConfig{
			DBPath:    filepath.Join(home, "content.db"),
			CacheSize: 1000,
		},
		Indexes:  []IndexConfig{},
		Settings: map[string]string{},
		Performance: PerformanceConfig{
			Workers:       runtime.NumCPU(),
			WatchDebounce: "500ms",
		},
		Server: ServerConfig{
			LogLevel: "info",
		},
	}
}

// defaultHome returns ~/.ctxindex, or a temp directory when there is no home.
func defaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".ctxindex")
	}
	return filepath.Join(home, ".ctxindex")
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/ctxindex/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/ctxindex/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ctxindex", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "ctxindex", "config.yaml")
	}
	return filepath.Join(home, ".config", "ctxindex", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// ProjectConfigPath returns the project configuration file in dir. The
// .yaml name is returned when neither file exists.
func ProjectConfigPath(dir string) string {
	yamlPath := filepath.Join(dir, ".ctxindex.yaml")
	if fileExists(yamlPath) {
		return yamlPath
	}
	ymlPath := filepath.Join(dir, ".ctxindex.yml")
	if fileExists(ymlPath) {
		return ymlPath
	}
	return yamlPath
}

// Load loads configuration for the project in dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/ctxindex/config.yaml)
//  3. Project config (.ctxindex.yaml in dir)
//  4. Environment variables (CTXINDEX_*)
func Load(dir string) (*Config, error) {
	return LoadFile(ProjectConfigPath(dir))
}

// LoadFile is Load with an explicit project config file. A missing file is
// not an error.
func LoadFile(path string) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, err
		}
	}

	if path != "" && fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return cerrors.ConfigError(fmt.Sprintf("failed to read config file %s", path), err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return cerrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err).
			WithDetail("path", path)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c. Index lists replace,
// settings merge per key, deny rules accumulate.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.DataDir != "" {
		c.DataDir = other.DataDir
	}

	if other.Content.DBPath != "" {
		c.Content.DBPath = other.Content.DBPath
	}
	if other.Content.CacheSize != 0 {
		c.Content.CacheSize = other.Content.CacheSize
	}
	c.Content.Deny = append(c.Content.Deny, other.Content.Deny...)

	if len(other.Indexes) > 0 {
		c.Indexes = other.Indexes
	}

	if c.Settings == nil {
		c.Settings = map[string]string{}
	}
	for k, v := range other.Settings {
		c.Settings[k] = v
	}

	if other.Performance.Workers != 0 {
		c.Performance.Workers = other.Performance.Workers
	}
	if other.Performance.WatchDebounce != "" {
		c.Performance.WatchDebounce = other.Performance.WatchDebounce
	}

	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
	if other.Server.MetricsAddr != "" {
		c.Server.MetricsAddr = other.Server.MetricsAddr
	}
}

// applyEnvOverrides applies CTXINDEX_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CTXINDEX_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("CTXINDEX_DB_PATH"); v != "" {
		c.Content.DBPath = v
	}
	if v := os.Getenv("CTXINDEX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Performance.Workers = n
		}
	}
	if v := os.Getenv("CTXINDEX_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("CTXINDEX_METRICS_ADDR"); v != "" {
		c.Server.MetricsAddr = v
	}
	if v := os.Getenv("CTXINDEX_DEFAULT_INDEX_TYPE"); v != "" {
		if c.Settings == nil {
			c.Settings = map[string]string{}
		}
		c.Settings[DefaultIndexTypeSetting] = v
	}
}

// WatchDebounce returns the parsed debounce interval.
func (c *Config) WatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Performance.WatchDebounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// Validate validates the configuration and returns an error if invalid.
// Index types are checked when indexes are opened.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return cerrors.New(cerrors.ErrCodeConfigInvalid, fmt.Sprintf(format, args...), nil)
	}

	if c.Content.CacheSize < 0 {
		return invalid("content.cache_size must be non-negative, got %d", c.Content.CacheSize)
	}
	if c.Performance.Workers < 0 {
		return invalid("performance.workers must be non-negative, got %d", c.Performance.Workers)
	}
	if c.Performance.WatchDebounce != "" {
		if _, err := time.ParseDuration(c.Performance.WatchDebounce); err != nil {
			return invalid("performance.watch_debounce is not a duration: %s", c.Performance.WatchDebounce)
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return invalid("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	for i, rule := range c.Content.Deny {
		if rule.Database == "" || !strings.HasPrefix(rule.Path, "/") {
			return invalid("content.deny[%d] needs a database and an absolute path", i)
		}
	}

	seen := make(map[string]bool, len(c.Indexes))
	for i, idx := range c.Indexes {
		if strings.TrimSpace(idx.Name) == "" {
			return invalid("indexes[%d] has no name", i)
		}
		if seen[idx.Name] {
			return invalid("index %s is declared twice", idx.Name)
		}
		seen[idx.Name] = true
		if idx.Type == "" {
			return invalid("index %s has no type", idx.Name)
		}
		for j, cr := range idx.Crawlers {
			if cr.Database == "" || !strings.HasPrefix(cr.Root, "/") {
				return invalid("index %s crawler %d needs a database and an absolute root", idx.Name, j)
			}
		}
	}

	return nil
}

// Index returns the named index configuration.
func (c *Config) Index(name string) (IndexConfig, bool) {
	for _, idx := range c.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexConfig{}, false
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
