package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/Aman-CERP/ctxindex/internal/errors"
)

// isolate points the user config at an empty directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

const projectYAML = `
version: 1
content:
  db_path: /tmp/ctx/content.db
  deny:
    - database: master
      path: /sitecore/system
indexes:
  - name: master_index
    type: bleve
    crawlers:
      - database: master
        root: /sitecore
  - name: web_index
    type: sqlite
    crawlers:
      - database: web
        root: /sitecore/content
        exclude_templates: [folder]
settings:
  ContentSearch.DefaultIndexType: bleve
`

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	// Given: no configuration file exists
	cfg := NewConfig()

	// Then: all defaults should be applied
	require.NotNil(t, cfg)
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, 1000, cfg.Content.CacheSize)
	assert.Equal(t, "content.db", filepath.Base(cfg.Content.DBPath))
	assert.Equal(t, "indexes", filepath.Base(cfg.DataDir))
	assert.Empty(t, cfg.Indexes)
	assert.NotNil(t, cfg.Settings)
	assert.Equal(t, runtime.NumCPU(), cfg.Performance.Workers)
	assert.Equal(t, 500*time.Millisecond, cfg.WatchDebounce())
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)
}

func TestLoad_ProjectFile(t *testing.T) {
	// Given: a project config declaring two indexes
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".ctxindex.yaml"), projectYAML)

	// When: loading configuration
	cfg, err := Load(dir)

	// Then: indexes, settings and deny rules are read
	require.NoError(t, err)
	require.Len(t, cfg.Indexes, 2)
	assert.Equal(t, "/tmp/ctx/content.db", cfg.Content.DBPath)
	assert.Equal(t, "bleve", cfg.Settings[DefaultIndexTypeSetting])
	require.Len(t, cfg.Content.Deny, 1)

	web, ok := cfg.Index("web_index")
	require.True(t, ok)
	assert.Equal(t, []string{"folder"}, web.Crawlers[0].ExcludeTemplates)

	_, ok = cfg.Index("missing")
	assert.False(t, ok)
}

func TestLoad_YmlExtension_IsRecognized(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".ctxindex.yml"), "server:\n  log_level: debug\n")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, filepath.Join(dir, ".ctxindex.yml"), ProjectConfigPath(dir))
}

func TestLoad_YamlPreferredOverYml(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".ctxindex.yml"), "server:\n  log_level: debug\n")
	writeFile(t, filepath.Join(dir, ".ctxindex.yaml"), "server:\n  log_level: warn\n")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Server.LogLevel)
}

func TestLoad_InvalidYaml_ReturnsConfigError(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".ctxindex.yaml"), "indexes: [\n")

	_, err := Load(dir)

	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeConfigInvalid, cerrors.GetCode(err))
}

func TestLoad_UserThenProjectThenEnv(t *testing.T) {
	// Given: all three config sources exist
	userDir := isolate(t)
	projectDir := t.TempDir()
	writeFile(t, filepath.Join(userDir, "ctxindex", "config.yaml"), `
data_dir: /user/data
settings:
  ContentSearch.DefaultIndexType: sqlite
  Other: user
server:
  log_level: warn
`)
	writeFile(t, filepath.Join(projectDir, ".ctxindex.yaml"), `
settings:
  Other: project
server:
  log_level: error
`)
	t.Setenv("CTXINDEX_DEFAULT_INDEX_TYPE", "memory")
	t.Setenv("CTXINDEX_WORKERS", "3")

	// When: loading configuration
	cfg, err := Load(projectDir)

	// Then: each layer overrides the one before it, key by key
	require.NoError(t, err)
	assert.Equal(t, "/user/data", cfg.DataDir)
	assert.Equal(t, "error", cfg.Server.LogLevel)
	assert.Equal(t, "project", cfg.Settings["Other"])
	assert.Equal(t, "memory", cfg.Settings[DefaultIndexTypeSetting])
	assert.Equal(t, 3, cfg.Performance.Workers)
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("CTXINDEX_DB_PATH", "/env/content.db")
	t.Setenv("CTXINDEX_DATA_DIR", "/env/indexes")
	t.Setenv("CTXINDEX_LOG_LEVEL", "debug")
	t.Setenv("CTXINDEX_METRICS_ADDR", ":9100")
	t.Setenv("CTXINDEX_WORKERS", "not-a-number")

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, "/env/content.db", cfg.Content.DBPath)
	assert.Equal(t, "/env/indexes", cfg.DataDir)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, ":9100", cfg.Server.MetricsAddr)
	assert.Equal(t, runtime.NumCPU(), cfg.Performance.Workers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative cache", func(c *Config) { c.Content.CacheSize = -1 }},
		{"negative workers", func(c *Config) { c.Performance.Workers = -2 }},
		{"bad debounce", func(c *Config) { c.Performance.WatchDebounce = "soon" }},
		{"bad log level", func(c *Config) { c.Server.LogLevel = "loud" }},
		{"relative deny path", func(c *Config) {
			c.Content.Deny = []AccessRule{{Database: "master", Path: "sitecore"}}
		}},
		{"unnamed index", func(c *Config) { c.Indexes = []IndexConfig{{Type: "bleve"}} }},
		{"untyped index", func(c *Config) { c.Indexes = []IndexConfig{{Name: "a"}} }},
		{"duplicate index", func(c *Config) {
			c.Indexes = []IndexConfig{{Name: "a", Type: "bleve"}, {Name: "a", Type: "sqlite"}}
		}},
		{"crawler without database", func(c *Config) {
			c.Indexes = []IndexConfig{{Name: "a", Type: "bleve", Crawlers: []CrawlerConfig{{Root: "/sitecore"}}}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.modify(cfg)

			err := cfg.Validate()

			require.Error(t, err)
			assert.Equal(t, cerrors.ErrCodeConfigInvalid, cerrors.GetCode(err))
		})
	}
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".ctxindex.yaml"), projectYAML)
	cfg, err := Load(dir)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, cfg.WriteYAML(out))

	reloaded, err := LoadFile(out)
	require.NoError(t, err)
	assert.Equal(t, cfg.Indexes, reloaded.Indexes)
	assert.Equal(t, cfg.Settings, reloaded.Settings)
}

func TestGetUserConfigPath_RespectsXDGConfigHome(t *testing.T) {
	dir := isolate(t)

	assert.Equal(t, filepath.Join(dir, "ctxindex", "config.yaml"), GetUserConfigPath())
	assert.False(t, UserConfigExists())
}
