package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/ctxindex/internal/config"
	"github.com/Aman-CERP/ctxindex/internal/content"
	cerrors "github.com/Aman-CERP/ctxindex/internal/errors"
	"github.com/Aman-CERP/ctxindex/internal/telemetry"
)

const testTree = `
database: master
items:
  - name: sitecore
    id: "{ROOT}"
    children:
      - name: content
        id: "{CONTENT}"
        children:
          - name: home
            id: "{HOME}"
            template: page
            children:
              - name: about
                id: "{ABOUT}"
                template: page
      - name: system
        id: "{SYSTEM}"
`

// project is an isolated working area with a config file and a content tree.
type project struct {
	dir      string
	cfgPath  string
	treePath string
}

func newProject(t *testing.T) *project {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))

	p := &project{
		dir:      dir,
		cfgPath:  filepath.Join(dir, ".ctxindex.yaml"),
		treePath: filepath.Join(dir, "tree.yaml"),
	}

	cfg := `version: 1
data_dir: ` + filepath.Join(dir, "indexes") + `
content:
  db_path: ` + filepath.Join(dir, "content.db") + `
  cache_size: 100
indexes:
  - name: master_index
    type: bleve
    crawlers:
      - database: master
        root: /sitecore
  - name: content_index
    type: sqlite
    crawlers:
      - database: master
        root: /sitecore/content
settings:
  ContentSearch.DefaultIndexType: sqlite
performance:
  workers: 2
`
	require.NoError(t, os.WriteFile(p.cfgPath, []byte(cfg), 0o644))
	require.NoError(t, os.WriteFile(p.treePath, []byte(testTree), 0o644))
	return p
}

// run executes the root command and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func (p *project) importTree(t *testing.T) {
	t.Helper()
	out, err := run(t, "--config", p.cfgPath, "import", p.treePath)
	require.NoError(t, err)
	require.Contains(t, out, "Imported 5 items")
}

// mustLock holds the import lock of the store at dbPath until the returned
// function is called.
func mustLock(t *testing.T, dbPath string) func() {
	t.Helper()
	lock := content.NewFileLock(dbPath)
	ok, err := lock.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	return func() { _ = lock.Unlock() }
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	root := NewRootCmd()

	for _, name := range []string{"resolve", "index", "indexes", "import", "serve", "config", "version"} {
		sub, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestRootCmd_ShowsHelp(t *testing.T) {
	out, err := run(t, "--help")

	require.NoError(t, err)
	assert.Contains(t, out, "ctxindex")
	assert.Contains(t, out, "resolve")
	assert.Contains(t, out, "--debug")
}

func TestPrintError(t *testing.T) {
	coded := cerrors.StoreError("open store", errors.New("permission denied")).
		WithDetail("database", "master").
		WithSuggestion("Check file permissions")

	tests := []struct {
		name    string
		err     error
		debug   bool
		want    []string
		notWant []string
	}{
		{"coded", coded, false,
			[]string{"Error: open store", "Hint: Check file permissions", "Code: " + cerrors.ErrCodeStoreFailed},
			[]string{"Cause:", "database: master"}},
		{"coded with debug", coded, true,
			[]string{"Cause: permission denied", "database: master"}, nil},
		{"plain", errors.New("accepts 1 arg(s)"), true,
			[]string{"Error: accepts 1 arg(s)\n"}, []string{"Code:"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			printError(&buf, tt.err, tt.debug)

			for _, s := range tt.want {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.notWant {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

func TestImport_LockedStoreFails(t *testing.T) {
	// Given: a project whose store lock is held
	p := newProject(t)
	lockPath := filepath.Join(p.dir, "content.db")
	held := mustLock(t, lockPath)
	defer held()

	// When: importing
	_, err := run(t, "--config", p.cfgPath, "import", p.treePath)

	// Then: the import is refused
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERR_204")
}

func TestResolve_Table(t *testing.T) {
	p := newProject(t)
	p.importTree(t)

	// When: resolving two items
	out, err := run(t, "--config", p.cfgPath, "resolve", "/sitecore/content/home", "/sitecore/system")

	// Then: each is routed to the closest index
	require.NoError(t, err)
	assert.Contains(t, out, "PATH")
	assert.Regexp(t, `/sitecore/content/home\s+content_index\s+best-rank`, out)
	assert.Regexp(t, `/sitecore/system\s+master_index\s+single`, out)
}

func TestResolve_ExplainJSON(t *testing.T) {
	p := newProject(t)
	p.importTree(t)

	// When: resolving with explain as JSON, including a missing path
	out, err := run(t, "--config", p.cfgPath, "resolve", "--explain", "--json",
		"/sitecore/content/home/about", "/sitecore/missing")

	// Then: the command fails for the missing path but still reports both
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 paths")

	var results []resolution
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)

	about := results[0]
	assert.Equal(t, "content_index", about.Index)
	assert.Equal(t, "best-rank", string(about.Reason))
	require.Len(t, about.Candidates, 2)
	assert.Equal(t, "content_index", about.Candidates[0].Index)
	require.NotNil(t, about.Candidates[0].Rank)
	assert.Equal(t, 2, *about.Candidates[0].Rank)
	require.NotNil(t, about.Candidates[1].Rank)
	assert.Equal(t, 3, *about.Candidates[1].Rank)

	assert.Contains(t, results[1].Error, "ERR_201")
	require.NotNil(t, results[1].Problem)
	assert.Equal(t, "ERR_201_ITEM_NOT_FOUND", results[1].Problem.Code)
	assert.Equal(t, "STORE", string(results[1].Problem.Category))
	assert.Equal(t, "master", results[1].Problem.Details["database"])
	assert.Nil(t, about.Problem)
}

func TestIndex_ThenIndexes(t *testing.T) {
	p := newProject(t)
	p.importTree(t)

	// When: indexing the master database
	out, err := run(t, "--config", p.cfgPath, "index", "--json", "--workers", "3")
	require.NoError(t, err)

	// Then: every item is added to its owning index
	var summary batchSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 5, summary.Items)
	assert.Equal(t, 5, summary.Counts["indexed"])
	assert.Empty(t, summary.Problems)

	// And: the persistent indexes report their documents
	out, err = run(t, "--config", p.cfgPath, "indexes", "--json")
	require.NoError(t, err)
	var rows []indexRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, indexRow{Name: "master_index", Type: "bleve", Crawlers: []string{"master:/sitecore"}, Documents: 2}, rows[0])
	assert.Equal(t, indexRow{Name: "content_index", Type: "sqlite", Crawlers: []string{"master:/sitecore/content"}, Documents: 3}, rows[1])
}

func TestIndex_EmptyDatabase(t *testing.T) {
	p := newProject(t)
	p.importTree(t)

	out, err := run(t, "--config", p.cfgPath, "index", "--db", "web")

	require.NoError(t, err)
	assert.Contains(t, out, "No items in database web")
}

func TestIndexes_Table(t *testing.T) {
	p := newProject(t)

	out, err := run(t, "--config", p.cfgPath, "indexes")

	require.NoError(t, err)
	assert.Regexp(t, `master_index\s+bleve\s+0\s+master:/sitecore`, out)
	assert.Regexp(t, `content_index\s+sqlite\s+0\s+master:/sitecore/content`, out)
}

func TestInvalidConfig_FailsCommands(t *testing.T) {
	p := newProject(t)
	require.NoError(t, os.WriteFile(p.cfgPath, []byte("indexes:\n  - name: x\n"), 0o644))

	_, err := run(t, "--config", p.cfgPath, "indexes")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERR_102")
}

func TestMissingConfigFile_Fails(t *testing.T) {
	p := newProject(t)

	_, err := run(t, "--config", filepath.Join(p.dir, "missing.yaml"), "indexes")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERR_101")
}

func TestConfigInit_WritesBacksUpAndRefuses(t *testing.T) {
	p := newProject(t)
	userPath := config.GetUserConfigPath()

	// When: creating the user config
	out, err := run(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Created configuration")
	data, err := os.ReadFile(userPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ContentSearch.DefaultIndexType")

	// Then: a second init without --force leaves it alone
	out, err = run(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	// And: --force keeps a backup
	out, err = run(t, "config", "init", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Backup:")
	backups, err := config.ListBackups(userPath)
	require.NoError(t, err)
	assert.Len(t, backups, 1)

	// And: --project writes the project file
	projectPath := filepath.Join(p.dir, "other.yaml")
	_, err = run(t, "--config", projectPath, "config", "init", "--project")
	require.NoError(t, err)
	assert.FileExists(t, projectPath)
}

func TestConfigTemplate_IsValid(t *testing.T) {
	p := newProject(t)
	path := filepath.Join(p.dir, "template.yaml")
	_, err := run(t, "--config", path, "config", "init", "--project")
	require.NoError(t, err)

	cfg, err := config.LoadFile(path)

	require.NoError(t, err)
	require.Len(t, cfg.Indexes, 2)
	assert.Equal(t, "sqlite", cfg.Settings[config.DefaultIndexTypeSetting])
}

func TestConfigShow(t *testing.T) {
	p := newProject(t)

	t.Run("merged json", func(t *testing.T) {
		out, err := run(t, "--config", p.cfgPath, "config", "show", "--json")
		require.NoError(t, err)
		var cfg config.Config
		require.NoError(t, json.Unmarshal([]byte(out), &cfg))
		assert.Len(t, cfg.Indexes, 2)
		assert.Equal(t, 2, cfg.Performance.Workers)
	})

	t.Run("defaults yaml", func(t *testing.T) {
		out, err := run(t, "config", "show", "--source", "defaults")
		require.NoError(t, err)
		assert.Contains(t, out, "Configuration (defaults)")
		assert.Contains(t, out, "log_level: info")
	})

	t.Run("unknown source", func(t *testing.T) {
		_, err := run(t, "config", "show", "--source", "user")
		require.Error(t, err)
	})
}

func TestConfigPath(t *testing.T) {
	p := newProject(t)

	out, err := run(t, "--config", p.cfgPath, "config", "path")

	require.NoError(t, err)
	assert.Contains(t, out, config.GetUserConfigPath())
	assert.Contains(t, out, p.cfgPath)
}

func TestServe_UnknownTransport(t *testing.T) {
	// Given: a valid project
	p := newProject(t)
	opts := &rootOptions{configPath: p.cfgPath}

	// When: serving over an unsupported transport
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := opts.runServe(ctx, "sse", "", false)

	// Then: startup fails without blocking
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport")
}

func TestServeMetrics(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		serveMetrics(ctx, ln, telemetry.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))
		close(done)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "ctxindex_resolver_candidates"))

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("metrics server did not stop")
	}
}
