package content

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	cerrors "github.com/Aman-CERP/ctxindex/internal/errors"
)

// TreeFile is the YAML layout accepted by Import.
//
//	database: master
//	items:
//	  - name: sitecore
//	    children:
//	      - name: content
//	        template: folder
type TreeFile struct {
	Database string     `yaml:"database"`
	Items    []TreeNode `yaml:"items"`
}

// TreeNode is one item of a TreeFile. ID is generated when empty.
type TreeNode struct {
	ID       string     `yaml:"id"`
	Name     string     `yaml:"name"`
	Template string     `yaml:"template"`
	Children []TreeNode `yaml:"children"`
}

// ImportOptions configures Import.
type ImportOptions struct {
	// LockPath, when set, is the database file guarded by a FileLock for the
	// duration of the import.
	LockPath string

	// Database overrides the database named in the file.
	Database string
}

// Import loads a YAML content tree into st and returns the number of items
// written. Parents are always written before their children.
func Import(ctx context.Context, st Store, r io.Reader, opts ImportOptions) (int, error) {
	var tree TreeFile
	if err := yaml.NewDecoder(r).Decode(&tree); err != nil {
		return 0, cerrors.ValidationError("parse content tree", err)
	}
	if opts.Database != "" {
		tree.Database = opts.Database
	}
	if tree.Database == "" {
		return 0, cerrors.ValidationError("content tree has no database", nil)
	}

	if opts.LockPath != "" {
		lock := NewFileLock(opts.LockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return 0, cerrors.StoreError("lock content store", err)
		}
		if !ok {
			return 0, cerrors.New(cerrors.ErrCodeStoreLocked, "content store is locked by another import", nil).
				WithSuggestion("Wait for the running import to finish")
		}
		defer func() { _ = lock.Unlock() }()
	}

	n := 0
	var walk func(parentID string, nodes []TreeNode) error
	walk = func(parentID string, nodes []TreeNode) error {
		for _, node := range nodes {
			if err := ctx.Err(); err != nil {
				return err
			}
			id := node.ID
			if id == "" {
				id = NewID()
			}
			it := &Item{
				ID:       id,
				Name:     node.Name,
				Database: tree.Database,
				ParentID: parentID,
				Template: node.Template,
			}
			if err := st.Put(ctx, it); err != nil {
				return fmt.Errorf("import %s: %w", node.Name, err)
			}
			n++
			if err := walk(id, node.Children); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk("", tree.Items); err != nil {
		return n, err
	}

	slog.Info("content imported",
		slog.String("database", tree.Database),
		slog.Int("items", n))
	return n, nil
}

// NewID returns a new braced, upper-case item ID.
func NewID() string {
	return "{" + strings.ToUpper(uuid.NewString()) + "}"
}
