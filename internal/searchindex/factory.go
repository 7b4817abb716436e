package searchindex

import (
	"fmt"
	"path/filepath"

	cerrors "github.com/Aman-CERP/ctxindex/internal/errors"
	"github.com/Aman-CERP/ctxindex/pkg/resolver"
)

// Open creates an index of the named type. Persistent kinds store their
// data under dataDir; an empty dataDir keeps everything in memory.
func Open(types *Types, typeName, name, dataDir string, crawlers []resolver.Crawler) (Index, error) {
	handle, ok := types.LookupType(typeName)
	if !ok {
		return nil, cerrors.New(cerrors.ErrCodeConfigInvalid,
			fmt.Sprintf("unknown index type %q for index %s", typeName, name), nil).
			WithSuggestion(fmt.Sprintf("Use one of: %v", types.Names()))
	}

	switch handle {
	case TypeBleve:
		return NewBleveIndex(name, dataPath(dataDir, name+".bleve"), crawlers)
	case TypeSQLite:
		return NewSQLiteIndex(name, dataPath(dataDir, name+".db"), crawlers)
	default:
		return NewMemoryIndex(name, crawlers), nil
	}
}

func dataPath(dir, file string) string {
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, file)
}
