package content

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/Aman-CERP/ctxindex/internal/errors"
)

func TestSQLiteStore_PutDerivesTreePosition(t *testing.T) {
	// Given: the sample tree
	st := newSampleStore(t)
	ctx := context.Background()

	// When: reading a nested item
	about, err := st.Get(ctx, "master", "{ABOUT}")

	// Then: path, long id and level follow the parent chain
	require.NoError(t, err)
	assert.Equal(t, "/sitecore/content/home/about", about.Path)
	assert.Equal(t, "/{ROOT}/{CONTENT}/{HOME}/{ABOUT}", about.LongID)
	assert.Equal(t, 3, about.Level)
	assert.Equal(t, "page", about.Template)

	root, err := st.Get(ctx, "master", "{ROOT}")
	require.NoError(t, err)
	assert.Equal(t, 0, root.Level)
	assert.Equal(t, "/{ROOT}", root.LongID)
}

func TestSQLiteStore_GetByPath_IgnoresCase(t *testing.T) {
	st := newSampleStore(t)

	it, err := st.GetByPath(context.Background(), "MASTER", "/Sitecore/Content/Home/")

	require.NoError(t, err)
	assert.Equal(t, "{HOME}", it.ID)
}

func TestSQLiteStore_MissingItem(t *testing.T) {
	st := newSampleStore(t)

	_, err := st.GetByPath(context.Background(), "master", "/sitecore/content/missing")

	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeItemNotFound, cerrors.GetCode(err))

	_, err = st.Get(context.Background(), "web", "{HOME}")
	assert.Equal(t, cerrors.ErrCodeItemNotFound, cerrors.GetCode(err))
}

func TestSQLiteStore_ChildrenAndItems(t *testing.T) {
	st := newSampleStore(t)
	ctx := context.Background()

	children, err := st.Children(ctx, "master", "{ROOT}")
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "content", children[0].Name)
	assert.Equal(t, "system", children[1].Name)

	all, err := st.Items(ctx, "master")
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "/sitecore", all[0].Path)

	none, err := st.Items(ctx, "web")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteStore_PutValidates(t *testing.T) {
	st := newSampleStore(t)
	ctx := context.Background()

	err := st.Put(ctx, &Item{ID: "{X}", Database: "master"})
	assert.Equal(t, cerrors.ErrCodeInvalidInput, cerrors.GetCode(err))

	err = st.Put(ctx, &Item{ID: "{X}", Name: "a/b", Database: "master"})
	assert.Equal(t, cerrors.ErrCodeInvalidPath, cerrors.GetCode(err))

	err = st.Put(ctx, &Item{ID: "{X}", Name: "orphan", Database: "master", ParentID: "{NOPE}"})
	assert.Equal(t, cerrors.ErrCodeItemNotFound, cerrors.GetCode(err))
}

func TestSQLiteStore_PersistsToDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.db")
	ctx := context.Background()

	st, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, st.Put(ctx, &Item{ID: "{R}", Name: "sitecore", Database: "web"}))
	require.NoError(t, st.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	it, err := reopened.GetByPath(ctx, "web", "/sitecore")
	require.NoError(t, err)
	assert.Equal(t, "{R}", it.ID)
	assert.Equal(t, path, reopened.Path())
}

func TestSQLiteStore_ClosedStore(t *testing.T) {
	st, err := NewSQLiteStore("")
	require.NoError(t, err)
	require.NoError(t, st.Close())
	require.NoError(t, st.Close())

	_, err = st.Get(context.Background(), "master", "{R}")
	assert.Equal(t, cerrors.ErrCodeStoreFailed, cerrors.GetCode(err))
}
