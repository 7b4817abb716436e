package content

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleTree = `
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

// newSampleStore returns an in-memory store loaded with sampleTree.
func newSampleStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	n, err := Import(context.Background(), st, strings.NewReader(sampleTree), ImportOptions{})
	require.NoError(t, err)
	require.Equal(t, 5, n)
	return st
}
