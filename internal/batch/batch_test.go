package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/ctxindex/internal/content"
	cerrors "github.com/Aman-CERP/ctxindex/internal/errors"
	"github.com/Aman-CERP/ctxindex/internal/searchindex"
	"github.com/Aman-CERP/ctxindex/pkg/resolver"
)

var errDiskFull = errors.New("disk full")

// byPrefix resolves items to the index named after the first path segment.
type byPrefix struct {
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (b *byPrefix) Explain(ctx context.Context, indexable resolver.Indexable) resolver.Explanation {
	b.calls.Add(1)
	n := b.inFlight.Add(1)
	defer b.inFlight.Add(-1)
	for {
		m := b.maxSeen.Load()
		if n <= m || b.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}

	switch p := indexable.AbsolutePath(); {
	case len(p) > 4 && p[:4] == "/web":
		return resolver.Explanation{IndexName: "web_index", Reason: resolver.ReasonSingle}
	case len(p) > 7 && p[:7] == "/master":
		return resolver.Explanation{IndexName: "master_index", Reason: resolver.ReasonBestRank}
	case len(p) > 6 && p[:6] == "/ghost":
		return resolver.Explanation{IndexName: "ghost_index", Reason: resolver.ReasonSingle}
	default:
		return resolver.Explanation{Reason: resolver.ReasonNone}
	}
}

type lookup map[string]searchindex.Index

func (l lookup) Index(name string) (searchindex.Index, bool) {
	idx, ok := l[name]
	return idx, ok
}

type failingIndex struct {
	*searchindex.MemoryIndex
}

func (failingIndex) Add(context.Context, searchindex.Document) error {
	return errDiskFull
}

type outcomes struct {
	mu  sync.Mutex
	got map[string]int
}

func (o *outcomes) ObserveBatchItem(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.got == nil {
		o.got = map[string]int{}
	}
	o.got[outcome]++
}

func items(paths ...string) []*content.Item {
	out := make([]*content.Item, len(paths))
	for i, p := range paths {
		out[i] = &content.Item{ID: fmt.Sprintf("{%d}", i), Database: "master", Path: p, Name: "n"}
	}
	return out
}

func TestResolve_KeepsInputOrder(t *testing.T) {
	// Given: many items and a small worker pool
	var paths []string
	for i := 0; i < 50; i++ {
		paths = append(paths, fmt.Sprintf("/web/%d", i), fmt.Sprintf("/master/%d", i), "/other")
	}
	ex := &byPrefix{}
	r := New(ex, nil, WithWorkers(3))

	// When: resolving
	report, err := r.Resolve(context.Background(), items(paths...))

	// Then: results line up with the input and concurrency stayed bounded
	require.NoError(t, err)
	require.Len(t, report.Results, 150)
	for i, res := range report.Results {
		assert.Equal(t, paths[i], res.Item.Path)
	}
	assert.Equal(t, "web_index", report.Results[0].Index)
	assert.Equal(t, resolver.ReasonBestRank, report.Results[1].Reason)
	assert.Equal(t, OutcomeUnresolved, report.Results[2].Outcome)
	assert.Equal(t, map[string]int{OutcomeResolved: 100, OutcomeUnresolved: 50}, report.Counts)
	assert.LessOrEqual(t, ex.maxSeen.Load(), int32(3))
	_, err = uuid.Parse(report.RunID)
	assert.NoError(t, err)
}

func TestIndex_RoutesItems(t *testing.T) {
	// Given: two indexes, one failing
	web := searchindex.NewMemoryIndex("web_index", nil)
	master := failingIndex{searchindex.NewMemoryIndex("master_index", nil)}
	obs := &outcomes{}
	r := New(&byPrefix{}, lookup{"web_index": web, "master_index": master}, WithObserver(obs))

	// When: indexing a mix of items
	report, err := r.Index(context.Background(), items("/web/a", "/web/b", "/master/a", "/ghost/a", "/none"))

	// Then: each item gets its own outcome and the run finishes
	require.NoError(t, err)
	assert.Equal(t, OutcomeIndexed, report.Results[0].Outcome)
	assert.Equal(t, OutcomeFailed, report.Results[2].Outcome)
	assert.ErrorIs(t, report.Results[2].Err, errDiskFull)
	assert.Equal(t, cerrors.ErrCodeIndexFailed, cerrors.GetCode(report.Results[2].Err))
	assert.Equal(t, OutcomeFailed, report.Results[3].Outcome)
	assert.Equal(t, OutcomeUnresolved, report.Results[4].Outcome)

	n, err := web.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, map[string]int{OutcomeIndexed: 2, OutcomeFailed: 2, OutcomeUnresolved: 1}, obs.got)
}

func TestIndex_FailureLogCarriesErrorCode(t *testing.T) {
	// Given: a runner logging JSON into a buffer and an index that cannot write
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	master := failingIndex{searchindex.NewMemoryIndex("master_index", nil)}
	r := New(&byPrefix{}, lookup{"master_index": master}, WithLogger(logger))

	// When: an item fails to index
	_, err := r.Index(context.Background(), items("/master/a"))
	require.NoError(t, err)

	// Then: the warning names the path, the code and the underlying cause
	out := buf.String()
	assert.Contains(t, out, `"msg":"batch item failed"`)
	assert.Contains(t, out, `"path":"/master/a"`)
	assert.Contains(t, out, `"error_code":"`+cerrors.ErrCodeIndexFailed+`"`)
	assert.Contains(t, out, `"category":"INTERNAL"`)
	assert.Contains(t, out, `"cause":"disk full"`)
}

func TestIndex_RequiresLookup(t *testing.T) {
	_, err := New(&byPrefix{}, nil).Index(context.Background(), items("/web/a"))
	assert.Error(t, err)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(&byPrefix{}, nil).Resolve(ctx, items("/web/a", "/web/b"))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_Empty(t *testing.T) {
	report, err := New(&byPrefix{}, nil).Resolve(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Empty(t, report.Counts)
}
