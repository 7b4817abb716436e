// Package batch resolves and indexes many content items concurrently.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/ctxindex/internal/content"
	cerrors "github.com/Aman-CERP/ctxindex/internal/errors"
	"github.com/Aman-CERP/ctxindex/internal/searchindex"
	"github.com/Aman-CERP/ctxindex/pkg/resolver"
)

// Outcomes reported per item.
const (
	OutcomeResolved   = "resolved"
	OutcomeIndexed    = "indexed"
	OutcomeUnresolved = "unresolved"
	OutcomeFailed     = "failed"
)

// Explainer resolves an indexable with diagnostics. *resolver.Resolver
// implements it.
type Explainer interface {
	Explain(ctx context.Context, indexable resolver.Indexable) resolver.Explanation
}

// IndexLookup finds an index by name. *registry.Registry implements it.
type IndexLookup interface {
	Index(name string) (searchindex.Index, bool)
}

// Observer receives per-item outcomes.
type Observer interface {
	ObserveBatchItem(outcome string)
}

// Result is the outcome for one item.
type Result struct {
	Item    *content.Item
	Index   string
	Reason  resolver.Reason
	Outcome string
	Err     error
}

// Report summarizes a run. Results follow input order.
type Report struct {
	RunID    string
	Results  []Result
	Counts   map[string]int
	Duration time.Duration
}

// Runner fans work out over a bounded number of goroutines.
type Runner struct {
	explainer Explainer
	indexes   IndexLookup
	workers   int
	logger    *slog.Logger
	observer  Observer
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers bounds concurrency. Defaults to runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver registers an observer for item outcomes.
func WithObserver(o Observer) Option {
	return func(r *Runner) {
		r.observer = o
	}
}

// New creates a Runner. indexes may be nil when only Resolve is used.
func New(explainer Explainer, indexes IndexLookup, opts ...Option) *Runner {
	r := &Runner{
		explainer: explainer,
		indexes:   indexes,
		workers:   runtime.NumCPU(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds the owning index of every item.
func (r *Runner) Resolve(ctx context.Context, items []*content.Item) (*Report, error) {
	return r.run(ctx, "resolve", items, func(ctx context.Context, it *content.Item) Result {
		exp := r.explainer.Explain(ctx, content.NewIndexable(it))
		res := Result{Item: it, Index: exp.IndexName, Reason: exp.Reason, Outcome: OutcomeResolved}
		if exp.Reason == resolver.ReasonNone {
			res.Outcome = OutcomeUnresolved
		}
		return res
	})
}

// Index resolves every item and adds it to its index. Items without an
// owner are skipped; failures are reported per item and do not stop the run.
func (r *Runner) Index(ctx context.Context, items []*content.Item) (*Report, error) {
	if r.indexes == nil {
		return nil, fmt.Errorf("batch indexing requires an index lookup")
	}
	return r.run(ctx, "index", items, func(ctx context.Context, it *content.Item) Result {
		exp := r.explainer.Explain(ctx, content.NewIndexable(it))
		res := Result{Item: it, Index: exp.IndexName, Reason: exp.Reason}
		if exp.Reason == resolver.ReasonNone {
			res.Outcome = OutcomeUnresolved
			return res
		}

		idx, ok := r.indexes.Index(exp.IndexName)
		if !ok {
			res.Outcome = OutcomeFailed
			res.Err = cerrors.New(cerrors.ErrCodeIndexFailed,
				fmt.Sprintf("index %s is not registered", exp.IndexName), nil)
			return res
		}
		if err := idx.Add(ctx, searchindex.DocumentFromItem(it)); err != nil {
			res.Outcome = OutcomeFailed
			res.Err = cerrors.New(cerrors.ErrCodeIndexFailed,
				fmt.Sprintf("add %s to %s", it.Path, idx.Name()), err)
			return res
		}
		res.Outcome = OutcomeIndexed
		return res
	})
}

func (r *Runner) run(ctx context.Context, op string, items []*content.Item, fn func(context.Context, *content.Item) Result) (*Report, error) {
	start := time.Now()
	report := &Report{
		RunID:   uuid.NewString(),
		Results: make([]Result, len(items)),
		Counts:  make(map[string]int),
	}
	logger := r.logger.With(slog.String("run_id", report.RunID), slog.String("op", op))
	logger.Debug("batch started", slog.Int("items", len(items)), slog.Int("workers", r.workers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, it := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report.Results[i] = fn(gctx, it)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, res := range report.Results {
		report.Counts[res.Outcome]++
		if r.observer != nil {
			r.observer.ObserveBatchItem(res.Outcome)
		}
		if res.Err != nil {
			attrs := append([]slog.Attr{slog.String("path", res.Item.Path)}, cerrors.LogAttrs(res.Err)...)
			logger.LogAttrs(ctx, slog.LevelWarn, "batch item failed", attrs...)
		}
	}
	report.Duration = time.Since(start)

	logger.Info("batch finished",
		slog.Int("items", len(items)),
		slog.Any("counts", report.Counts),
		slog.Duration("duration", report.Duration))
	return report, nil
}
