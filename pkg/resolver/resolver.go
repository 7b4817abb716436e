package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	cerrors "github.com/Aman-CERP/ctxindex/internal/errors"
	"github.com/Aman-CERP/ctxindex/internal/scope"
)

// ErrNilRegistry is returned when creating a Resolver without a registry.
var ErrNilRegistry = errors.New("index registry is required")

// Reason explains how the resolved index was selected.
type Reason string

const (
	// ReasonNone means no index covers the indexable.
	ReasonNone Reason = "none"
	// ReasonSingle means exactly one candidate qualified.
	ReasonSingle Reason = "single"
	// ReasonBestRank means the best candidate ranked strictly better than the next.
	ReasonBestRank Reason = "best-rank"
	// ReasonDefaultType means a tie was broken by the configured default index type.
	ReasonDefaultType Reason = "default-type"
	// ReasonFirst means a tie was broken by rank order.
	ReasonFirst Reason = "first"
)

// Candidate is a qualifying index with its rank for one resolution.
type Candidate struct {
	Index SearchIndex
	Rank  int
}

// Explanation describes a single resolution.
type Explanation struct {
	// IndexName is the selected index, empty when Reason is ReasonNone.
	IndexName string

	// Candidates are the ranked candidates in selection order.
	Candidates []Candidate

	// Fallback is true when candidates came from containment discovery.
	Fallback bool

	// Reason tells which selection rule produced IndexName.
	Reason Reason
}

// Observer receives every completed resolution.
type Observer interface {
	ObserveResolution(exp Explanation)
}

// Args is the request carried through the context-index pipeline step.
// Result is written at most once.
type Args struct {
	Indexable Indexable
	Result    string
}

// Resolver selects the search index responsible for an indexable.
//
// A Resolver holds no mutable state; it is safe for concurrent use as long as
// its collaborators are.
type Resolver struct {
	registry Registry
	settings Settings
	types    TypeLookup
	logger   *slog.Logger
	observer Observer
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSettings sets the settings used for the default index type.
func WithSettings(s Settings) Option {
	return func(r *Resolver) {
		r.settings = s
	}
}

// WithTypeLookup sets the lookup resolving the default index type name.
func WithTypeLookup(t TypeLookup) Option {
	return func(r *Resolver) {
		r.types = t
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver registers an observer for resolution outcomes.
func WithObserver(o Observer) Option {
	return func(r *Resolver) {
		r.observer = o
	}
}

// New creates a Resolver over the given registry.
func New(registry Registry, opts ...Option) (*Resolver, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}

	r := &Resolver{
		registry: registry,
		settings: MapSettings{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Process resolves args.Indexable into args.Result. Nil args and args that
// already carry a result are left untouched.
func (r *Resolver) Process(ctx context.Context, args *Args) {
	if args == nil || args.Result != "" {
		return
	}
	if name, ok := r.ResolveIndex(ctx, args.Indexable); ok {
		args.Result = name
	}
}

// ResolveIndex returns the name of the index responsible for indexable.
// It returns false when indexable is nil or no index covers it.
func (r *Resolver) ResolveIndex(ctx context.Context, indexable Indexable) (string, bool) {
	exp := r.Explain(ctx, indexable)
	return exp.IndexName, exp.Reason != ReasonNone
}

// Explain runs a resolution and reports every step of it.
func (r *Resolver) Explain(ctx context.Context, indexable Indexable) Explanation {
	if indexable == nil {
		return Explanation{Reason: ReasonNone}
	}

	indexes := r.registry.Indexes()

	var exp Explanation
	candidates := r.notExcluded(ctx, indexable, indexes)
	if len(candidates) == 0 {
		candidates = r.relatedToIndexable(ctx, indexable, indexes)
		exp.Fallback = true
	}

	exp.Candidates = r.rank(ctx, candidates, indexable)
	exp.IndexName, exp.Reason = r.choose(exp.Candidates)

	if exp.Reason == ReasonNone {
		err := cerrors.New(cerrors.ErrCodeNoCandidate,
			fmt.Sprintf("There is no appropriate index for %s - %s. You have to add an index crawler that will cover this item",
				indexable.AbsolutePath(), indexable.ID()), nil)
		r.logger.Error(err.Message,
			slog.String("code", err.Code),
			slog.String("path", indexable.AbsolutePath()),
			slog.String("id", indexable.ID()))
	}

	if r.observer != nil {
		r.observer.ObserveResolution(exp)
	}
	return exp
}

// notExcluded returns every index with at least one crawler that does not
// exclude the indexable, in registry order.
func (r *Resolver) notExcluded(ctx context.Context, indexable Indexable, indexes []SearchIndex) []SearchIndex {
	var out []SearchIndex
	for _, idx := range indexes {
		for _, c := range idx.Crawlers() {
			if !c.IsExcluded(ctx, indexable) {
				out = append(out, idx)
				break
			}
		}
	}
	return out
}

// relatedToIndexable finds indexes whose tree crawlers contain the indexable:
// same database (case-insensitive) and a LongID starting with the root's
// LongID. The prefix test is a plain string prefix, so "/{a}/{b}" also
// matches "/{a}/{b}x".
func (r *Resolver) relatedToIndexable(ctx context.Context, indexable Indexable, indexes []SearchIndex) []SearchIndex {
	ti, ok := indexable.(TreeIndexable)
	if !ok {
		return nil
	}
	pos, ok := ti.TreePosition()
	if !ok {
		return nil
	}

	return scope.Run(ctx, func(ctx context.Context) []SearchIndex {
		var out []SearchIndex
		for _, idx := range indexes {
			if containedBy(ctx, pos, idx) {
				out = append(out, idx)
			}
		}
		return out
	})
}

func containedBy(ctx context.Context, pos TreePosition, idx SearchIndex) bool {
	for _, c := range idx.Crawlers() {
		tc, ok := c.(TreeCrawler)
		if !ok {
			continue
		}
		root, ok := tc.Root(ctx)
		if !ok {
			continue
		}
		if SameDatabase(pos.Database, tc.Database()) && strings.HasPrefix(pos.LongID, root.LongID) {
			return true
		}
	}
	return false
}

// rank deduplicates candidates by name and orders them by rank, keeping
// enumeration order among equal ranks.
func (r *Resolver) rank(ctx context.Context, indexes []SearchIndex, indexable Indexable) []Candidate {
	seen := make(map[string]struct{}, len(indexes))
	ranked := make([]Candidate, 0, len(indexes))
	for _, idx := range indexes {
		if _, dup := seen[idx.Name()]; dup {
			continue
		}
		seen[idx.Name()] = struct{}{}
		ranked = append(ranked, Candidate{Index: idx, Rank: r.rankOf(ctx, idx, indexable)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Rank < ranked[j].Rank
	})
	return ranked
}

// rankOf asks a rankable index for its rank. A panicking ranker counts as
// unranked.
func (r *Resolver) rankOf(ctx context.Context, idx SearchIndex, indexable Indexable) (rank int) {
	rankable, ok := idx.(Rankable)
	if !ok {
		return Unranked
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Warn("context rank failed",
				slog.String("code", cerrors.ErrCodeRankingUnavailable),
				slog.String("index", idx.Name()),
				slog.String("id", indexable.ID()),
				slog.Any("panic", p))
			rank = Unranked
		}
	}()
	return rankable.ContextRank(ctx, indexable)
}

// choose applies the selection rules to ranked candidates.
func (r *Resolver) choose(ranked []Candidate) (string, Reason) {
	switch {
	case len(ranked) == 0:
		return "", ReasonNone
	case len(ranked) == 1:
		return ranked[0].Index.Name(), ReasonSingle
	case ranked[0].Rank < ranked[1].Rank:
		return ranked[0].Index.Name(), ReasonBestRank
	}

	first := ranked[0].Index.Name()

	typeName := r.settings.GetSetting(DefaultIndexTypeSetting, "")
	if typeName == "" || r.types == nil {
		return first, ReasonFirst
	}
	handle, ok := r.types.LookupType(typeName)
	if !ok {
		r.logger.Debug("default index type not resolvable",
			slog.String("code", cerrors.ErrCodeUnresolvableDefaultType),
			slog.String("type", typeName))
		return first, ReasonFirst
	}

	var matched []string
	for _, c := range ranked {
		if c.Index.Type() == handle {
			matched = append(matched, c.Index.Name())
		}
	}
	if len(matched) == 0 {
		return first, ReasonFirst
	}
	sort.Strings(matched)
	return matched[0], ReasonDefaultType
}

// SameDatabase compares database names without regard to case.
func SameDatabase(a, b string) bool {
	if a == b {
		return true
	}
	// A Caser holds state and must not be shared between goroutines.
	return cases.Fold().String(a) == cases.Fold().String(b)
}
