// Package resolver selects the search index that owns a content item.
//
// Given an Indexable, the Resolver walks the configured SearchIndexes and
// picks the most specific one:
//
//	┌──────────────┐   ┌────────────────────┐   ┌─────────┐   ┌──────────────┐
//	│ not excluded │──▶│ containment scan   │──▶│  rank   │──▶│   select     │
//	│ by a crawler │   │ (only if none yet) │   │ (lower  │   │ single/best/ │
//	└──────────────┘   └────────────────────┘   │ = more  │   │ default type │
//	                                            │specific)│   └──────────────┘
//	                                            └─────────┘
//
// # Usage
//
//	r, err := resolver.New(registry,
//	    resolver.WithSettings(settings),
//	    resolver.WithTypeLookup(types),
//	)
//	if err != nil {
//	    return err
//	}
//	name, ok := r.ResolveIndex(ctx, indexable)
//
// A pipeline step carrying a result slot uses Process instead; it never
// overwrites a result set by an earlier step.
//
// # Ranking
//
// Indexes and crawlers that implement Rankable report how deep the indexable
// sits below their root. Everything else ranks as Unranked and loses to any
// real rank. When the two best candidates tie, the setting
// "ContentSearch.DefaultIndexType" names the preferred implementation type.
//
// # Failure Semantics
//
// ResolveIndex never returns an error. "No index covers this item" is logged
// once and reported as false; a ranker that panics is logged and treated as
// Unranked.
package resolver
