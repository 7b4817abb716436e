// Package content models the content trees that search indexes crawl.
//
// Items live in named databases ("master", "web"). Each item knows its Path
// (names from the tree root), LongID (IDs from the tree root) and Level. The
// store layers compose:
//
//	SQLiteStore              persistent items
//	  └─ CachedStore         LRU read cache, write-through unless suspended
//	       └─ GuardedStore   deny rules, bypassed when security is suspended
//
// Suspension is carried by the context, see package scope.
package content
