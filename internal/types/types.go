// Package types provides domain models shared across sieve components.
//
// Zero-dependency design: types.go, date.go and errors.go use only the
// standard library so the filter engine can be embedded without pulling in
// storage or transport deps. ID utilities in ids.go import uuid but are
// isolated from the engine.
package types

// Resource limits enforced by the query engine and field resolution.
const (
	// MaxQueryLength bounds query text accepted from untrusted callers.
	// 4KB fits hand-written filters with long IN lists.
	MaxQueryLength = 4 * 1024

	// MaxQueryCost bounds the summed condition cost of a parsed query.
	// See filter.Cost for the cost model.
	MaxQueryCost = 10_000

	// MaxPathDepth prevents stack overflow during JSON path resolution.
	// 16 levels handles deeply nested records (a.b.c...) comfortably.
	MaxPathDepth = 16

	// MaxNestedWildcards limits wildcard expansion in JSON field paths.
	// 2 wildcards allow items.*.parts.*.sku without exponential fan-out.
	MaxNestedWildcards = 2
)
