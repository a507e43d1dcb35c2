// internal/filter/engine.go
package filter

import (
	"fmt"
	"log/slog"

	"github.com/solatis/sieve/internal/dates"
	"github.com/solatis/sieve/internal/types"
)

/*
 * Engine wraps the parser with the resource limits and logging needed when
 * query text comes from untrusted callers (the gRPC service, bulk commands).
 *
 * Limits are checked in order: raw length before parsing, cost after.
 * Both produce sentinel errors so the api layer can map them to
 * InvalidArgument without string matching.
 */

// Engine parses and evaluates queries under configured limits.
// Safe for concurrent use.
type Engine struct {
	parser    *Parser
	logger    *slog.Logger
	maxLength int
	maxCost   int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithResolver sets the date resolver used for literals.
func WithResolver(resolver DateResolver) Option {
	return func(e *Engine) {
		e.parser = NewParser(resolver)
	}
}

// WithLimits overrides the query length and cost limits. Non-positive
// values keep the defaults.
func WithLimits(maxLength, maxCost int) Option {
	return func(e *Engine) {
		if maxLength > 0 {
			e.maxLength = maxLength
		}
		if maxCost > 0 {
			e.maxCost = maxCost
		}
	}
}

// NewEngine creates an engine with default limits and a wall-clock resolver.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		parser:    NewParser(dates.NewResolver()),
		logger:    slog.Default(),
		maxLength: types.MaxQueryLength,
		maxCost:   types.MaxQueryCost,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compiled is a parsed query with its computed cost.
type Compiled struct {
	Query string
	Expr  Expr
	Cost  int
}

// Compile parses query and enforces length and cost limits.
func (e *Engine) Compile(query string) (*Compiled, error) {
	if len(query) > e.maxLength {
		e.logger.Debug("query rejected", "reason", "length", "length", len(query), "max", e.maxLength)
		return nil, fmt.Errorf("%w: %d bytes (max %d)", types.ErrQueryTooLong, len(query), e.maxLength)
	}

	expr, err := e.parser.Parse(query)
	if err != nil {
		e.logger.Debug("query parse failed", "query", query, "error", err)
		return nil, err
	}

	cost := Cost(expr)
	if cost > e.maxCost {
		e.logger.Debug("query rejected", "reason", "cost", "cost", cost, "max", e.maxCost)
		return nil, fmt.Errorf("%w: cost %d (max %d)", types.ErrQueryTooComplex, cost, e.maxCost)
	}

	e.logger.Debug("query compiled", "expression", expr.String(), "cost", cost)
	return &Compiled{Query: query, Expr: expr, Cost: cost}, nil
}

// Filter compiles query and returns the matching items in input order.
func Filter[T Filterable](e *Engine, items []T, query string) ([]T, *Compiled, error) {
	compiled, err := e.Compile(query)
	if err != nil {
		return nil, nil, err
	}
	return FilterItems(items, compiled.Expr), compiled, nil
}
