package api

import (
	"context"
	"fmt"

	"github.com/solatis/sieve/internal/filter"
	"github.com/solatis/sieve/internal/tasks"
	"github.com/solatis/sieve/internal/types"
)

// ItemSource supplies the records a query runs against. Implemented by
// *db.Store and StaticSource.
type ItemSource interface {
	Items(ctx context.Context, kind tasks.Kind) ([]filter.Filterable, error)
}

// StaticSource serves fixed, preloaded records per kind.
type StaticSource map[tasks.Kind][]filter.Filterable

// Items returns the records loaded for kind.
func (s StaticSource) Items(_ context.Context, kind tasks.Kind) ([]filter.Filterable, error) {
	items, ok := s[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no %s loaded", types.ErrUnknownKind, kind)
	}
	return items, nil
}
