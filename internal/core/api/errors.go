package api

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/sieve/internal/types"
)

// queryErrors are caller mistakes in the query text or request shape.
var queryErrors = []error{
	types.ErrEmptyQuery,
	types.ErrUnmatchedParenthesis,
	types.ErrInvalidCondition,
	types.ErrQueryTooLong,
	types.ErrQueryTooComplex,
	types.ErrPathTooDeep,
	types.ErrTooManyWildcards,
	types.ErrUnknownKind,
	types.ErrInvalidDate,
}

// toStatus maps a service error to a gRPC status.
// Query errors are INVALID_ARGUMENT, context expiry is DEADLINE_EXCEEDED or
// CANCELED, and anything else (store failures) is UNAVAILABLE.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	for _, target := range queryErrors {
		if errors.Is(err, target) {
			return status.Error(codes.InvalidArgument, err.Error())
		}
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Unavailable, err.Error())
	}
}
