package types

import "errors"

// Sentinel errors for sieve operations.
var (
	// ErrEmptyQuery indicates a blank or whitespace-only filter query.
	ErrEmptyQuery = errors.New("empty filter query")

	// ErrUnmatchedParenthesis indicates an opening parenthesis without a matching close.
	ErrUnmatchedParenthesis = errors.New("unmatched parenthesis in filter")

	// ErrInvalidCondition indicates a condition fragment with no recognized operator.
	ErrInvalidCondition = errors.New("invalid filter condition")

	// ErrQueryTooLong indicates query text exceeds the configured maximum length.
	ErrQueryTooLong = errors.New("filter query exceeds maximum length")

	// ErrQueryTooComplex indicates a parsed query exceeds the configured maximum cost.
	ErrQueryTooComplex = errors.New("filter query exceeds maximum cost")

	// ErrPathTooDeep indicates a field path exceeds MaxPathDepth.
	ErrPathTooDeep = errors.New("field path exceeds maximum depth")

	// ErrTooManyWildcards indicates a field path exceeds MaxNestedWildcards.
	ErrTooManyWildcards = errors.New("field path has too many wildcards")

	// ErrFieldNotFound indicates a field path could not be resolved.
	ErrFieldNotFound = errors.New("field not found")

	// ErrInvalidDate indicates text that is not an ISO calendar date.
	ErrInvalidDate = errors.New("invalid date")

	// ErrUnknownKind indicates an unsupported record kind.
	ErrUnknownKind = errors.New("unknown record kind")

	// ErrNotFound indicates a record is not present in the store.
	ErrNotFound = errors.New("record not found")
)
