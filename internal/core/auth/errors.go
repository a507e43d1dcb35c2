package auth

import "errors"

// Authentication errors. All map to UNAUTHENTICATED at the gRPC boundary so
// a caller cannot tell an unknown key ID from a wrong secret.
var (
	ErrMissingKey       = errors.New("API key required in x-api-key metadata")
	ErrInvalidKeyFormat = errors.New("invalid API key format")
	ErrUnknownKey       = errors.New("unknown key ID")
	ErrInvalidKey       = errors.New("invalid API key")
	ErrDuplicateKey     = errors.New("duplicate API key ID")
	ErrNoKeys           = errors.New("no API keys configured")
)
