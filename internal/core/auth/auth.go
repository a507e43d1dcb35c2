// Package auth checks API keys on incoming gRPC calls.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

/*
 * Keys are configured at startup (environment only) and never kept in
 * memory in plain form: each is reduced to an HMAC-SHA256 digest under a
 * per-process random pepper, indexed by its key ID. A presented key is
 * parsed, its ID looked up, and its digest compared in constant time.
 */

type contextKey string

const keyIDKey = contextKey("key_id")

// Authenticator validates API keys.
type Authenticator struct {
	pepper  []byte
	digests map[string][]byte
}

// NewAuthenticator builds an authenticator for keys. Every key must parse
// and key IDs must be unique. Returns ErrNoKeys for an empty list.
func NewAuthenticator(keys []string) (*Authenticator, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}

	pepper := make([]byte, 32)
	if _, err := rand.Read(pepper); err != nil {
		return nil, fmt.Errorf("failed to generate pepper: %w", err)
	}

	a := &Authenticator{pepper: pepper, digests: make(map[string][]byte, len(keys))}
	for i, key := range keys {
		keyID, _, err := ParseAPIKey(key)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		if _, exists := a.digests[keyID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, keyID)
		}
		a.digests[keyID] = ComputeHMAC(pepper, key)
	}
	return a, nil
}

// Authenticate validates apiKey and returns its key ID.
func (a *Authenticator) Authenticate(apiKey string) (string, error) {
	keyID, _, err := ParseAPIKey(apiKey)
	if err != nil {
		return "", err
	}

	expected, ok := a.digests[keyID]
	if !ok {
		return "", ErrUnknownKey
	}
	if !VerifyHMAC(expected, ComputeHMAC(a.pepper, apiKey)) {
		return "", ErrInvalidKey
	}
	return keyID, nil
}

// UnaryInterceptor rejects calls without a valid x-api-key and stores the
// key ID in the handler context.
func (a *Authenticator) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		apiKeys := md.Get("x-api-key")
		if len(apiKeys) == 0 {
			return nil, status.Error(codes.Unauthenticated, ErrMissingKey.Error())
		}

		keyID, err := a.Authenticate(apiKeys[0])
		if err != nil {
			// Unknown ID and wrong secret look the same to the caller.
			if errors.Is(err, ErrUnknownKey) {
				err = ErrInvalidKey
			}
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}

		return handler(context.WithValue(ctx, keyIDKey, keyID), req)
	}
}

// KeyIDFromContext returns the authenticated key ID, or "" in local mode.
func KeyIDFromContext(ctx context.Context) string {
	if keyID, ok := ctx.Value(keyIDKey).(string); ok {
		return keyID
	}
	return ""
}
