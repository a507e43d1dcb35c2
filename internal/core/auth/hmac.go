package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const keyPrefix = "sv"
const keyVersion = "v1"

// ParseAPIKey splits a key of the form sv-v1-<key_id>-<secret>, where key_id
// is 32 lowercase hex chars and secret is 64.
func ParseAPIKey(key string) (keyID, secret string, err error) {
	parts := strings.Split(key, "-")
	if len(parts) != 4 || parts[0] != keyPrefix || parts[1] != keyVersion {
		return "", "", ErrInvalidKeyFormat
	}

	keyID, secret = parts[2], parts[3]
	if len(keyID) != 32 || len(secret) != 64 {
		return "", "", ErrInvalidKeyFormat
	}
	for _, c := range keyID + secret {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return "", "", ErrInvalidKeyFormat
		}
	}
	return keyID, secret, nil
}

// FormatAPIKey joins a key ID and secret into key form.
func FormatAPIKey(keyID, secret string) string {
	return fmt.Sprintf("%s-%s-%s-%s", keyPrefix, keyVersion, keyID, secret)
}

// GenerateAPIKey returns a new key with a UUIDv7 key ID and 256 random bits.
func GenerateAPIKey() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate key ID: %w", err)
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("failed to generate key secret: %w", err)
	}
	return FormatAPIKey(strings.ReplaceAll(id.String(), "-", ""), hex.EncodeToString(secret)), nil
}

// ComputeHMAC computes the HMAC-SHA256 of apiKey under pepper.
func ComputeHMAC(pepper []byte, apiKey string) []byte {
	h := hmac.New(sha256.New, pepper)
	h.Write([]byte(apiKey))
	return h.Sum(nil)
}

// VerifyHMAC compares digests in constant time.
func VerifyHMAC(expected, computed []byte) bool {
	return hmac.Equal(expected, computed)
}
