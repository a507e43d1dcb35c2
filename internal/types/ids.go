package types

import (
	"time"

	"github.com/google/uuid"
)

// NewItemID generates a UUIDv7 identifier for a task record.
// Time-ordered IDs keep inserts clustered in B-tree pages.
// Panics if the random source fails.
func NewItemID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ParseItemID validates a UUID identifier.
// Records imported from other tools may carry non-UUID ids; callers that
// accept those skip this check.
func ParseItemID(s string) (string, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return s, nil
}

// ItemIDTime extracts the timestamp embedded in a UUIDv7 ID.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func ItemIDTime(id string) time.Time {
	u, err := uuid.Parse(id)
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
