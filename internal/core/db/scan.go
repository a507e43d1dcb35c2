package db

import (
	"encoding/json"
	"fmt"
	"time"
)

// nullTime scans timestamps stored as RFC 3339 text (SQLite) or as native
// timestamps (PostgreSQL).
type nullTime struct {
	Time  time.Time
	Valid bool
}

var textTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

func (t *nullTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = nullTime{}
	case time.Time:
		*t = nullTime{Time: v.UTC(), Valid: true}
	case []byte:
		return t.Scan(string(v))
	case string:
		for _, layout := range textTimeLayouts {
			if parsed, err := time.Parse(layout, v); err == nil {
				*t = nullTime{Time: parsed.UTC(), Valid: true}
				return nil
			}
		}
		return fmt.Errorf("cannot parse timestamp %q", v)
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
	return nil
}

// Ptr returns nil for NULL.
func (t nullTime) Ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	ts := t.Time
	return &ts
}

// timeArg renders ts as a statement argument both drivers accept.
func timeArg(ts *time.Time) any {
	if ts == nil {
		return nil
	}
	return ts.UTC().Format(time.RFC3339Nano)
}

// jsonArg encodes v for a JSON text (SQLite) or JSONB (PostgreSQL) column.
// Nil slices are stored as [].
func jsonArg[T any](v []T) (string, error) {
	if v == nil {
		v = []T{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeJSONList[T any](column, raw string) ([]T, error) {
	out := []T{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", column, err)
	}
	return out, nil
}
