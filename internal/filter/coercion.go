// internal/filter/coercion.go
package filter

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/solatis/sieve/internal/types"
)

/*
 * Coercion of decoded JSON values into FieldValues.
 *
 *   string          -> date when ISO YYYY-MM-DD or RFC 3339, else string
 *   bool            -> bool
 *   integral number -> int (json.Number or float64 within int64 range)
 *   other number    -> string in shortest decimal form
 *   null            -> optional string without a value (IS NULL matches)
 *   array           -> string list of its scalar elements; nulls and
 *                      nested containers are skipped
 *   object          -> absent; objects are only reachable through paths
 *
 * RFC 3339 timestamps keep the calendar date of their own offset.
 */

// Coerce converts a decoded JSON value to a FieldValue. It returns false
// for objects and unknown Go types.
func Coerce(value any) (FieldValue, bool) {
	switch v := value.(type) {
	case nil:
		return OptionalStringField(nil), true
	case string:
		if d, ok := parseDateText(v); ok {
			return DateField(d), true
		}
		return StringField(v), true
	case bool:
		return BoolField(v), true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return IntField(n), true
		}
		if f, err := v.Float64(); err == nil {
			return coerceFloat(f), true
		}
		return StringField(v.String()), true
	case float64:
		return coerceFloat(v), true
	case int:
		return IntField(int64(v)), true
	case int64:
		return IntField(v), true
	case []any:
		return coerceList(v), true
	default:
		return FieldValue{}, false
	}
}

// coerceList flattens values into a string list, expanding nested arrays
// one level so wildcard matches over arrays read as a single list.
func coerceList(values []any) FieldValue {
	items := make([]string, 0, len(values))
	for _, val := range values {
		if arr, ok := val.([]any); ok {
			for _, elem := range arr {
				if s, ok := scalarText(elem); ok {
					items = append(items, s)
				}
			}
			continue
		}
		if s, ok := scalarText(val); ok {
			items = append(items, s)
		}
	}
	return StringListField(items)
}

func coerceFloat(f float64) FieldValue {
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return IntField(int64(f))
	}
	return StringField(strconv.FormatFloat(f, 'f', -1, 64))
}

// scalarText renders a JSON scalar as text; containers and null report false.
func scalarText(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	default:
		return "", false
	}
}

func parseDateText(s string) (types.Date, bool) {
	if len(s) == len(types.DateLayout) {
		if d, err := types.ParseDate(s); err == nil {
			return d, true
		}
		return types.Date{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return types.DateOf(t), true
	}
	return types.Date{}, false
}
