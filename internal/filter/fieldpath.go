// internal/filter/fieldpath.go
package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/solatis/sieve/internal/types"
)

/*
 * Field path resolution for JSON records.
 *
 * A field name such as "owner.name", "items.0.sku" or "items.*.sku" is split
 * on dots into PathSegments. Object keys match case-insensitively (an exact
 * key wins over a folded one). Numeric segments index arrays and also match
 * object keys spelled the same way.
 *
 * Wildcards collect every match, visiting object keys in sorted order so the
 * result is stable across runs. Limits: MaxPathDepth segments and
 * MaxNestedWildcards wildcards per path.
 */

// PathSegment is one component of a field path.
type PathSegment struct {
	Key      string // raw segment text; object key
	Index    int    // array index when IsIndex
	IsIndex  bool   // segment is a non-negative integer
	Wildcard bool   // segment is "*"
}

// ParsePath splits a dotted field name into segments.
func ParsePath(field string) ([]PathSegment, error) {
	if field == "" {
		return nil, fmt.Errorf("%w: empty path", types.ErrFieldNotFound)
	}

	parts := strings.Split(field, ".")
	if len(parts) > types.MaxPathDepth {
		return nil, types.ErrPathTooDeep
	}

	path := make([]PathSegment, 0, len(parts))
	wildcards := 0
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", types.ErrFieldNotFound, field)
		}
		seg := PathSegment{Key: part}
		switch {
		case part == "*":
			seg.Wildcard = true
			wildcards++
		default:
			if n, err := strconv.Atoi(part); err == nil && n >= 0 {
				seg.Index = n
				seg.IsIndex = true
			}
		}
		path = append(path, seg)
	}

	if wildcards > types.MaxNestedWildcards {
		return nil, types.ErrTooManyWildcards
	}
	return path, nil
}

// hasWildcard reports whether any segment of path is a wildcard.
func hasWildcard(path []PathSegment) bool {
	for _, seg := range path {
		if seg.Wildcard {
			return true
		}
	}
	return false
}

// Resolve returns every value reached by following path through data.
// Without wildcards the result holds at most one value. Returns
// ErrFieldNotFound when nothing matches.
func Resolve(path []PathSegment, data any) ([]any, error) {
	if len(path) > types.MaxPathDepth {
		return nil, types.ErrPathTooDeep
	}

	var out []any
	resolveRecursive(path, data, &out)
	if len(out) == 0 {
		return nil, types.ErrFieldNotFound
	}
	return out, nil
}

func resolveRecursive(path []PathSegment, current any, out *[]any) {
	if len(path) == 0 {
		*out = append(*out, current)
		return
	}

	seg := path[0]
	remaining := path[1:]

	switch v := current.(type) {
	case map[string]any:
		if seg.Wildcard {
			for _, key := range sortedKeys(v) {
				resolveRecursive(remaining, v[key], out)
			}
			return
		}
		if val, ok := lookupKey(v, seg.Key); ok {
			resolveRecursive(remaining, val, out)
		}

	case []any:
		if seg.Wildcard {
			for _, elem := range v {
				resolveRecursive(remaining, elem, out)
			}
			return
		}
		if seg.IsIndex && seg.Index < len(v) {
			resolveRecursive(remaining, v[seg.Index], out)
		}
	}
	// Scalars and nulls cannot be traversed further.
}

// lookupKey finds key in m, exactly or else case-insensitively in sorted key order.
func lookupKey(m map[string]any, key string) (any, bool) {
	if val, ok := m[key]; ok {
		return val, true
	}
	for _, k := range sortedKeys(m) {
		if strings.EqualFold(k, key) {
			return m[k], true
		}
	}
	return nil, false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// JSONRecord makes an arbitrary JSON object filterable by dotted field paths.
type JSONRecord struct {
	data map[string]any
}

// NewJSONRecord decodes a single JSON object.
func NewJSONRecord(raw []byte) (*JSONRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode JSON record: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("failed to decode JSON record: not an object")
	}
	return &JSONRecord{data: data}, nil
}

// LoadJSONRecords decodes a JSON array of objects.
func LoadJSONRecords(r io.Reader) ([]*JSONRecord, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw []json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode JSON records: %w", err)
	}

	records := make([]*JSONRecord, 0, len(raw))
	for i, item := range raw {
		rec, err := NewJSONRecord(item)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// FieldValue resolves name as a dotted path. Paths with wildcards yield a
// string list of every scalar reached.
func (r *JSONRecord) FieldValue(name string) (FieldValue, bool) {
	path, err := ParsePath(name)
	if err != nil {
		return FieldValue{}, false
	}
	values, err := Resolve(path, r.data)
	if err != nil {
		return FieldValue{}, false
	}
	if hasWildcard(path) {
		return coerceList(values), true
	}
	return Coerce(values[0])
}

// ItemID returns the record's "id" attribute rendered as text.
func (r *JSONRecord) ItemID() string {
	return r.textAttr("id")
}

// ItemName returns the record's "name" attribute, falling back to "title".
func (r *JSONRecord) ItemName() string {
	if name := r.textAttr("name"); name != "" {
		return name
	}
	return r.textAttr("title")
}

// MarshalJSON re-encodes the decoded object.
func (r *JSONRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.data)
}

func (r *JSONRecord) textAttr(key string) string {
	val, ok := lookupKey(r.data, key)
	if !ok {
		return ""
	}
	s, _ := scalarText(val)
	return s
}
