// internal/filter/field.go
package filter

import (
	"strings"

	"github.com/solatis/sieve/internal/types"
)

// FieldKind tags the variant held by a FieldValue.
type FieldKind int

const (
	FieldString FieldKind = iota + 1
	FieldOptionalString
	FieldBool
	FieldInt
	FieldDate
	FieldOptionalDate
	FieldStringList
)

// FieldValue is the typed value a record reports for a named field.
// Present is only consulted for the optional kinds; an optional kind with
// Present == false is null.
type FieldValue struct {
	Kind    FieldKind
	Str     string
	Date    types.Date
	Bool    bool
	Int     int64
	List    []string
	Present bool
}

// StringField returns a non-null text field value.
func StringField(s string) FieldValue {
	return FieldValue{Kind: FieldString, Str: s, Present: true}
}

// OptionalStringField returns a nullable text field value; nil is null.
func OptionalStringField(s *string) FieldValue {
	if s == nil {
		return FieldValue{Kind: FieldOptionalString}
	}
	return FieldValue{Kind: FieldOptionalString, Str: *s, Present: true}
}

// BoolField returns a boolean field value.
func BoolField(b bool) FieldValue {
	return FieldValue{Kind: FieldBool, Bool: b, Present: true}
}

// IntField returns an integer field value.
func IntField(n int64) FieldValue {
	return FieldValue{Kind: FieldInt, Int: n, Present: true}
}

// DateField returns a non-null date field value.
func DateField(d types.Date) FieldValue {
	return FieldValue{Kind: FieldDate, Date: d, Present: true}
}

// OptionalDateField returns a nullable date field value; nil is null.
func OptionalDateField(d *types.Date) FieldValue {
	if d == nil {
		return FieldValue{Kind: FieldOptionalDate}
	}
	return FieldValue{Kind: FieldOptionalDate, Date: *d, Present: true}
}

// StringListField returns a multi-valued text field.
func StringListField(items []string) FieldValue {
	return FieldValue{Kind: FieldStringList, List: items, Present: true}
}

// IsNull reports whether v is an optional kind holding no value.
func (v FieldValue) IsNull() bool {
	switch v.Kind {
	case FieldOptionalString, FieldOptionalDate:
		return !v.Present
	default:
		return false
	}
}

// Text returns the text of a string or present optional string.
func (v FieldValue) Text() (string, bool) {
	switch v.Kind {
	case FieldString:
		return v.Str, true
	case FieldOptionalString:
		return v.Str, v.Present
	default:
		return "", false
	}
}

// AsDate returns the date of a date or present optional date.
func (v FieldValue) AsDate() (types.Date, bool) {
	switch v.Kind {
	case FieldDate:
		return v.Date, true
	case FieldOptionalDate:
		return v.Date, v.Present
	default:
		return types.Date{}, false
	}
}

// ContainsText reports a case-insensitive substring match on text kinds and
// case-insensitive membership on lists.
func (v FieldValue) ContainsText(needle string) bool {
	if s, ok := v.Text(); ok {
		return strings.Contains(strings.ToLower(s), strings.ToLower(needle))
	}
	if v.Kind == FieldStringList {
		return v.ListContains(needle)
	}
	return false
}

// ListContains reports whether a list field has an element equal to item, ignoring case.
func (v FieldValue) ListContains(item string) bool {
	if v.Kind != FieldStringList {
		return false
	}
	for _, s := range v.List {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}

// Filterable is the capability a record implements to be queried.
//
// FieldValue must return false for field names the record does not know;
// the evaluator treats such fields as permanently null. Names arrive
// lower-cased. Records may map several aliases to one attribute.
//
// ItemID and ItemName identify the record in results; they are not named
// ID/Name so record structs can keep fields by those names.
type Filterable interface {
	FieldValue(name string) (FieldValue, bool)
	ItemID() string
	ItemName() string
}
