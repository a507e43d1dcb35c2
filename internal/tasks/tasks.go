// Package tasks defines the task records sieve filters: todos, projects and
// areas. Each record implements filter.Filterable with its own field aliases.
package tasks

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/solatis/sieve/internal/filter"
	"github.com/solatis/sieve/internal/types"
)

/*
 * Field names exposed to queries (case-insensitive):
 *
 *   Todo     id, name|title, notes, status, due|due_date|duedate, tags,
 *            project, area, created|creation_date|creationdate,
 *            modified|modification_date|modificationdate
 *   Project  id, name|title, notes, status, due|due_date|duedate, tags,
 *            area, created|creation_date|creationdate
 *   Area     id, name|title, tags
 *
 * created/modified are absent (not null) when the timestamp is unset, so
 * "created IS NULL" holds for such records through the unknown-field rule.
 */

// Status is the lifecycle state of a todo or project.
type Status string

const (
	StatusOpen      Status = "open"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

// ParseStatus validates s as a Status (case-insensitive).
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusOpen, StatusCompleted, StatusCanceled:
		return st, nil
	default:
		return "", fmt.Errorf("invalid status %q: must be open, completed or canceled", s)
	}
}

// UnmarshalJSON rejects unknown statuses.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ChecklistItem is a sub-step of a todo.
type ChecklistItem struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// Todo is a single actionable task.
type Todo struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Notes            string          `json:"notes"`
	Status           Status          `json:"status"`
	DueDate          *types.Date     `json:"dueDate,omitempty"`
	Tags             []string        `json:"tags"`
	Project          *string         `json:"project,omitempty"`
	Area             *string         `json:"area,omitempty"`
	ChecklistItems   []ChecklistItem `json:"checklistItems,omitempty"`
	CreationDate     *time.Time      `json:"creationDate,omitempty"`
	ModificationDate *time.Time      `json:"modificationDate,omitempty"`
}

// NewTodo creates an open todo with a fresh ID stamped at now.
func NewTodo(name string, now time.Time) Todo {
	created := now.UTC()
	return Todo{
		ID:               types.NewItemID(),
		Name:             name,
		Status:           StatusOpen,
		Tags:             []string{},
		CreationDate:     &created,
		ModificationDate: &created,
	}
}

// FieldValue implements filter.Filterable.
func (t Todo) FieldValue(name string) (filter.FieldValue, bool) {
	switch strings.ToLower(name) {
	case "id":
		return filter.StringField(t.ID), true
	case "name", "title":
		return filter.StringField(t.Name), true
	case "notes":
		return filter.StringField(t.Notes), true
	case "status":
		return filter.StringField(string(t.Status)), true
	case "due", "due_date", "duedate":
		return filter.OptionalDateField(t.DueDate), true
	case "tags":
		return filter.StringListField(t.Tags), true
	case "project":
		return filter.OptionalStringField(t.Project), true
	case "area":
		return filter.OptionalStringField(t.Area), true
	case "created", "creation_date", "creationdate":
		return timestampField(t.CreationDate)
	case "modified", "modification_date", "modificationdate":
		return timestampField(t.ModificationDate)
	default:
		return filter.FieldValue{}, false
	}
}

// ItemID implements filter.Filterable.
func (t Todo) ItemID() string { return t.ID }

// ItemName implements filter.Filterable.
func (t Todo) ItemName() string { return t.Name }

// HasTag reports whether t carries tag, ignoring case.
func (t Todo) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if strings.EqualFold(existing, tag) {
			return true
		}
	}
	return false
}

// AddTag appends tag unless already present. Reports whether t changed.
func (t *Todo) AddTag(tag string) bool {
	if t.HasTag(tag) {
		return false
	}
	t.Tags = append(t.Tags, tag)
	return true
}

// RemoveTag drops every case-insensitive occurrence of tag. Reports whether t changed.
func (t *Todo) RemoveTag(tag string) bool {
	kept := t.Tags[:0:0]
	for _, existing := range t.Tags {
		if !strings.EqualFold(existing, tag) {
			kept = append(kept, existing)
		}
	}
	changed := len(kept) != len(t.Tags)
	t.Tags = kept
	return changed
}

// Project groups todos toward one outcome.
type Project struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Notes        string      `json:"notes"`
	Status       Status      `json:"status"`
	Area         *string     `json:"area,omitempty"`
	Tags         []string    `json:"tags"`
	DueDate      *types.Date `json:"dueDate,omitempty"`
	CreationDate *time.Time  `json:"creationDate,omitempty"`
}

// NewProject creates an open project with a fresh ID stamped at now.
func NewProject(name string, now time.Time) Project {
	created := now.UTC()
	return Project{
		ID:           types.NewItemID(),
		Name:         name,
		Status:       StatusOpen,
		Tags:         []string{},
		CreationDate: &created,
	}
}

// FieldValue implements filter.Filterable.
func (p Project) FieldValue(name string) (filter.FieldValue, bool) {
	switch strings.ToLower(name) {
	case "id":
		return filter.StringField(p.ID), true
	case "name", "title":
		return filter.StringField(p.Name), true
	case "notes":
		return filter.StringField(p.Notes), true
	case "status":
		return filter.StringField(string(p.Status)), true
	case "due", "due_date", "duedate":
		return filter.OptionalDateField(p.DueDate), true
	case "tags":
		return filter.StringListField(p.Tags), true
	case "area":
		return filter.OptionalStringField(p.Area), true
	case "created", "creation_date", "creationdate":
		return timestampField(p.CreationDate)
	default:
		return filter.FieldValue{}, false
	}
}

// ItemID implements filter.Filterable.
func (p Project) ItemID() string { return p.ID }

// ItemName implements filter.Filterable.
func (p Project) ItemName() string { return p.Name }

// Area is a long-lived area of responsibility.
type Area struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// NewArea creates an area with a fresh ID.
func NewArea(name string) Area {
	return Area{ID: types.NewItemID(), Name: name, Tags: []string{}}
}

// FieldValue implements filter.Filterable.
func (a Area) FieldValue(name string) (filter.FieldValue, bool) {
	switch strings.ToLower(name) {
	case "id":
		return filter.StringField(a.ID), true
	case "name", "title":
		return filter.StringField(a.Name), true
	case "tags":
		return filter.StringListField(a.Tags), true
	default:
		return filter.FieldValue{}, false
	}
}

// ItemID implements filter.Filterable.
func (a Area) ItemID() string { return a.ID }

// ItemName implements filter.Filterable.
func (a Area) ItemName() string { return a.Name }

// timestampField reports the UTC calendar date of ts, or absent when unset.
func timestampField(ts *time.Time) (filter.FieldValue, bool) {
	if ts == nil {
		return filter.FieldValue{}, false
	}
	return filter.DateField(types.DateOf(ts.UTC())), true
}
