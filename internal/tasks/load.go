package tasks

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/solatis/sieve/internal/filter"
	"github.com/solatis/sieve/internal/types"
)

// Kind names a collection of records a query can run against.
type Kind string

const (
	KindTodos    Kind = "todos"
	KindProjects Kind = "projects"
	KindAreas    Kind = "areas"
	KindJSON     Kind = "json" // arbitrary JSON objects, see filter.JSONRecord
)

// Kinds lists every supported kind in display order.
var Kinds = []Kind{KindTodos, KindProjects, KindAreas, KindJSON}

// ParseKind validates s as a Kind. Singular forms are accepted.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "todos", "todo":
		return KindTodos, nil
	case "projects", "project":
		return KindProjects, nil
	case "areas", "area":
		return KindAreas, nil
	case "json":
		return KindJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", types.ErrUnknownKind, s)
	}
}

// LoadTodos decodes a JSON array of todos.
func LoadTodos(r io.Reader) ([]Todo, error) {
	var todos []Todo
	if err := json.NewDecoder(r).Decode(&todos); err != nil {
		return nil, fmt.Errorf("failed to decode todos: %w", err)
	}
	return todos, nil
}

// LoadProjects decodes a JSON array of projects.
func LoadProjects(r io.Reader) ([]Project, error) {
	var projects []Project
	if err := json.NewDecoder(r).Decode(&projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}
	return projects, nil
}

// LoadAreas decodes a JSON array of areas.
func LoadAreas(r io.Reader) ([]Area, error) {
	var areas []Area
	if err := json.NewDecoder(r).Decode(&areas); err != nil {
		return nil, fmt.Errorf("failed to decode areas: %w", err)
	}
	return areas, nil
}

// Load decodes a JSON array of the given kind as Filterable records.
func Load(kind Kind, r io.Reader) ([]filter.Filterable, error) {
	switch kind {
	case KindTodos:
		todos, err := LoadTodos(r)
		if err != nil {
			return nil, err
		}
		return AsFilterable(todos), nil
	case KindProjects:
		projects, err := LoadProjects(r)
		if err != nil {
			return nil, err
		}
		return AsFilterable(projects), nil
	case KindAreas:
		areas, err := LoadAreas(r)
		if err != nil {
			return nil, err
		}
		return AsFilterable(areas), nil
	case KindJSON:
		records, err := filter.LoadJSONRecords(r)
		if err != nil {
			return nil, err
		}
		return AsFilterable(records), nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownKind, kind)
	}
}

// AsFilterable widens a typed slice to the capability interface.
func AsFilterable[T filter.Filterable](items []T) []filter.Filterable {
	out := make([]filter.Filterable, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
