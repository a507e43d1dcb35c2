package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/solatis/sieve/internal/filter"
	"github.com/solatis/sieve/internal/tasks"
	"github.com/solatis/sieve/internal/types"
)

/*
 * Store maps the todos, projects and areas tables onto tasks records.
 *
 * Tags and checklists are JSON arrays in a single column. Optional text
 * columns (project, area) are NULL when unset. Timestamps are UTC.
 */

// Store reads and writes task records.
type Store struct {
	db  *sqlx.DB
	q   *Queries
	now func() time.Time
}

// NewStore loads the named queries for db. The schema must already be
// migrated.
func NewStore(db *sqlx.DB) (*Store, error) {
	q, err := LoadQueries(db)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, q: q, now: time.Now}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

type todoRow struct {
	ID         string         `db:"id"`
	Name       string         `db:"name"`
	Notes      string         `db:"notes"`
	Status     string         `db:"status"`
	DueDate    *types.Date    `db:"due_date"`
	Tags       string         `db:"tags"`
	Project    sql.NullString `db:"project"`
	Area       sql.NullString `db:"area"`
	Checklist  string         `db:"checklist"`
	CreatedAt  nullTime       `db:"created_at"`
	ModifiedAt nullTime       `db:"modified_at"`
}

func (r todoRow) todo() (tasks.Todo, error) {
	status, err := tasks.ParseStatus(r.Status)
	if err != nil {
		return tasks.Todo{}, fmt.Errorf("todo %s: %w", r.ID, err)
	}
	tags, err := decodeJSONList[string]("tags", r.Tags)
	if err != nil {
		return tasks.Todo{}, fmt.Errorf("todo %s: %w", r.ID, err)
	}
	checklist, err := decodeJSONList[tasks.ChecklistItem]("checklist", r.Checklist)
	if err != nil {
		return tasks.Todo{}, fmt.Errorf("todo %s: %w", r.ID, err)
	}

	return tasks.Todo{
		ID:               r.ID,
		Name:             r.Name,
		Notes:            r.Notes,
		Status:           status,
		DueDate:          r.DueDate,
		Tags:             tags,
		Project:          nullableString(r.Project),
		Area:             nullableString(r.Area),
		ChecklistItems:   checklist,
		CreationDate:     r.CreatedAt.Ptr(),
		ModificationDate: r.ModifiedAt.Ptr(),
	}, nil
}

type projectRow struct {
	ID        string         `db:"id"`
	Name      string         `db:"name"`
	Notes     string         `db:"notes"`
	Status    string         `db:"status"`
	Area      sql.NullString `db:"area"`
	Tags      string         `db:"tags"`
	DueDate   *types.Date    `db:"due_date"`
	CreatedAt nullTime       `db:"created_at"`
}

type areaRow struct {
	ID   string `db:"id"`
	Name string `db:"name"`
	Tags string `db:"tags"`
}

// ListTodos returns every todo ordered by ID, which for generated IDs is
// creation order.
func (s *Store) ListTodos(ctx context.Context) ([]tasks.Todo, error) {
	var rows []todoRow
	if err := s.q.Select(ctx, "list-todos", &rows); err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return todosFromRows(rows)
}

// ListTodosByStatus returns the todos in one lifecycle state.
func (s *Store) ListTodosByStatus(ctx context.Context, status tasks.Status) ([]tasks.Todo, error) {
	var rows []todoRow
	if err := s.q.Select(ctx, "list-todos-by-status", &rows, string(status)); err != nil {
		return nil, fmt.Errorf("failed to list %s todos: %w", status, err)
	}
	return todosFromRows(rows)
}

func todosFromRows(rows []todoRow) ([]tasks.Todo, error) {
	todos := make([]tasks.Todo, 0, len(rows))
	for _, r := range rows {
		todo, err := r.todo()
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	return todos, nil
}

// GetTodo returns the todo with id, or types.ErrNotFound.
func (s *Store) GetTodo(ctx context.Context, id string) (tasks.Todo, error) {
	var row todoRow
	err := s.q.Get(ctx, "get-todo", &row, id)
	if errors.Is(err, sql.ErrNoRows) {
		return tasks.Todo{}, fmt.Errorf("todo %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return tasks.Todo{}, fmt.Errorf("failed to get todo %s: %w", id, err)
	}
	return row.todo()
}

// InsertTodo stores a new todo. A missing ID is generated and a missing
// creation time is stamped; the stored record is returned.
func (s *Store) InsertTodo(ctx context.Context, todo tasks.Todo) (tasks.Todo, error) {
	if todo.ID == "" {
		todo.ID = types.NewItemID()
	}
	if todo.Status == "" {
		todo.Status = tasks.StatusOpen
	}
	if todo.CreationDate == nil {
		now := s.now().UTC()
		todo.CreationDate = &now
	}

	tags, err := jsonArg(todo.Tags)
	if err != nil {
		return tasks.Todo{}, fmt.Errorf("failed to encode tags: %w", err)
	}
	checklist, err := jsonArg(todo.ChecklistItems)
	if err != nil {
		return tasks.Todo{}, fmt.Errorf("failed to encode checklist: %w", err)
	}

	_, err = s.q.Exec(ctx, "insert-todo",
		todo.ID, todo.Name, todo.Notes, string(todo.Status), todo.DueDate, tags,
		todo.Project, todo.Area, checklist,
		timeArg(todo.CreationDate), timeArg(todo.ModificationDate),
	)
	if err != nil {
		return tasks.Todo{}, fmt.Errorf("failed to insert todo %s: %w", todo.ID, err)
	}
	return todo, nil
}

// UpdateTodo overwrites the mutable fields of an existing todo and stamps
// its modification time. Returns types.ErrNotFound when id is unknown.
func (s *Store) UpdateTodo(ctx context.Context, todo tasks.Todo) (tasks.Todo, error) {
	now := s.now().UTC()
	todo.ModificationDate = &now

	tags, err := jsonArg(todo.Tags)
	if err != nil {
		return tasks.Todo{}, fmt.Errorf("failed to encode tags: %w", err)
	}
	checklist, err := jsonArg(todo.ChecklistItems)
	if err != nil {
		return tasks.Todo{}, fmt.Errorf("failed to encode checklist: %w", err)
	}

	res, err := s.q.Exec(ctx, "update-todo",
		todo.Name, todo.Notes, string(todo.Status), todo.DueDate, tags,
		todo.Project, todo.Area, checklist, timeArg(todo.ModificationDate),
		todo.ID,
	)
	if err != nil {
		return tasks.Todo{}, fmt.Errorf("failed to update todo %s: %w", todo.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return tasks.Todo{}, fmt.Errorf("todo %s: %w", todo.ID, types.ErrNotFound)
	}
	return todo, nil
}

// DeleteTodo removes a todo. Returns types.ErrNotFound when id is unknown.
func (s *Store) DeleteTodo(ctx context.Context, id string) error {
	res, err := s.q.Exec(ctx, "delete-todo", id)
	if err != nil {
		return fmt.Errorf("failed to delete todo %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("todo %s: %w", id, types.ErrNotFound)
	}
	return nil
}

// ListProjects returns every project ordered by ID.
func (s *Store) ListProjects(ctx context.Context) ([]tasks.Project, error) {
	var rows []projectRow
	if err := s.q.Select(ctx, "list-projects", &rows); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	projects := make([]tasks.Project, 0, len(rows))
	for _, r := range rows {
		status, err := tasks.ParseStatus(r.Status)
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", r.ID, err)
		}
		tags, err := decodeJSONList[string]("tags", r.Tags)
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", r.ID, err)
		}
		projects = append(projects, tasks.Project{
			ID:           r.ID,
			Name:         r.Name,
			Notes:        r.Notes,
			Status:       status,
			Area:         nullableString(r.Area),
			Tags:         tags,
			DueDate:      r.DueDate,
			CreationDate: r.CreatedAt.Ptr(),
		})
	}
	return projects, nil
}

// InsertProject stores a new project, generating an ID when missing.
func (s *Store) InsertProject(ctx context.Context, p tasks.Project) (tasks.Project, error) {
	if p.ID == "" {
		p.ID = types.NewItemID()
	}
	if p.Status == "" {
		p.Status = tasks.StatusOpen
	}
	if p.CreationDate == nil {
		now := s.now().UTC()
		p.CreationDate = &now
	}

	tags, err := jsonArg(p.Tags)
	if err != nil {
		return tasks.Project{}, fmt.Errorf("failed to encode tags: %w", err)
	}
	_, err = s.q.Exec(ctx, "insert-project",
		p.ID, p.Name, p.Notes, string(p.Status), p.Area, tags, p.DueDate, timeArg(p.CreationDate),
	)
	if err != nil {
		return tasks.Project{}, fmt.Errorf("failed to insert project %s: %w", p.ID, err)
	}
	return p, nil
}

// ListAreas returns every area ordered by ID.
func (s *Store) ListAreas(ctx context.Context) ([]tasks.Area, error) {
	var rows []areaRow
	if err := s.q.Select(ctx, "list-areas", &rows); err != nil {
		return nil, fmt.Errorf("failed to list areas: %w", err)
	}

	areas := make([]tasks.Area, 0, len(rows))
	for _, r := range rows {
		tags, err := decodeJSONList[string]("tags", r.Tags)
		if err != nil {
			return nil, fmt.Errorf("area %s: %w", r.ID, err)
		}
		areas = append(areas, tasks.Area{ID: r.ID, Name: r.Name, Tags: tags})
	}
	return areas, nil
}

// InsertArea stores a new area, generating an ID when missing.
func (s *Store) InsertArea(ctx context.Context, a tasks.Area) (tasks.Area, error) {
	if a.ID == "" {
		a.ID = types.NewItemID()
	}
	tags, err := jsonArg(a.Tags)
	if err != nil {
		return tasks.Area{}, fmt.Errorf("failed to encode tags: %w", err)
	}
	if _, err := s.q.Exec(ctx, "insert-area", a.ID, a.Name, tags); err != nil {
		return tasks.Area{}, fmt.Errorf("failed to insert area %s: %w", a.ID, err)
	}
	return a, nil
}

// Items loads every stored record of kind. JSON records are never stored.
func (s *Store) Items(ctx context.Context, kind tasks.Kind) ([]filter.Filterable, error) {
	switch kind {
	case tasks.KindTodos:
		todos, err := s.ListTodos(ctx)
		if err != nil {
			return nil, err
		}
		return tasks.AsFilterable(todos), nil
	case tasks.KindProjects:
		projects, err := s.ListProjects(ctx)
		if err != nil {
			return nil, err
		}
		return tasks.AsFilterable(projects), nil
	case tasks.KindAreas:
		areas, err := s.ListAreas(ctx)
		if err != nil {
			return nil, err
		}
		return tasks.AsFilterable(areas), nil
	default:
		return nil, fmt.Errorf("%w: %q is not stored in the database", types.ErrUnknownKind, kind)
	}
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
