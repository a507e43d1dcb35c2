package bulk

import (
	"context"
	"log/slog"
	"slices"

	"github.com/solatis/sieve/internal/filter"
	"github.com/solatis/sieve/internal/tasks"
)

// Operation selects todos with Filter and applies Action to each.
type Operation struct {
	Filter filter.Expr
	Action Action
	DryRun bool
}

// NewOperation compiles query under the engine's limits.
func NewOperation(engine *filter.Engine, query string, action Action, dryRun bool) (Operation, error) {
	compiled, err := engine.Compile(query)
	if err != nil {
		return Operation{}, err
	}
	return Operation{Filter: compiled.Expr, Action: action, DryRun: dryRun}, nil
}

// All builds an operation over every todo regardless of status.
func All(action Action, dryRun bool) Operation {
	everyStatus := filter.Condition{
		Field:    "status",
		Operator: filter.OpIn,
		Value: filter.ListValue(
			string(tasks.StatusOpen),
			string(tasks.StatusCompleted),
			string(tasks.StatusCanceled),
		),
	}
	return Operation{Filter: everyStatus, Action: action, DryRun: dryRun}
}

// Result is the outcome for one selected todo. Changed is false when the
// todo already satisfied the action and no write was made.
type Result struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Changed bool   `json:"changed"`
	Error   string `json:"error,omitempty"`
}

// Summary reports a whole operation.
type Summary struct {
	Action    string   `json:"action"`
	DryRun    bool     `json:"dryRun"`
	Matched   int      `json:"matched"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Results   []Result `json:"results"`
}

func (s *Summary) succeed(todo tasks.Todo, changed bool) {
	s.Succeeded++
	s.Results = append(s.Results, Result{ID: todo.ID, Name: todo.Name, Success: true, Changed: changed})
}

func (s *Summary) fail(todo tasks.Todo, err error) {
	s.Failed++
	s.Results = append(s.Results, Result{ID: todo.ID, Name: todo.Name, Error: err.Error()})
}

// TodoUpdater persists a mutated todo. Implemented by *db.Store.
type TodoUpdater interface {
	UpdateTodo(ctx context.Context, todo tasks.Todo) (tasks.Todo, error)
}

// Executor runs operations against a TodoUpdater.
type Executor struct {
	updater TodoUpdater
	logger  *slog.Logger
}

// NewExecutor creates an executor. A nil logger uses slog.Default().
func NewExecutor(updater TodoUpdater, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{updater: updater, logger: logger}
}

// Execute applies op to the todos its filter selects, in input order.
// Failures on individual todos are recorded in the summary and do not stop
// the run; only context cancellation returns an error, together with the
// partial summary.
func (e *Executor) Execute(ctx context.Context, todos []tasks.Todo, op Operation) (Summary, error) {
	matching := filter.FilterItems(todos, op.Filter)
	summary := Summary{
		Action:  op.Action.String(),
		DryRun:  op.DryRun,
		Matched: len(matching),
		Results: make([]Result, 0, len(matching)),
	}

	if op.DryRun {
		for _, todo := range matching {
			summary.succeed(todo, false)
		}
		e.logger.Info("bulk dry run", "action", summary.Action, "matched", summary.Matched)
		return summary, nil
	}

	for _, todo := range matching {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		// Apply may grow Tags; keep the caller's slice untouched.
		todo.Tags = slices.Clone(todo.Tags)
		changed, err := op.Action.Apply(&todo)
		if err != nil {
			e.logger.Warn("bulk action failed", "id", todo.ID, "action", summary.Action, "error", err)
			summary.fail(todo, err)
			continue
		}
		if !changed {
			summary.succeed(todo, false)
			continue
		}

		if _, err := e.updater.UpdateTodo(ctx, todo); err != nil {
			e.logger.Warn("bulk update failed", "id", todo.ID, "action", summary.Action, "error", err)
			summary.fail(todo, err)
			continue
		}
		summary.succeed(todo, true)
	}

	e.logger.Info("bulk operation finished",
		"action", summary.Action,
		"matched", summary.Matched,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
	)
	return summary, nil
}
