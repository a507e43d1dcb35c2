// Package bulk applies one action to every todo a filter query selects.
package bulk

import (
	"fmt"
	"strings"

	"github.com/solatis/sieve/internal/filter"
	"github.com/solatis/sieve/internal/tasks"
	"github.com/solatis/sieve/internal/types"
)

// ActionKind names a bulk mutation.
type ActionKind string

const (
	ActionComplete      ActionKind = "complete"
	ActionCancel        ActionKind = "cancel"
	ActionTag           ActionKind = "tag"
	ActionUntag         ActionKind = "untag"
	ActionMoveToProject ActionKind = "move-to-project"
	ActionMoveToArea    ActionKind = "move-to-area"
	ActionSetDue        ActionKind = "set-due"
	ActionClearDue      ActionKind = "clear-due"
)

// ActionKinds lists every action in help order.
var ActionKinds = []ActionKind{
	ActionComplete, ActionCancel, ActionTag, ActionUntag,
	ActionMoveToProject, ActionMoveToArea, ActionSetDue, ActionClearDue,
}

// Action is a mutation plus its arguments. Only the fields relevant to Kind
// are set.
type Action struct {
	Kind   ActionKind
	Tags   []string   // tag, untag
	Target string     // move-to-project, move-to-area
	Due    types.Date // set-due
}

func Complete() Action                 { return Action{Kind: ActionComplete} }
func Cancel() Action                   { return Action{Kind: ActionCancel} }
func Tag(tags ...string) Action        { return Action{Kind: ActionTag, Tags: tags} }
func Untag(tags ...string) Action      { return Action{Kind: ActionUntag, Tags: tags} }
func MoveToProject(name string) Action { return Action{Kind: ActionMoveToProject, Target: name} }
func MoveToArea(name string) Action    { return Action{Kind: ActionMoveToArea, Target: name} }
func SetDue(d types.Date) Action       { return Action{Kind: ActionSetDue, Due: d} }
func ClearDue() Action                 { return Action{Kind: ActionClearDue} }

// ParseAction builds an Action from command-line words. Dates for set-due
// go through resolver, so "tomorrow" and "in 3 days" work.
func ParseAction(kind string, args []string, resolver filter.DateResolver) (Action, error) {
	switch k := ActionKind(strings.ToLower(kind)); k {
	case ActionComplete, ActionCancel, ActionClearDue:
		if len(args) != 0 {
			return Action{}, fmt.Errorf("%s takes no arguments", k)
		}
		return Action{Kind: k}, nil

	case ActionTag, ActionUntag:
		tags := splitTags(args)
		if len(tags) == 0 {
			return Action{}, fmt.Errorf("%s requires at least one tag", k)
		}
		return Action{Kind: k, Tags: tags}, nil

	case ActionMoveToProject, ActionMoveToArea:
		target := strings.TrimSpace(strings.Join(args, " "))
		if target == "" {
			return Action{}, fmt.Errorf("%s requires a name", k)
		}
		return Action{Kind: k, Target: target}, nil

	case ActionSetDue:
		if len(args) != 1 {
			return Action{}, fmt.Errorf("%s requires exactly one date", k)
		}
		if resolver == nil {
			return Action{}, fmt.Errorf("%s: no date resolver", k)
		}
		d, ok := resolver.ResolveDate(args[0])
		if !ok {
			return Action{}, fmt.Errorf("%w: %q", types.ErrInvalidDate, args[0])
		}
		return SetDue(d), nil

	default:
		return Action{}, fmt.Errorf("unknown bulk action %q", kind)
	}
}

// splitTags accepts both "a b" and "a,b".
func splitTags(args []string) []string {
	var tags []string
	for _, arg := range args {
		for _, tag := range strings.Split(arg, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	return tags
}

func (a Action) String() string {
	switch a.Kind {
	case ActionTag:
		return "tag with " + strings.Join(a.Tags, ", ")
	case ActionUntag:
		return "remove tags " + strings.Join(a.Tags, ", ")
	case ActionMoveToProject:
		return fmt.Sprintf("move to project '%s'", a.Target)
	case ActionMoveToArea:
		return fmt.Sprintf("move to area '%s'", a.Target)
	case ActionSetDue:
		return "set due date to " + a.Due.String()
	case ActionClearDue:
		return "clear due date"
	default:
		return string(a.Kind)
	}
}

// Apply mutates todo in place and reports whether anything changed.
func (a Action) Apply(todo *tasks.Todo) (bool, error) {
	switch a.Kind {
	case ActionComplete:
		return setStatus(todo, tasks.StatusCompleted), nil
	case ActionCancel:
		return setStatus(todo, tasks.StatusCanceled), nil

	case ActionTag:
		changed := false
		for _, tag := range a.Tags {
			changed = todo.AddTag(tag) || changed
		}
		return changed, nil
	case ActionUntag:
		changed := false
		for _, tag := range a.Tags {
			changed = todo.RemoveTag(tag) || changed
		}
		return changed, nil

	case ActionMoveToProject:
		return setOptional(&todo.Project, a.Target), nil
	case ActionMoveToArea:
		return setOptional(&todo.Area, a.Target), nil

	case ActionSetDue:
		if todo.DueDate != nil && *todo.DueDate == a.Due {
			return false, nil
		}
		due := a.Due
		todo.DueDate = &due
		return true, nil
	case ActionClearDue:
		if todo.DueDate == nil {
			return false, nil
		}
		todo.DueDate = nil
		return true, nil

	default:
		return false, fmt.Errorf("unknown bulk action %q", a.Kind)
	}
}

func setStatus(todo *tasks.Todo, status tasks.Status) bool {
	if todo.Status == status {
		return false
	}
	todo.Status = status
	return true
}

func setOptional(field **string, value string) bool {
	if *field != nil && **field == value {
		return false
	}
	*field = &value
	return true
}
