// Package taskgraph implements a small sequential build-task runner. Tasks
// are registered explicitly with their prerequisite names; running a task
// resolves the transitive prerequisites into a linear order (every
// prerequisite before its dependent, no task twice) and executes the bodies
// one at a time, aborting on the first failure.
package taskgraph

import (
	"context"

	"github.com/rotisserie/eris"
)

var (
	// ErrUnknownTask indicates a run or prerequisite reference to a name
	// that was never defined.
	ErrUnknownTask = eris.New("task not found")
	// ErrCycle indicates that the prerequisite graph is not acyclic.
	ErrCycle = eris.New("task cycle detected")
)

// ActionFunc is a task body. A nil body marks a pure aggregate task that only
// orders its prerequisites.
type ActionFunc func(ctx context.Context) error

// Task is a named unit of build work.
type Task struct {
	Name   string
	Desc   string
	Deps   []string
	Hidden bool
	Action ActionFunc
}
