package taskgraph

import (
	"strings"

	"github.com/rotisserie/eris"
)

// visit states for the prerequisite walk
const (
	unvisited = iota
	visiting
	visited
)

// Resolve computes the execution order for the named task: a depth-first
// post-order walk over the prerequisite lists, so every prerequisite appears
// before its dependent and each task appears exactly once no matter how many
// paths reach it. Prerequisites run in their declared order; declaration
// order of the tasks themselves doesn't matter.
//
// A back-edge to a task currently being visited is a configuration error and
// fails with ErrCycle plus the witness path.
func (r *Registry) Resolve(name string) ([]*Task, error) {
	state := make(map[string]int, len(r.tasks))
	stack := make([]string, 0, 8)
	order := make([]*Task, 0, len(r.tasks))

	var walk func(name, referrer string) error
	walk = func(name, referrer string) error {
		switch state[name] {
		case visited:
			return nil
		case visiting:
			return eris.Wrapf(ErrCycle, "%s", witness(stack, name))
		}

		task, ok := r.tasks[name]
		if !ok {
			if referrer == "" {
				return eris.Wrapf(ErrUnknownTask, "%s", name)
			}
			return eris.Wrapf(ErrUnknownTask, "%s (required by %s)", name, referrer)
		}

		state[name] = visiting
		stack = append(stack, name)

		for _, dep := range task.Deps {
			err := walk(dep, name)
			if err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		state[name] = visited
		order = append(order, task)
		return nil
	}

	err := walk(name, "")
	if err != nil {
		return nil, err
	}

	return order, nil
}

// witness renders the cycle path from the point where head first appears on
// the stack, e.g. "A -> B -> A".
func witness(stack []string, head string) string {
	start := 0
	for idx, name := range stack {
		if name == head {
			start = idx
			break
		}
	}

	return strings.Join(append(append([]string(nil), stack[start:]...), head), " -> ")
}
