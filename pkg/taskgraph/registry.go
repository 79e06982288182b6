package taskgraph

import (
	"context"
	"sort"
)

// Registry holds the defined tasks. It is not safe for concurrent use; the
// build is strictly single-threaded.
type Registry struct {
	tasks map[string]*Task
}

func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]*Task)}
}

// Define registers a task. Re-registration under the same name replaces the
// prior definition (last wins).
func (r *Registry) Define(ctx context.Context, task Task) {
	if _, exists := r.tasks[task.Name]; exists {
		log(ctx).Debug().Str("task", task.Name).Msg("replacing existing task definition")
	}

	r.tasks[task.Name] = &task
}

// Lookup returns the task registered under name.
func (r *Registry) Lookup(name string) (*Task, bool) {
	task, ok := r.tasks[name]
	return task, ok
}

// Tasks returns all visible tasks sorted by name.
func (r *Registry) Tasks() []*Task {
	result := make([]*Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		if !task.Hidden {
			result = append(result, task)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result
}
