package taskgraph

import (
	"context"

	"github.com/rotisserie/eris"
)

// Run resolves and executes the named task and its transitive prerequisites,
// strictly sequentially. The first failing body aborts the remaining tasks;
// its error is wrapped with the failing task's name.
func (r *Registry) Run(ctx context.Context, name string) error {
	order, err := r.Resolve(name)
	if err != nil {
		return err
	}

	for _, task := range order {
		if err = ctx.Err(); err != nil {
			return err
		}

		if task.Action == nil {
			log(ctx).Debug().Str("task", task.Name).Msg("aggregate task, nothing to execute")
			continue
		}

		log(ctx).Info().Str("task", task.Name).Msg("running")
		err = task.Action(ctx)
		if err != nil {
			return eris.Wrapf(err, "task %s failed", task.Name)
		}
	}

	return nil
}
