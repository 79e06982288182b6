package taskgraph

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// ScriptOptions configure how a hook task's shell snippet runs.
type ScriptOptions struct {
	// Dir is the working directory for the snippet.
	Dir string
	// Env is the full environment; the resolved search path should already
	// be baked in.
	Env []string
	// DryRun only logs the statements without executing them.
	DryRun bool
}

// ScriptTask wraps a shell snippet from the dependency manifest into a Task.
// The snippet runs through the embedded shell runtime with -e semantics, so
// the first failing statement fails the task.
func ScriptTask(name, desc string, deps []string, snippet string, opts ScriptOptions) Task {
	return Task{
		Name: name,
		Desc: desc,
		Deps: deps,
		Action: func(ctx context.Context) error {
			return runScript(ctx, name, snippet, opts)
		},
	}
}

func runScript(ctx context.Context, name, snippet string, opts ScriptOptions) error {
	parser := syntax.NewParser()
	script, err := parser.Parse(strings.NewReader(snippet), name)
	if err != nil {
		return eris.Wrapf(err, "failed to parse the %s hook", name)
	}

	env := opts.Env
	if env == nil {
		env = os.Environ()
	}

	runner, err := interp.New(
		interp.Dir(opts.Dir),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, os.Stdout, os.Stderr),
		interp.Params("-e"),
	)
	if err != nil {
		return eris.Wrap(err, "failed to initialize the shell runtime")
	}

	printer := syntax.NewPrinter(syntax.Minify(true))
	strBuffer := strings.Builder{}

	for _, stmt := range script.Stmts {
		strBuffer.Reset()
		printer.Print(&strBuffer, stmt)
		log(ctx).Info().
			Str("task", name).
			Bool("command", true).
			Msg(strBuffer.String())

		if opts.DryRun {
			continue
		}

		err = runner.Run(ctx, stmt)
		if err != nil {
			return err
		}

		if runner.Exited() {
			return nil
		}
	}

	return nil
}
