package tasks

import (
	"context"
	"os"
	"os/exec"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// ExecFunc invokes an external process and waits for it. Arguments are always
// passed as an explicit list; nothing here splits or re-quotes command
// strings. Tests substitute this to record or fail invocations.
type ExecFunc func(ctx context.Context, dir string, env []string, name string, args ...string) error

func defaultExec(ctx context.Context, dir string, env []string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err != nil {
		return eris.Wrapf(err, "%s failed", name)
	}

	return nil
}

// run dispatches one external process invocation through the context's Exec
// seam, honoring dry runs.
func (b *BuildContext) run(ctx context.Context, dir, name string, args ...string) error {
	logger := zerolog.Ctx(ctx)
	logger.Info().Bool("command", true).Str("exe", name).Strs("args", args).Msg("exec")

	if b.DryRun {
		return nil
	}

	execFn := b.Exec
	if execFn == nil {
		execFn = defaultExec
	}

	return execFn(ctx, dir, b.Toolchain.Search.Environ(), name, args...)
}
