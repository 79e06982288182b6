package taskgraph

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestScriptTaskRuns(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	reg := NewRegistry()
	reg.Define(ctx, ScriptTask("hook", "writes a marker", nil, "echo done > marker.txt", ScriptOptions{
		Dir: dir,
		Env: os.Environ(),
	}))

	err := reg.Run(ctx, "hook")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "marker.txt"))
	if err != nil {
		t.Fatalf("the hook didn't create its marker file: %v", err)
	}
	if string(data) != "done\n" {
		t.Errorf("marker content = %q, expected %q", data, "done\n")
	}
}

func TestScriptTaskDryRun(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	task := ScriptTask("hook", "", nil, "echo oops > marker.txt", ScriptOptions{
		Dir:    dir,
		Env:    os.Environ(),
		DryRun: true,
	})

	err := task.Action(ctx)
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}

	_, err = os.Stat(filepath.Join(dir, "marker.txt"))
	if err == nil {
		t.Error("dry run still executed the snippet")
	}
}

func TestScriptTaskFailure(t *testing.T) {
	ctx := context.Background()

	task := ScriptTask("hook", "", nil, "false", ScriptOptions{
		Dir: t.TempDir(),
		Env: os.Environ(),
	})

	err := task.Action(ctx)
	if err == nil {
		t.Error("a failing snippet didn't fail the task")
	}
}

func TestScriptTaskParseError(t *testing.T) {
	ctx := context.Background()

	task := ScriptTask("hook", "", nil, "if then fi (", ScriptOptions{
		Dir: t.TempDir(),
		Env: os.Environ(),
	})

	err := task.Action(ctx)
	if err == nil {
		t.Error("an unparseable snippet didn't fail the task")
	}
}
