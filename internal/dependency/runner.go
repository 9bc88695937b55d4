package dependency

import (
	"bytes"
	"context"
	"os/exec"
)

// CommandRunner runs a short-lived tool and returns its stdout
type CommandRunner interface {
	// Output returns stdout even when the command exits non-zero
	Output(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

// Output implements CommandRunner
func (ExecRunner) Output(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	err := cmd.Run()
	return stdout.Bytes(), err
}
