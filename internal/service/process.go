package service

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"stackmon/internal/constants"
)

// ProcessSpec describes a process to launch
type ProcessSpec struct {
	Name    string
	Command string
	Args    []string
	Dir     string
	// Env is the complete environment of the child, KEY=VALUE pairs
	Env []string
	// LogPath receives stdout and stderr; empty discards output
	LogPath string
}

// Process is a handle on a launched process
type Process interface {
	Pid() int
	// Terminate asks the process to exit
	Terminate() error
	// Kill forces the process to exit
	Kill() error
	// Done is closed once the process has exited
	Done() <-chan struct{}
	// Err returns the exit error once Done is closed
	Err() error
}

// Launcher starts processes
type Launcher interface {
	Launch(ctx context.Context, spec ProcessSpec) (Process, error)
}

// ExecLauncher launches processes with os/exec
type ExecLauncher struct{}

// Launch starts the process in its own process group. The process is not
// bound to ctx: it outlives the request that started it.
func (ExecLauncher) Launch(ctx context.Context, spec ProcessSpec) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	cmd.Stdin = nil
	setProcessGroup(cmd)

	var logFile *os.File
	if spec.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(spec.LogPath), constants.DirPermissions); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(spec.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, constants.FilePermissions)
		if err != nil {
			return nil, err
		}
		logFile = f
		cmd.Stdout = f
		cmd.Stderr = f
	} else {
		cmd.Stdout = io.Discard
		cmd.Stderr = io.Discard
	}

	if err := cmd.Start(); err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, err
	}

	p := &execProcess{cmd: cmd, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		if logFile != nil {
			logFile.Close()
		}
		p.mu.Lock()
		p.err = err
		p.mu.Unlock()
		close(p.done)
	}()
	return p, nil
}

type execProcess struct {
	cmd  *exec.Cmd
	done chan struct{}

	mu  sync.Mutex
	err error
}

func (p *execProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Terminate() error {
	return terminateGroup(p.cmd)
}

func (p *execProcess) Kill() error {
	return killGroup(p.cmd)
}

func (p *execProcess) Done() <-chan struct{} {
	return p.done
}

func (p *execProcess) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// exited reports whether p has finished without blocking
func exited(p Process) bool {
	select {
	case <-p.Done():
		return true
	default:
		return false
	}
}
