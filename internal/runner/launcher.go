package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
)

// Launcher starts the trainer for one invocation and waits for it to exit.
// A process that ran and exited reports its status with a nil error. A
// process that could not be started, or was terminated by a signal, reports
// -1 and an error saying why.
type Launcher interface {
	Launch(ctx context.Context, inv Invocation) (exitCode int, err error)
}

// ProcessLauncher runs the trainer as a child process whose output goes
// straight to the given writers.
type ProcessLauncher struct {
	Stdout  io.Writer
	Stderr  io.Writer
	Environ func() []string
}

// NewProcessLauncher creates a launcher wired to the orchestrator's streams.
func NewProcessLauncher() *ProcessLauncher {
	return &ProcessLauncher{Stdout: os.Stdout, Stderr: os.Stderr, Environ: os.Environ}
}

// Launch implements Launcher. There is no timeout.
func (p *ProcessLauncher) Launch(ctx context.Context, inv Invocation) (int, error) {
	cmd := exec.CommandContext(ctx, inv.Command, inv.Args...)
	environ := p.Environ
	if environ == nil {
		environ = os.Environ
	}
	// Later entries win, so Env overrides an inherited CUDA_VISIBLE_DEVICES.
	cmd.Env = append(environ(), inv.Env...)
	cmd.Stdout = p.Stdout
	cmd.Stderr = p.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return -1, &SignalError{Signal: ws.Signal()}
		}
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("failed to run %s: %w", inv.Command, err)
}

// SignalError reports a trainer that was terminated by a signal, e.g. the
// OOM killer's SIGKILL.
type SignalError struct {
	Signal syscall.Signal
}

func (e *SignalError) Error() string {
	return "trainer terminated by signal: " + e.Signal.String()
}

// DryRunLauncher prints each command line instead of running it.
type DryRunLauncher struct {
	Out io.Writer
}

// Launch implements Launcher.
func (d *DryRunLauncher) Launch(_ context.Context, inv Invocation) (int, error) {
	_, err := fmt.Fprintf(d.Out, "[dry-run] %s\n", inv.CommandLine())
	return 0, err
}
