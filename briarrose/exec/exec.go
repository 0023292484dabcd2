// Package exec provides an abstraction around the processes briarrose spawns
// and signals, for easier testing.
package exec

import (
	"context"
	"io"
	"os"
	osexec "os/exec"
	"runtime"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Process describes a spawned command process whose standard output is read
// by the caller.
type Process interface {
	PID() int
	Stdout() io.Reader
	Signal(os.Signal) error
	Kill() error
	// Wait waits for the process to exit. Stdout must be fully consumed
	// before Wait is called.
	Wait() ExitStatus
}

// ExitStatus is a process' exit status.
type ExitStatus struct {
	PID   int
	Code  int // -1 if killed by a signal
	Error error
}

type process struct {
	cmd    *osexec.Cmd
	stdout io.ReadCloser
}

var _ Process = (*process)(nil)

// StartProcess starts a new command process on the system with its standard
// output piped to the caller. Its standard error is inherited. The process
// leads its own process group, and the calling goroutine stays locked to its
// OS thread.
func StartProcess(argv []string) (Process, error) {
	if len(argv) == 0 {
		return nil, errors.New("empty command")
	}

	// Lock this goroutine to the OS thread for Pdeathsig, which fires when the
	// spawning thread exits. See https://github.com/golang/go/issues/27505.
	runtime.LockOSThread()

	cmd := osexec.Command(argv[0], argv[1:]...)
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{
		// Linux-only: the watcher must not outlive us, otherwise it would
		// keep running unobserved after a crash.
		Pdeathsig: syscall.SIGTERM,
		// The watcher may be a wrapper script whose children share its
		// stdout. Kill signals the whole group so that the pipe closes.
		Setpgid: true,
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "failed to pipe stdout")
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "failed to start %q", argv[0])
	}

	return &process{cmd, stdout}, nil
}

func (proc *process) PID() int {
	return proc.cmd.Process.Pid
}

func (proc *process) Stdout() io.Reader {
	return proc.stdout
}

func (proc *process) Signal(sig os.Signal) error {
	return proc.cmd.Process.Signal(sig)
}

// Kill kills the process and everything else in its process group.
func (proc *process) Kill() error {
	if err := unix.Kill(-proc.cmd.Process.Pid, unix.SIGKILL); err != nil {
		return proc.cmd.Process.Kill()
	}
	return nil
}

func (proc *process) Wait() ExitStatus {
	err := proc.cmd.Wait()

	status := ExitStatus{
		PID:  proc.cmd.Process.Pid,
		Code: proc.cmd.ProcessState.ExitCode(),
	}

	var exitErr *osexec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		status.Error = err
	}

	return status
}

// Output runs the command to completion and returns the first line of its
// standard output, without the line ending.
func Output(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", errors.New("empty command")
	}

	cmd := osexec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stderr = os.Stderr

	out, err := cmd.Output()
	if err != nil {
		return "", errors.Wrapf(err, "failed to run %q", argv[0])
	}

	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimRight(line, "\r"), nil
}

// Fields runs the command to completion and returns the whitespace-separated
// fields of its standard output. A command that exits with a non-zero status
// returns no fields and no error, since tools like pidof(8) report "nothing
// found" that way.
func Fields(ctx context.Context, argv []string) ([]string, error) {
	if len(argv) == 0 {
		return nil, errors.New("empty command")
	}

	cmd := osexec.CommandContext(ctx, argv[0], argv[1:]...)

	out, err := cmd.Output()
	if err != nil {
		var exitErr *osexec.ExitError
		if errors.As(err, &exitErr) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to run %q", argv[0])
	}

	return strings.Fields(string(out)), nil
}
