// Package lookup resolves process names into PIDs.
package lookup

import (
	"context"
	"strconv"

	"git.unix.lgbt/diamondburned/briarrose/briarrose"
	"git.unix.lgbt/diamondburned/briarrose/briarrose/exec"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/process"
)

// Backend names accepted by New.
const (
	BackendPidof     = "pidof"
	BackendProcTable = "proctable"
)

// New returns the lookup for the given backend name. The pidof backend runs
// the given command with the process name appended.
func New(backend string, pidofCommand []string) (briarrose.Lookup, error) {
	switch backend {
	case BackendPidof, "":
		return Pidof(pidofCommand), nil
	case BackendProcTable:
		return ProcTable{}, nil
	default:
		return nil, errors.Errorf("unknown lookup backend %q", backend)
	}
}

// Pidof returns a lookup that runs pidof(8), or a compatible command printing
// whitespace-separated PIDs, with the process name as its last argument. A
// command failing with a non-zero exit status means no process was found.
func Pidof(argv []string) briarrose.Lookup {
	if len(argv) == 0 {
		argv = []string{"pidof"}
	}

	return briarrose.LookupFunc(func(ctx context.Context, name string) ([]int, error) {
		cmd := append(append([]string(nil), argv...), name)

		fields, err := exec.Fields(ctx, cmd)
		if err != nil {
			return nil, err
		}

		return parsePIDs(fields)
	})
}

func parsePIDs(fields []string) ([]int, error) {
	pids := make([]int, 0, len(fields))

	for _, field := range fields {
		pid, err := strconv.Atoi(field)
		if err != nil {
			return nil, errors.Wrapf(err, "unexpected pidof output %q", field)
		}
		pids = append(pids, pid)
	}

	return pids, nil
}

// ProcTable is a lookup that scans the process table instead of running a
// command. A process matches if its name, as the kernel reports it, equals
// the given name.
type ProcTable struct{}

// PIDsOf implements briarrose.Lookup.
func (ProcTable) PIDsOf(ctx context.Context, name string) ([]int, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list processes")
	}

	var pids []int

	for _, proc := range procs {
		// Processes may exit while we iterate.
		procName, err := proc.NameWithContext(ctx)
		if err != nil {
			continue
		}

		if procName == name {
			pids = append(pids, int(proc.Pid))
		}
	}

	return pids, nil
}

// Describe returns the name of the process with the given PID, or an empty
// string if it cannot be found.
func Describe(ctx context.Context, pid int) string {
	proc, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return ""
	}

	name, err := proc.NameWithContext(ctx)
	if err != nil {
		return ""
	}

	return name
}
