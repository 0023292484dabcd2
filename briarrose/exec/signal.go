package exec

import (
	"os"

	"github.com/pkg/errors"
	"github.com/syndtr/gocapability/capability"
	"golang.org/x/sys/unix"
)

// Signaler delivers signals to arbitrary processes by PID.
type Signaler interface {
	Signal(pid int, sig unix.Signal) error
}

type killer struct{}

// Kill is the Signaler that delivers signals using kill(2).
var Kill Signaler = killer{}

func (killer) Signal(pid int, sig unix.Signal) error {
	// kill(2) addresses process groups with non-positive PIDs.
	if pid < 1 {
		return errors.Errorf("refusing to signal PID %d", pid)
	}

	if err := unix.Kill(pid, sig); err != nil {
		return errors.Wrapf(err, "failed to send %s to %d", SignalName(sig), pid)
	}

	return nil
}

// SignalName returns the conventional name of the signal, such as "SIGSTOP".
func SignalName(sig unix.Signal) string {
	if name := unix.SignalName(sig); name != "" {
		return name
	}
	return sig.String()
}

// CanSignalOthers returns true if the current process may send signals to
// processes owned by other users, which requires either root or CAP_KILL.
func CanSignalOthers() (bool, error) {
	if os.Geteuid() == 0 {
		return true, nil
	}

	caps, err := capability.NewPid(0)
	if err != nil {
		return false, errors.Wrap(err, "failed to read capabilities")
	}

	return caps.Get(capability.EFFECTIVE, capability.CAP_KILL), nil
}
