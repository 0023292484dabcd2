package briarrose

import (
	"git.unix.lgbt/diamondburned/briarrose/briarrose/exec"
	"golang.org/x/sys/unix"
)

// Broadcaster sends a signal to every PID of a set.
type Broadcaster struct {
	Signaler exec.Signaler
	Journal  Journaler
	// DryRun journals the deliveries instead of performing them.
	DryRun bool
}

// NewBroadcaster creates a new broadcaster.
func NewBroadcaster(signaler exec.Signaler, j Journaler, dryRun bool) *Broadcaster {
	return &Broadcaster{
		Signaler: signaler,
		Journal:  j,
		DryRun:   dryRun,
	}
}

// Broadcast sends sig to the PIDs in ascending order. A failed delivery is
// journaled and does not stop the broadcast, since processes may exit at any
// time. The number of successful deliveries is returned.
func (b *Broadcaster) Broadcast(sig unix.Signal, pids PIDSet) int {
	name := exec.SignalName(sig)
	var sent int

	for _, pid := range pids.Sorted() {
		if b.DryRun {
			b.Journal.Write(&EventSignal{PID: pid, Signal: name, DryRun: true})
			sent++
			continue
		}

		if err := b.Signaler.Signal(pid, sig); err != nil {
			b.Journal.Write(&EventSignalError{
				PID:    pid,
				Signal: name,
				Error:  err.Error(),
			})
			continue
		}

		b.Journal.Write(&EventSignal{PID: pid, Signal: name})
		sent++
	}

	return sent
}
