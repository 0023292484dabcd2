package briarrose

import (
	"context"
	"sync"

	"git.unix.lgbt/diamondburned/briarrose/briarrose/exec"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ErrWatchEnded is returned by Run if the watcher output ends. The watch tool
// is expected to run forever, so this is a failure.
var ErrWatchEnded = errors.New("screen locker watcher output ended")

// Prober queries the current screen locker status once.
type Prober interface {
	Status(ctx context.Context) (string, error)
}

// ProberFunc is a function that implements Prober.
type ProberFunc func(ctx context.Context) (string, error)

// Status calls f.
func (f ProberFunc) Status(ctx context.Context) (string, error) { return f(ctx) }

// CommandProber returns a prober that runs the given command and returns the
// first line of its output.
func CommandProber(argv []string) Prober {
	return ProberFunc(func(ctx context.Context) (string, error) {
		return exec.Output(ctx, argv)
	})
}

// DaemonOptions contains the collaborators of a Daemon.
type DaemonOptions struct {
	// ConfigPath is the rule file, read on startup and on every STOP.
	ConfigPath string

	Resolver    *Resolver
	Broadcaster *Broadcaster
	Prober      Prober
	StatusTable *Table
	WatchTable  *Table
	Journal     Journaler
}

// Daemon stops and resumes the tracked processes in response to screen locker
// events. All methods must be called from the same goroutine.
type Daemon struct {
	DaemonOptions

	tracked PIDSet
	// stopped holds the PIDs that were sent SIGSTOP but no SIGCONT since.
	stopped PIDSet
	reason  string

	closeOnce sync.Once
}

// NewDaemon creates a daemon and resolves the initial tracked set from the
// rule file. If the file cannot be read, the daemon starts with an empty set.
//
// The caller must call Close once the daemon is created, no matter how it
// exits, so the tracked processes are never left stopped.
func NewDaemon(ctx context.Context, opts DaemonOptions) *Daemon {
	d := &Daemon{
		DaemonOptions: opts,
		tracked:       NewPIDSet(),
		stopped:       NewPIDSet(),
		reason:        "exit",
	}

	d.Reload(ctx)
	return d
}

// Tracked returns a copy of the tracked set.
func (d *Daemon) Tracked() PIDSet {
	return d.tracked.Clone()
}

// Start queries the screen locker status once and reacts to it. The rule file
// is not reloaded, since NewDaemon just did so.
func (d *Daemon) Start(ctx context.Context) error {
	status, err := d.Prober.Status(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to query the screen locker status")
	}

	reaction, err := d.classify(d.StatusTable, status)
	if err != nil {
		d.reason = "unclassified status"
		return err
	}

	d.Dispatch(ctx, reaction, false)
	return nil
}

// Run handles lines until the context is canceled, in which case nil is
// returned, or until lines is closed, in which case ErrWatchEnded is returned.
// An *UnclassifiedError is returned if a line matches no watch table entry.
func (d *Daemon) Run(ctx context.Context, lines <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			d.reason = "interrupted"
			return nil

		case line, ok := <-lines:
			if !ok {
				// The watcher is killed once ctx is done, so its output may
				// end first.
				if ctx.Err() != nil {
					d.reason = "interrupted"
					return nil
				}

				d.reason = "watcher ended"
				return ErrWatchEnded
			}

			if err := d.Handle(ctx, line); err != nil {
				d.reason = "unclassified event"
				return err
			}
		}
	}
}

// Handle classifies a single watcher line and reacts to it.
func (d *Daemon) Handle(ctx context.Context, line string) error {
	reaction, err := d.classify(d.WatchTable, line)
	if err != nil {
		return err
	}

	d.Dispatch(ctx, reaction, true)
	return nil
}

func (d *Daemon) classify(table *Table, text string) (Reaction, error) {
	reaction, err := table.Classify(text)
	if err != nil {
		return 0, err
	}

	d.Journal.Write(&EventReaction{
		Table:    table.Name(),
		Text:     text,
		Reaction: reaction.String(),
	})

	return reaction, nil
}

// Dispatch performs the reaction. If reload is true, a STOP reloads the rule
// file before stopping the processes.
func (d *Daemon) Dispatch(ctx context.Context, reaction Reaction, reload bool) {
	switch reaction {
	case ReactionStop:
		if reload {
			d.Reload(ctx)
		}
		d.Broadcaster.Broadcast(unix.SIGSTOP, d.tracked)
		d.stopped.Union(d.tracked)

	case ReactionCont:
		d.resume(d.tracked)

	case ReactionIgnore:
	}
}

// Reload resolves the rule file again and replaces the tracked set. On
// failure, the tracked set is kept as is and false is returned.
//
// Processes that were stopped but are no longer tracked are resumed, since
// nothing would ever resume them otherwise.
func (d *Daemon) Reload(ctx context.Context) bool {
	pids, err := d.Resolver.ResolveFile(ctx, d.ConfigPath)
	if err != nil {
		d.Journal.Write(&EventConfigError{
			Source: d.ConfigPath,
			Error:  err.Error(),
			Kept:   d.tracked.Len(),
		})
		return false
	}

	released := d.stopped.Clone()
	released.Difference(pids)
	d.resume(released)

	d.tracked = pids
	return true
}

func (d *Daemon) resume(pids PIDSet) {
	if pids.Len() == 0 {
		return
	}

	d.Broadcaster.Broadcast(unix.SIGCONT, pids)
	d.stopped.Difference(pids)
}

// Close resumes every tracked process. It is safe to call more than once;
// only the first call does anything.
func (d *Daemon) Close() error {
	d.closeOnce.Do(func() {
		pids := d.tracked.Clone()
		pids.Union(d.stopped)

		d.Journal.Write(&EventShutdown{
			Reason: d.reason,
			PIDs:   pids.Sorted(),
		})

		d.Broadcaster.Broadcast(unix.SIGCONT, pids)
		d.stopped = NewPIDSet()
	})

	return nil
}
