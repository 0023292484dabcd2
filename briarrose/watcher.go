package briarrose

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"git.unix.lgbt/diamondburned/briarrose/briarrose/exec"
)

// Watcher runs the screen locker watch tool and forwards its output lines.
type Watcher struct {
	// Lines receives every output line. It is closed once the output ends or
	// the watcher is stopped.
	Lines chan string

	proc exec.Process
	j    Journaler

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// StartWatcher spawns the watch tool and starts forwarding its lines. The
// watcher is stopped once the given context is canceled or Stop is called.
func StartWatcher(ctx context.Context, argv []string, j Journaler) (*Watcher, error) {
	proc, err := exec.StartProcess(argv)
	if err != nil {
		return nil, err
	}

	j.Write(&EventWatcherStarted{
		PID:  proc.PID(),
		Argv: argv,
	})

	return WatchProcess(ctx, proc, j), nil
}

// WatchProcess forwards the lines of an already started process.
func WatchProcess(ctx context.Context, proc exec.Process, j Journaler) *Watcher {
	w := &Watcher{
		Lines: make(chan string),
		proc:  proc,
		j:     j,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}

	go w.watch(ctx)

	return w
}

// Stop kills the watch tool and waits until the forwarding routine exits.
// Lines that were not received yet are dropped.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	w.proc.Kill()
	<-w.done
}

func (w *Watcher) watch(ctx context.Context) {
	defer close(w.done)
	defer close(w.Lines)

	scanner := bufio.NewScanner(w.proc.Stdout())

scan:
	for scanner.Scan() {
		select {
		case w.Lines <- scanner.Text():
			continue
		case <-w.stop:
			break scan
		case <-ctx.Done():
			w.proc.Kill()
			break scan
		}
	}

	// Drain whatever is left so the process can be reaped.
	io.Copy(io.Discard, w.proc.Stdout())

	status := w.proc.Wait()

	ev := EventWatcherStopped{PID: status.PID}
	switch {
	case status.Error != nil:
		ev.Error = status.Error.Error()
	case scanner.Err() != nil:
		ev.Error = scanner.Err().Error()
	case status.Code != 0:
		ev.Error = fmt.Sprintf("exit status %d", status.Code)
	}

	w.j.Write(&ev)
}
