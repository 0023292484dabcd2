package briarrose

import (
	"context"
	"reflect"
	"testing"
	"time"

	"git.unix.lgbt/diamondburned/briarrose/briarrose/exec"
)

func collectLines(t *testing.T, lines <-chan string, n int) []string {
	t.Helper()

	var got []string
	timeout := time.After(5 * time.Second)

	for len(got) < n {
		select {
		case line, ok := <-lines:
			if !ok {
				return got
			}
			got = append(got, line)
		case <-timeout:
			t.Fatalf("timed out after %d lines", len(got))
		}
	}

	return got
}

func waitClosed(t *testing.T, lines <-chan string) {
	t.Helper()

	timeout := time.After(5 * time.Second)

	for {
		select {
		case _, ok := <-lines:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for the lines to close")
		}
	}
}

func TestWatcherEOF(t *testing.T) {
	j := mockJournal{}
	proc := exec.NewScriptProcess(42, "RUN 0\nLOCK Mon Oct 19 13:00:00 2026\n", false)

	w := WatchProcess(context.Background(), proc, &j)

	lines := collectLines(t, w.Lines, 3)
	expect := []string{"RUN 0", "LOCK Mon Oct 19 13:00:00 2026"}

	if !reflect.DeepEqual(lines, expect) {
		t.Errorf("got lines %q, expected %q", lines, expect)
	}

	w.Stop()

	j.Verify(t, true, []Event{
		&EventWatcherStopped{PID: 42},
	})
}

func TestWatcherStop(t *testing.T) {
	j := mockJournal{}
	proc := exec.NewScriptProcess(42, "RUN 0\n", true)

	w := WatchProcess(context.Background(), proc, &j)

	if lines := collectLines(t, w.Lines, 1); len(lines) != 1 {
		t.Fatalf("expected a line, got %q", lines)
	}

	w.Stop()
	waitClosed(t, w.Lines)

	j.Verify(t, true, []Event{
		&EventWatcherStopped{PID: 42, Error: "exit status -1"},
	})
}

func TestWatcherContext(t *testing.T) {
	j := mockJournal{}
	proc := exec.NewScriptProcess(42, "RUN 0\nRUN 1\n", true)

	ctx, cancel := context.WithCancel(context.Background())
	w := WatchProcess(ctx, proc, &j)

	if lines := collectLines(t, w.Lines, 1); len(lines) != 1 {
		t.Fatalf("expected a line, got %q", lines)
	}

	// The second line is never received.
	cancel()
	w.Stop()

	if ev := j.Filter(&EventWatcherStopped{}); len(ev) != 1 {
		t.Errorf("expected 1 watcher stopped event, got %d", len(ev))
	}
}

func TestStartWatcher(t *testing.T) {
	j := mockJournal{}

	w, err := StartWatcher(context.Background(), []string{"echo", "LOCK Mon Oct 19 13:00:00 2026"}, &j)
	if err != nil {
		t.Fatal("failed to start watcher:", err)
	}

	lines := collectLines(t, w.Lines, 2)
	if expect := []string{"LOCK Mon Oct 19 13:00:00 2026"}; !reflect.DeepEqual(lines, expect) {
		t.Errorf("got lines %q, expected %q", lines, expect)
	}

	w.Stop()

	started := j.Filter(&EventWatcherStarted{})
	if len(started) != 1 {
		t.Fatalf("expected 1 watcher started event, got %d", len(started))
	}

	if ev := started[0].(*EventWatcherStarted); ev.PID < 1 {
		t.Errorf("unexpected watcher PID %d", ev.PID)
	}
}

func TestStartWatcherMissing(t *testing.T) {
	if _, err := StartWatcher(context.Background(), []string{"/nonexistent/xscreensaver-command"}, DiscardJournaler); err == nil {
		t.Fatal("expected an error for a missing watcher")
	}
}

func TestWatcherStopWrapper(t *testing.T) {
	j := mockJournal{}

	// The shell does not exec into sleep, so sleep holds the output pipe too.
	argv := []string{"sh", "-c", "echo RUN 0; sleep 30; :"}

	w, err := StartWatcher(context.Background(), argv, &j)
	if err != nil {
		t.Fatal("failed to start watcher:", err)
	}

	if lines := collectLines(t, w.Lines, 1); len(lines) != 1 {
		t.Fatalf("expected a line, got %q", lines)
	}

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop is blocked on the wrapped command")
	}

	if ev := j.Filter(&EventWatcherStopped{}); len(ev) != 1 {
		t.Errorf("expected 1 watcher stopped event, got %d", len(ev))
	}
}
