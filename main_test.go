package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"git.unix.lgbt/diamondburned/briarrose/briarrose"
	"git.unix.lgbt/diamondburned/briarrose/briarrose/lookup"
	"git.unix.lgbt/diamondburned/briarrose/briarrose/pidfile"
	"git.unix.lgbt/diamondburned/briarrose/briarrose/settings"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func parseArgs(args ...string) (*options, error) {
	var got *options

	cmd := newRootCommand(func(cmd *cobra.Command, opts *options) error {
		got = opts
		return nil
	})
	// A nil slice makes cobra fall back to os.Args.
	cmd.SetArgs(append([]string{}, args...))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	return got, cmd.Execute()
}

func TestFlags(t *testing.T) {
	opts, err := parseArgs()
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	if opts.debug.value || opts.config.value != defaultConfig || opts.pidfile.value != pidfile.DefaultPath() {
		t.Errorf("unexpected defaults %+v", opts)
	}

	opts, err = parseArgs("--debug", "--config", "rules.conf", "--pidfile=/run/briar_rose.pid")
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	if !opts.debug.value || opts.config.value != "rules.conf" || opts.pidfile.value != "/run/briar_rose.pid" {
		t.Errorf("unexpected options %+v", opts)
	}
}

func TestFlagsInvalid(t *testing.T) {
	tests := [][]string{
		{"--debug", "--debug"},
		{"--config", "a.conf", "--config", "b.conf"},
		{"--pidfile", "a.pid", "--pidfile=b.pid"},
		{"--config"},
		{"--verbose"},
		{"rules.conf"},
		{"--debug=maybe"},
	}

	for _, args := range tests {
		opts, err := parseArgs(args...)
		if err == nil {
			t.Errorf("%q: expected an error", args)
		}
		if opts != nil {
			t.Errorf("%q: ran despite the error", args)
		}
	}
}

func TestReport(t *testing.T) {
	self := os.Getpid()

	path := filepath.Join(t.TempDir(), "briar_rose.conf")
	rules := "# ourselves\n=" + strconv.Itoa(self) + "\n"

	if err := os.WriteFile(path, []byte(rules), 0600); err != nil {
		t.Fatal("failed to write rules:", err)
	}

	resolver := briarrose.NewResolver(lookup.Pidof([]string{"false"}), briarrose.DiscardJournaler)

	var out bytes.Buffer
	if err := report(context.Background(), &out, resolver, path, briarrose.DiscardJournaler); err != nil {
		t.Fatal("failed to report:", err)
	}

	// Footers are upper-cased by the table style.
	for _, expect := range []string{strconv.Itoa(self), "ok", "tracked"} {
		if !strings.Contains(strings.ToLower(out.String()), expect) {
			t.Errorf("report is missing %q:\n%s", expect, out.String())
		}
	}
}

func TestReportMissingRules(t *testing.T) {
	resolver := briarrose.NewResolver(lookup.Pidof([]string{"false"}), briarrose.DiscardJournaler)
	path := filepath.Join(t.TempDir(), "nope.conf")

	var out bytes.Buffer
	if err := report(context.Background(), &out, resolver, path, briarrose.DiscardJournaler); err != nil {
		t.Fatal("a missing rule file must not fail the report:", err)
	}

	if !strings.Contains(strings.ToLower(out.String()), "tracked") {
		t.Errorf("unexpected report:\n%s", out.String())
	}
}

const lockedStatus = "XScreenSaver 6.06: screen locked since Mon Oct 19 13:00:00 2026"

type daemonRun struct {
	pidfile string
	log     string
}

// signals counts the dry-run deliveries of the named signal in the log.
func (r daemonRun) signals(name string) int {
	return strings.Count(r.log, "signal="+name)
}

// runDaemon runs the daemon in dry-run mode, tracking a single literal PID,
// with the given TOML array as the watch command.
func runDaemon(t *testing.T, ctx context.Context, watch string) (daemonRun, error) {
	t.Helper()

	dir := t.TempDir()

	rules := filepath.Join(dir, "briar_rose.conf")
	if err := os.WriteFile(rules, []byte("=4242\n"), 0600); err != nil {
		t.Fatal("failed to write rules:", err)
	}

	settingsPath := filepath.Join(dir, "settings.toml")
	content := "dry_run = true\n" +
		"status_command = [\"echo\", " + strconv.Quote(lockedStatus) + "]\n" +
		"watch_command = " + watch + "\n"

	if err := os.WriteFile(settingsPath, []byte(content), 0600); err != nil {
		t.Fatal("failed to write settings:", err)
	}

	t.Setenv(settings.EnvPath, settingsPath)
	t.Setenv(settings.EnvDryRun, "")
	t.Setenv(settings.EnvLogLevel, "")

	r := daemonRun{pidfile: filepath.Join(dir, "briar_rose.pid")}

	var stderr bytes.Buffer

	cmd := newRootCommand(run)
	cmd.SetArgs([]string{"--config", rules, "--pidfile", r.pidfile})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(ctx)
	r.log = stderr.String()

	return r, err
}

func TestDaemonWatchEnded(t *testing.T) {
	r, err := runDaemon(t, context.Background(), `["printf", 'LOCK x\nUNBLANK y\n']`)
	if !errors.Is(err, briarrose.ErrWatchEnded) {
		t.Fatalf("expected ErrWatchEnded, got %v\n%s", err, r.log)
	}

	// Locked status, LOCK, then UNBLANK and the final resume.
	if stops, conts := r.signals("SIGSTOP"), r.signals("SIGCONT"); stops != 2 || conts != 2 {
		t.Errorf("got %d SIGSTOP and %d SIGCONT, expected 2 each:\n%s", stops, conts, r.log)
	}

	if !strings.Contains(r.log, "reason=\"watcher ended\"") {
		t.Errorf("missing shutdown reason:\n%s", r.log)
	}
}

func TestDaemonUnclassified(t *testing.T) {
	r, err := runDaemon(t, context.Background(), `["printf", 'GARBAGE\n']`)
	if !briarrose.IsUnclassified(err) {
		t.Fatalf("expected an unclassified error, got %v\n%s", err, r.log)
	}

	if stops, conts := r.signals("SIGSTOP"), r.signals("SIGCONT"); stops != 1 || conts != 1 {
		t.Errorf("got %d SIGSTOP and %d SIGCONT, expected 1 each:\n%s", stops, conts, r.log)
	}
}

func TestDaemonInterrupt(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()

	// The shell does not exec into sleep, so both must be killed on exit.
	r, err := runDaemon(t, ctx, `["sh", "-c", "sleep 30; :"]`)
	if err != nil {
		t.Fatalf("interrupt must exit cleanly, got %v\n%s", err, r.log)
	}

	if took := time.Since(start); took > 10*time.Second {
		t.Errorf("shutdown took %v", took)
	}

	if stops, conts := r.signals("SIGSTOP"), r.signals("SIGCONT"); stops != 1 || conts != 1 {
		t.Errorf("got %d SIGSTOP and %d SIGCONT, expected 1 each:\n%s", stops, conts, r.log)
	}

	if !strings.Contains(r.log, "reason=interrupted") {
		t.Errorf("missing shutdown reason:\n%s", r.log)
	}
}

func TestDaemonInterruptBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := runDaemon(t, ctx, `["sh", "-c", "sleep 30; :"]`)
	if err != nil {
		t.Fatalf("interrupt must exit cleanly, got %v\n%s", err, r.log)
	}

	// The status command never ran, but the tracked PID is still resumed.
	if stops, conts := r.signals("SIGSTOP"), r.signals("SIGCONT"); stops != 0 || conts != 1 {
		t.Errorf("got %d SIGSTOP and %d SIGCONT, expected only 1 SIGCONT:\n%s", stops, conts, r.log)
	}
}

func TestDaemonLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "briar_rose.pid")

	p, err := pidfile.Acquire(path)
	if err != nil {
		t.Fatal("failed to acquire:", err)
	}
	defer p.Close()

	settingsPath := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(settingsPath, []byte("dry_run = true\n"), 0600); err != nil {
		t.Fatal("failed to write settings:", err)
	}
	t.Setenv(settings.EnvPath, settingsPath)

	var stderr bytes.Buffer

	cmd := newRootCommand(run)
	cmd.SetArgs([]string{"--pidfile", path, "--config", filepath.Join(t.TempDir(), "nope.conf")})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&stderr)

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error while another instance holds the pidfile")
	}

	if strings.Contains(stderr.String(), "signal=") {
		t.Errorf("signals sent without the lock:\n%s", stderr.String())
	}
}
