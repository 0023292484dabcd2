package lookup

import (
	"context"
	"os"
	"reflect"
	"testing"
)

func TestPidof(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		// echo prints the name back, so use it as a name that is a PID list.
		lookup := Pidof([]string{"echo", "10", "11"})

		pids, err := lookup.PIDsOf(ctx, "12")
		if err != nil {
			t.Fatal("unexpected error:", err)
		}

		if expect := []int{10, 11, 12}; !reflect.DeepEqual(pids, expect) {
			t.Errorf("got %v, expected %v", pids, expect)
		}
	})

	t.Run("not found", func(t *testing.T) {
		lookup := Pidof([]string{"false"})

		pids, err := lookup.PIDsOf(ctx, "firefox")
		if err != nil {
			t.Fatal("unexpected error:", err)
		}

		if len(pids) != 0 {
			t.Errorf("expected no PIDs, got %v", pids)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		lookup := Pidof([]string{"echo"})

		if _, err := lookup.PIDsOf(ctx, "firefox"); err == nil {
			t.Error("expected an error for non-numeric output")
		}
	})

	t.Run("missing command", func(t *testing.T) {
		lookup := Pidof([]string{"/nonexistent/pidof"})

		if _, err := lookup.PIDsOf(ctx, "firefox"); err == nil {
			t.Error("expected an error for a missing command")
		}
	})
}

func TestNew(t *testing.T) {
	for _, backend := range []string{"", BackendPidof, BackendProcTable} {
		if _, err := New(backend, nil); err != nil {
			t.Errorf("backend %q: unexpected error: %v", backend, err)
		}
	}

	if _, err := New("psutil", nil); err == nil {
		t.Error("expected an error for an unknown backend")
	}
}

func TestProcTable(t *testing.T) {
	ctx := context.Background()

	self := Describe(ctx, os.Getpid())
	if self == "" {
		t.Skip("process table unavailable")
	}

	pids, err := ProcTable{}.PIDsOf(ctx, self)
	if err != nil {
		t.Fatal("failed to scan process table:", err)
	}

	var found bool
	for _, pid := range pids {
		if pid == os.Getpid() {
			found = true
		}
	}

	if !found {
		t.Errorf("own PID %d not among %v for name %q", os.Getpid(), pids, self)
	}
}
