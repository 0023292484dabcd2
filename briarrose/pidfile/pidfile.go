// Package pidfile provides a file locking abstraction so that only one
// briarrose instance can run with the same pidfile.
package pidfile

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// ErrLockedElsewhere is returned if the lock is held by another process.
var ErrLockedElsewhere = errors.New("pidfile already locked elsewhere")

// Pidfile is a file locked with flock(2) for the whole lifetime of the
// process, containing its PID. The lock is released by Close or by the
// operating system when the process exits, so a stale file never blocks a new
// instance.
type Pidfile struct {
	path string
	l    *flock.Flock
}

// Acquire locks the pidfile at path and writes the current PID into it. It
// returns ErrLockedElsewhere if another process holds the lock.
func Acquire(path string) (*Pidfile, error) {
	// Ensure the directory exists.
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, errors.Wrap(err, "failed to create pidfile directory")
	}

	l := flock.New(path)

	locked, err := l.TryLock()
	if err != nil {
		return nil, errors.Wrap(err, "failed to acquire lock")
	}

	if !locked {
		return nil, ErrLockedElsewhere
	}

	pid := strconv.Itoa(os.Getpid()) + "\n"

	// Write through a separate descriptor: truncating is fine since we own
	// the lock now.
	if err := os.WriteFile(path, []byte(pid), 0600); err != nil {
		l.Unlock()
		return nil, errors.Wrap(err, "failed to write pid")
	}

	return &Pidfile{path, l}, nil
}

// Path returns the path of the pidfile.
func (p *Pidfile) Path() string { return p.path }

// Close releases the lock. The file is left behind: removing it would let an
// instance that opened it in the meantime lock an unlinked file.
func (p *Pidfile) Close() error {
	return p.l.Unlock()
}
