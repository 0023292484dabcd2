// Package journal provides implementations of briarrose's Journaler interface
// that write to humans and to files.
package journal

import (
	"os"
	"path/filepath"

	"git.unix.lgbt/diamondburned/briarrose/briarrose"
	"github.com/pkg/errors"
)

// multiWriter combines multiple journalers.
type multiWriter struct {
	writers []briarrose.Journaler
}

// MultiWriter creates a journaler that writes to multiple other journalers.
// Every journaler is written to even if one fails; the first error is
// returned.
func MultiWriter(ws ...briarrose.Journaler) briarrose.Journaler {
	return &multiWriter{ws}
}

func (w *multiWriter) Write(event briarrose.Event) error {
	var firstErr error
	for _, writer := range w.writers {
		if err := writer.Write(event); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// File is a journaler that appends line-delimited JSON events to a file. The
// File instance must be closed by the caller.
type File struct {
	briarrose.Journaler
	f *os.File
}

// OpenFile opens the journal file at path for appending, creating it and its
// directory if needed.
func OpenFile(path string) (*File, error) {
	// Ensure the directory exists.
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, errors.Wrap(err, "failed to create journal directory")
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open journal file")
	}

	return &File{
		Journaler: briarrose.NewWriterJournaler(f),
		f:         f,
	}, nil
}

// Close closes the file.
func (f *File) Close() error {
	return f.f.Close()
}
