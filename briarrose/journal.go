package briarrose

import (
	"bytes"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Journaler describes an event logger. Every diagnostic briarrose produces is
// written to a Journaler; nothing it returns affects control flow.
type Journaler interface {
	Write(Event) error
}

type writerJournaler struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterJournaler creates a new journaler that writes line-delimited JSON
// events into the writer.
func NewWriterJournaler(w io.Writer) Journaler {
	return &writerJournaler{w: w}
}

// Write writes the given event into the writer. Writes are concurrently safe
// and are atomic.
func (l *writerJournaler) Write(ev Event) error {
	type eventJSON struct {
		Time time.Time `json:"time"`
		Type string    `json:"type"`
		Data Event     `json:"data"`
	}

	evJSON := eventJSON{
		Time: time.Now(),
		Type: ev.Type(),
		Data: ev,
	}

	buf := bytes.Buffer{}
	buf.Grow(512)

	// Encode terminates the object with a new line.
	if err := json.NewEncoder(&buf).Encode(evJSON); err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "failed to write event")
	}

	return nil
}

type discardJournaler struct{}

// DiscardJournaler is a journaler that drops every event.
var DiscardJournaler Journaler = discardJournaler{}

func (discardJournaler) Write(Event) error { return nil }
