package briarrose

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Reaction is what the daemon does with the tracked processes in response to
// a screen locker event.
type Reaction uint8

const (
	// ReactionStop reloads the rule file and stops the tracked processes.
	ReactionStop Reaction = iota
	// ReactionCont resumes the tracked processes.
	ReactionCont
	// ReactionIgnore does nothing.
	ReactionIgnore
)

// String returns the lowercase name of the reaction.
func (r Reaction) String() string {
	switch r {
	case ReactionStop:
		return "stop"
	case ReactionCont:
		return "cont"
	case ReactionIgnore:
		return "ignore"
	default:
		return fmt.Sprintf("Reaction(%d)", uint8(r))
	}
}

// ParseReaction parses a reaction name. The name "blank" stands for the
// reaction to a blanked, but not necessarily locked, screen, which is STOP if
// blankStops is true and CONT otherwise.
func ParseReaction(name string, blankStops bool) (Reaction, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "stop":
		return ReactionStop, nil
	case "cont", "continue":
		return ReactionCont, nil
	case "ignore":
		return ReactionIgnore, nil
	case "blank":
		return blankReaction(blankStops), nil
	default:
		return 0, errors.Errorf("unknown reaction %q", name)
	}
}

func blankReaction(blankStops bool) Reaction {
	if blankStops {
		return ReactionStop
	}
	return ReactionCont
}

// TableEntry is a pattern and the reaction to a line matching it.
type TableEntry struct {
	Pattern  *regexp.Regexp
	Reaction Reaction
}

// EntrySpec is an uncompiled TableEntry.
type EntrySpec struct {
	Pattern  string
	Reaction Reaction
}

// Table is an ordered list of entries used to classify text. It is immutable
// once compiled.
type Table struct {
	name    string
	entries []TableEntry
}

// CompileTable compiles the given entry specs, keeping their order.
func CompileTable(name string, specs []EntrySpec) (*Table, error) {
	entries := make([]TableEntry, len(specs))

	for i, spec := range specs {
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "table %s: entry %d", name, i)
		}

		entries[i] = TableEntry{
			Pattern:  re,
			Reaction: spec.Reaction,
		}
	}

	return &Table{name, entries}, nil
}

// Name returns the table name given to CompileTable.
func (t *Table) Name() string { return t.name }

// Classify returns the reaction of the first entry whose pattern matches
// anywhere in text. An *UnclassifiedError is returned if no entry matches.
func (t *Table) Classify(text string) (Reaction, error) {
	for _, entry := range t.entries {
		if entry.Pattern.MatchString(text) {
			return entry.Reaction, nil
		}
	}

	return 0, &UnclassifiedError{Table: t.name, Text: text}
}

// UnclassifiedError is returned when no table entry matches a text. It means
// that the screen locker says something briarrose does not understand, so it
// must not guess.
type UnclassifiedError struct {
	Table string
	Text  string
}

func (err *UnclassifiedError) Error() string {
	return fmt.Sprintf("%s table: no entry matches %q", err.Table, err.Text)
}

// IsUnclassified returns true if err is or wraps an *UnclassifiedError.
func IsUnclassified(err error) bool {
	var unclassified *UnclassifiedError
	return errors.As(err, &unclassified)
}

// Table names.
const (
	StatusTableName = "status"
	WatchTableName  = "watch"
)

// DefaultStatusEntries returns the default entries classifying the output of
// "xscreensaver-command -time". "non-blanked" must come before "blanked".
func DefaultStatusEntries(blankStops bool) []EntrySpec {
	return []EntrySpec{
		{Pattern: "non-blanked", Reaction: ReactionCont},
		{Pattern: "blanked", Reaction: blankReaction(blankStops)},
		{Pattern: "locked", Reaction: ReactionStop},
	}
}

// DefaultWatchEntries returns the default entries classifying the output of
// "xscreensaver-command -watch".
func DefaultWatchEntries(blankStops bool) []EntrySpec {
	return []EntrySpec{
		{Pattern: "^LOCK ", Reaction: ReactionStop},
		{Pattern: "^BLANK ", Reaction: blankReaction(blankStops)},
		{Pattern: "^UNBLANK ", Reaction: ReactionCont},
		{Pattern: "^RUN", Reaction: ReactionIgnore},
	}
}
