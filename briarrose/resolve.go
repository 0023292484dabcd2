package briarrose

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Resolver folds rule lines into the set of PIDs to control.
type Resolver struct {
	Parser  *RuleParser
	Journal Journaler
}

// NewResolver creates a new resolver that looks up process names using the
// given lookup.
func NewResolver(lookup Lookup, j Journaler) *Resolver {
	return &Resolver{
		Parser:  NewRuleParser(lookup, j),
		Journal: j,
	}
}

// Resolve folds the given rule lines, in order, over an empty set and returns
// the result. Trailing line endings are stripped off each line.
func (r *Resolver) Resolve(ctx context.Context, lines []string) PIDSet {
	return r.resolve(ctx, "", lines)
}

// ResolveReader reads the rules from the given reader and resolves them. No
// set is returned if the reader fails, even halfway.
func (r *Resolver) ResolveReader(ctx context.Context, src io.Reader) (PIDSet, error) {
	lines, err := readLines(src)
	if err != nil {
		return nil, err
	}

	return r.resolve(ctx, "", lines), nil
}

// ResolveFile reads the rule file at path and resolves it. An error is
// returned if the file cannot be read; the caller is expected to keep the set
// it already had.
func (r *Resolver) ResolveFile(ctx context.Context, path string) (PIDSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open rule file")
	}
	defer f.Close()

	lines, err := readLines(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read rule file %q", path)
	}

	return r.resolve(ctx, path, lines), nil
}

func (r *Resolver) resolve(ctx context.Context, source string, lines []string) PIDSet {
	r.Journal.Write(&EventConfigLoading{Source: source})

	pids := NewPIDSet()

	for _, line := range lines {
		rule := strings.TrimRight(line, "\r\n")

		op := r.Parser.Parse(ctx, rule)
		if op.IsNoop() {
			continue
		}

		before := pids.Len()
		op.Apply(pids)
		after := pids.Len()

		ev := EventPIDSetChanged{Rule: rule, PIDs: pids.Sorted()}
		switch {
		case after > before:
			ev.Added = after - before
		case after < before:
			ev.Removed = before - after
		}

		r.Journal.Write(&ev)
	}

	r.Journal.Write(&EventConfigLoaded{
		Source: source,
		Rules:  len(lines),
		PIDs:   pids.Sorted(),
	})

	return pids
}

// readLines reads all lines from src. Lines keep no line ending, except for a
// carriage return, which is for the resolver to strip.
func readLines(src io.Reader) ([]string, error) {
	var lines []string

	scanner := bufio.NewScanner(src)
	// Rules are names, but do not choke on an odd long line.
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to scan lines")
	}

	return lines, nil
}
