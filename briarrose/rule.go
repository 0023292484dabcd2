package briarrose

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// reservedPrefixes are rule prefixes kept for future syntax.
const reservedPrefixes = "§$&^?.+-*@"

// Lookup resolves a process name into the PIDs of its running instances. A
// name with no running process resolves to no PIDs and no error.
type Lookup interface {
	PIDsOf(ctx context.Context, name string) ([]int, error)
}

// LookupFunc is a function that implements Lookup.
type LookupFunc func(ctx context.Context, name string) ([]int, error)

// PIDsOf calls f.
func (f LookupFunc) PIDsOf(ctx context.Context, name string) ([]int, error) {
	return f(ctx, name)
}

// Operation is a signed set operation produced by a single rule.
type Operation struct {
	// Add is true if PIDs are added to the set and false if they are removed
	// from it.
	Add  bool
	PIDs PIDSet
}

// Noop is the operation of a rule that has no effect.
var Noop = Operation{Add: true}

// IsNoop returns true if applying the operation cannot change any set.
func (op Operation) IsNoop() bool {
	return len(op.PIDs) == 0
}

// Apply applies the operation onto the given set.
func (op Operation) Apply(set PIDSet) {
	if op.Add {
		set.Union(op.PIDs)
	} else {
		set.Difference(op.PIDs)
	}
}

// RuleParser parses rule lines into operations.
type RuleParser struct {
	Lookup  Lookup
	Journal Journaler
}

// NewRuleParser creates a new rule parser.
func NewRuleParser(lookup Lookup, j Journaler) *RuleParser {
	return &RuleParser{
		Lookup:  lookup,
		Journal: j,
	}
}

// Parse parses a single rule line. The line must not contain the line ending.
// Malformed rules are journaled and parse into Noop.
func (p *RuleParser) Parse(ctx context.Context, rule string) Operation {
	p.Journal.Write(&EventRuleConsidered{Rule: rule})

	body := rule
	exception := false

	if strings.HasPrefix(body, "!") {
		body = body[1:]
		exception = true

		if strings.HasPrefix(body, "!") {
			p.warn(rule, "double exceptions are a syntax error")
			return Noop
		}
	}

	return p.parse(ctx, rule, body, exception)
}

// parse parses the rule body with the "!" prefix already stripped off.
func (p *RuleParser) parse(ctx context.Context, rule, body string, exception bool) Operation {
	if body == "" {
		if exception {
			p.warn(rule, "empty exception rule")
		}
		return Noop
	}

	prefix, size := utf8.DecodeRuneInString(body)

	switch {
	case prefix == '#':
		if exception {
			p.warn(rule, "comment exception")
		}
		return Noop

	case strings.ContainsRune(reservedPrefixes, prefix):
		p.warn(rule, fmt.Sprintf(
			"reserved character %q, this might be the rule file of a future version", prefix,
		))
		return Noop

	case prefix == '=':
		literal := strings.TrimSpace(body[size:])

		pid, err := strconv.Atoi(literal)
		if err != nil {
			p.warn(rule, fmt.Sprintf("could not parse PID %q", literal))
			return Noop
		}
		// kill(2) treats zero and negative PIDs as process groups.
		if pid < 1 {
			p.warn(rule, fmt.Sprintf("PID %d is not a process", pid))
			return Noop
		}

		return Operation{Add: !exception, PIDs: NewPIDSet(pid)}

	case prefix == '"':
		body = body[size:]
		if strings.HasSuffix(body, `"`) {
			p.warn(rule, "rule starts and ends with a quotation mark, "+
				"it is possible this line has the wrong syntax")
		}
	}

	if body == "" {
		p.warn(rule, "empty process name")
		return Noop
	}

	pids, err := p.Lookup.PIDsOf(ctx, body)
	if err != nil {
		p.warn(rule, fmt.Sprintf("failed to look up %q: %v", body, err))
		return Noop
	}

	return Operation{Add: !exception, PIDs: NewPIDSet(pids...)}
}

func (p *RuleParser) warn(rule, warning string) {
	p.Journal.Write(&EventRuleWarning{
		Rule:    rule,
		Warning: warning,
	})
}
