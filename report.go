package main

import (
	"context"
	"fmt"
	"io"

	"git.unix.lgbt/diamondburned/briarrose/briarrose"
	"git.unix.lgbt/diamondburned/briarrose/briarrose/exec"
	"git.unix.lgbt/diamondburned/briarrose/briarrose/lookup"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// report resolves the rule file once and prints the tracked PIDs as a table.
// A rule file that cannot be read is reported as an empty set.
func report(ctx context.Context, w io.Writer, resolver *briarrose.Resolver, path string, j briarrose.Journaler) error {
	pids, err := resolver.ResolveFile(ctx, path)
	if err != nil {
		j.Write(&briarrose.EventConfigError{Source: path, Error: err.Error()})
		pids = briarrose.NewPIDSet()
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"PID", "Name", "Signal"})

	for _, pid := range pids.Sorted() {
		tw.AppendRow(table.Row{pid, processName(ctx, pid), signalStatus(pid)})
	}

	tw.AppendFooter(table.Row{"", "Tracked", pids.Len()})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	_, err = fmt.Fprintln(w, tw.Render())
	return err
}

func processName(ctx context.Context, pid int) string {
	if name := lookup.Describe(ctx, pid); name != "" {
		return name
	}
	return "?"
}

// signalStatus checks whether pid can be signaled, using the null signal.
func signalStatus(pid int) string {
	if err := exec.Kill.Signal(pid, 0); err != nil {
		return err.Error()
	}
	return "ok"
}
