package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.unix.lgbt/diamondburned/briarrose/briarrose"
	"git.unix.lgbt/diamondburned/briarrose/briarrose/exec"
	"git.unix.lgbt/diamondburned/briarrose/briarrose/journal"
	"git.unix.lgbt/diamondburned/briarrose/briarrose/lookup"
	"git.unix.lgbt/diamondburned/briarrose/briarrose/pidfile"
	"git.unix.lgbt/diamondburned/briarrose/briarrose/settings"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func run(cmd *cobra.Command, opts *options) error {
	s, err := settings.Load(settings.DefaultPath())
	if err != nil {
		return errors.Wrap(err, "failed to load settings")
	}

	level, err := s.Level()
	if err != nil {
		return err
	}
	if opts.debug.value {
		level = logrus.DebugLevel
	}

	var j briarrose.Journaler = journal.NewHumanWriter(cmd.ErrOrStderr(), level)

	if s.JournalFile != "" {
		f, err := journal.OpenFile(s.JournalFile)
		if err != nil {
			return err
		}
		defer f.Close()

		j = journal.MultiWriter(j, f)
	}

	for _, key := range s.Undecoded {
		j.Write(&briarrose.EventWarning{
			Component: "settings",
			Error:     fmt.Sprintf("unknown key %q", key),
		})
	}

	names, err := lookup.New(s.Lookup, s.PidofCommand)
	if err != nil {
		return err
	}

	resolver := briarrose.NewResolver(names, j)

	if opts.debug.value {
		return report(cmd.Context(), cmd.OutOrStdout(), resolver, opts.config.value, j)
	}

	return daemon(cmd.Context(), s, opts, resolver, j)
}

func daemon(
	ctx context.Context, s settings.Settings, opts *options,
	resolver *briarrose.Resolver, j briarrose.Journaler) error {

	statusTable, watchTable, err := s.Tables()
	if err != nil {
		return err
	}

	p, err := pidfile.Acquire(opts.pidfile.value)
	if err != nil {
		if errors.Is(err, pidfile.ErrLockedElsewhere) {
			return errors.Errorf("briar_rose is already running with pidfile %s", opts.pidfile.value)
		}
		return err
	}
	defer p.Close()

	j.Write(&briarrose.EventAcquired{Path: p.Path()})

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	privileged, err := exec.CanSignalOthers()
	switch {
	case err != nil:
		j.Write(&briarrose.EventWarning{Component: "capabilities", Error: err.Error()})
	case !privileged:
		j.Write(&briarrose.EventPrivilegeNotice{
			Message: "Running without CAP_KILL, processes of other users cannot be stopped",
		})
	}

	w, err := briarrose.StartWatcher(ctx, s.WatchCommand, j)
	if err != nil {
		return errors.Wrap(err, "failed to start the screen locker watcher")
	}
	defer w.Stop()

	d := briarrose.NewDaemon(ctx, briarrose.DaemonOptions{
		ConfigPath:  opts.config.value,
		Resolver:    resolver,
		Broadcaster: briarrose.NewBroadcaster(exec.Kill, j, s.DryRun),
		Prober:      briarrose.CommandProber(s.StatusCommand),
		StatusTable: statusTable,
		WatchTable:  watchTable,
		Journal:     j,
	})
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		// The status tool was killed by the interrupt.
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	return d.Run(ctx, w.Lines)
}
