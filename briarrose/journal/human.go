package journal

import (
	"io"
	"os"

	"git.unix.lgbt/diamondburned/briarrose/briarrose"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// HumanWriter is a journaler that writes events as log lines meant to be read
// by humans.
type HumanWriter struct {
	log *logrus.Logger
}

var _ briarrose.Journaler = (*HumanWriter)(nil)

// NewHumanWriter creates a new human writer logging into w at the given
// level. Timestamps are only printed if w is a terminal; service managers
// timestamp the output themselves.
func NewHumanWriter(w io.Writer, level logrus.Level) *HumanWriter {
	tty := isTerminal(w)

	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:    tty,
		DisableTimestamp: !tty,
		DisableColors:    !tty,
	})

	return &HumanWriter{log}
}

// Write logs the event. It never fails.
func (h *HumanWriter) Write(event briarrose.Event) error {
	switch ev := event.(type) {
	case *briarrose.EventWarning:
		h.log.WithField("component", ev.Component).Warn(ev.Error)

	case *briarrose.EventAcquired:
		h.log.WithField("path", ev.Path).Info("Acquired the instance lock")

	case *briarrose.EventConfigLoading:
		h.log.WithField("source", ev.Source).Info("Starting with empty PID set.")

	case *briarrose.EventConfigLoaded:
		h.log.WithFields(logrus.Fields{
			"source": ev.Source,
			"rules":  ev.Rules,
		}).Infof("Parsing completed. Tracking PIDs %v", ev.PIDs)

	case *briarrose.EventConfigError:
		h.log.WithField("source", ev.Source).Errorf(
			"Failed to load rules, keeping %d tracked PIDs: %s", ev.Kept, ev.Error)

	case *briarrose.EventRuleConsidered:
		h.log.Debugf("Considering rule %q …", ev.Rule)

	case *briarrose.EventRuleWarning:
		h.log.WithField("rule", ev.Rule).Warn(ev.Warning)

	case *briarrose.EventPIDSetChanged:
		entry := h.log.WithField("rule", ev.Rule)
		switch {
		case ev.Added > 0:
			entry.Infof("%d PIDs added. PID set is now %v", ev.Added, ev.PIDs)
		case ev.Removed > 0:
			entry.Infof("%d PIDs removed. PID set is now %v", ev.Removed, ev.PIDs)
		default:
			entry.Info("PID set unchanged")
		}

	case *briarrose.EventReaction:
		h.log.WithFields(logrus.Fields{
			"table":    ev.Table,
			"reaction": ev.Reaction,
		}).Infof("Screen locker said %q", ev.Text)

	case *briarrose.EventSignal:
		entry := h.log.WithFields(logrus.Fields{
			"pid":    ev.PID,
			"signal": ev.Signal,
		})
		if ev.DryRun {
			entry.Info("Would send signal (dry run)")
		} else {
			entry.Debug("Sent signal")
		}

	case *briarrose.EventSignalError:
		h.log.WithFields(logrus.Fields{
			"pid":    ev.PID,
			"signal": ev.Signal,
		}).Warn(ev.Error)

	case *briarrose.EventShutdown:
		h.log.WithField("reason", ev.Reason).Infof("Resuming PIDs %v before exiting", ev.PIDs)

	case *briarrose.EventWatcherStarted:
		h.log.WithField("pid", ev.PID).Infof("Watching %v", ev.Argv)

	case *briarrose.EventWatcherStopped:
		entry := h.log.WithField("pid", ev.PID)
		if ev.Error != "" {
			entry.Warnf("Watcher stopped: %s", ev.Error)
		} else {
			entry.Info("Watcher stopped")
		}

	case *briarrose.EventPrivilegeNotice:
		h.log.Warn(ev.Message)

	default:
		h.log.WithField("type", event.Type()).Infof("%+v", event)
	}

	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
