// Package settings loads the optional TOML settings file of briarrose. The
// settings tune how the screen locker is talked to; which processes are
// controlled is decided by the rule file alone.
package settings

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"git.unix.lgbt/diamondburned/briarrose/briarrose"
	"git.unix.lgbt/diamondburned/briarrose/briarrose/lookup"
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Environment variables read by Load.
const (
	EnvPath     = "BRIAR_ROSE_SETTINGS"
	EnvDryRun   = "BRIAR_ROSE_DRY_RUN"
	EnvLogLevel = "BRIAR_ROSE_LOG_LEVEL"
)

// Entry is a reaction table entry. Reaction is one of "stop", "cont",
// "ignore" or "blank".
type Entry struct {
	Pattern  string `toml:"pattern"`
	Reaction string `toml:"reaction"`
}

// Settings contains everything that can be set in the settings file.
type Settings struct {
	// DryRun logs signals instead of sending them.
	DryRun bool `toml:"dry_run"`
	// BlankStops makes a blanked but unlocked screen stop the processes.
	BlankStops bool `toml:"blank_stops"`

	// Lookup is the name resolution backend, "pidof" or "proctable".
	Lookup        string   `toml:"lookup"`
	PidofCommand  []string `toml:"pidof_command"`
	StatusCommand []string `toml:"status_command"`
	WatchCommand  []string `toml:"watch_command"`

	LogLevel string `toml:"log_level"`
	// JournalFile, if not empty, receives every event as a JSON line.
	JournalFile string `toml:"journal_file"`

	// Status and Watch replace the default reaction tables if not empty.
	Status []Entry `toml:"status"`
	Watch  []Entry `toml:"watch"`

	// Undecoded lists the keys in the file that are not known.
	Undecoded []string `toml:"-"`
}

// Default returns the settings used when there is no settings file.
func Default() Settings {
	return Settings{
		BlankStops:    true,
		Lookup:        lookup.BackendPidof,
		PidofCommand:  []string{"pidof"},
		StatusCommand: []string{"xscreensaver-command", "-time"},
		WatchCommand:  []string{"xscreensaver-command", "-watch"},
		LogLevel:      "info",
	}
}

// DefaultPath returns $BRIAR_ROSE_SETTINGS if set, otherwise settings.toml in
// the user configuration directory. An empty string is returned if neither is
// known.
func DefaultPath() string {
	if path := os.Getenv(EnvPath); path != "" {
		return path
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}

	return filepath.Join(configDir, "briar-rose", "settings.toml")
}

// Load reads the settings at path on top of the defaults and applies the
// environment overrides. A missing file is not an error, unless it was asked
// for through the environment.
func Load(path string) (Settings, error) {
	s := Default()

	if path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			if err := s.decodeFile(path); err != nil {
				return s, err
			}
		case os.IsNotExist(err) && os.Getenv(EnvPath) == "":
			// Settings are optional.
		default:
			return s, errors.Wrap(err, "failed to stat settings")
		}
	}

	if err := s.applyEnv(); err != nil {
		return s, err
	}

	return s, s.Validate()
}

func (s *Settings) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, s)
	if err != nil {
		return errors.Wrapf(err, "failed to decode settings %q", path)
	}

	for _, key := range md.Undecoded() {
		s.Undecoded = append(s.Undecoded, key.String())
	}
	sort.Strings(s.Undecoded)

	return nil
}

func (s *Settings) applyEnv() error {
	if v := os.Getenv(EnvDryRun); v != "" {
		dryRun, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", EnvDryRun)
		}
		s.DryRun = dryRun
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		s.LogLevel = v
	}

	return nil
}

// Validate checks that the settings can be used. The reaction tables are
// checked by compiling them.
func (s Settings) Validate() error {
	switch s.Lookup {
	case lookup.BackendPidof, lookup.BackendProcTable:
	default:
		return errors.Errorf("lookup: unknown backend %q", s.Lookup)
	}

	commands := map[string][]string{
		"pidof_command":  s.PidofCommand,
		"status_command": s.StatusCommand,
		"watch_command":  s.WatchCommand,
	}
	for key, argv := range commands {
		if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
			return errors.Errorf("%s: must not be empty", key)
		}
	}

	if _, err := s.Level(); err != nil {
		return err
	}

	if _, _, err := s.Tables(); err != nil {
		return err
	}

	return nil
}

// Level parses the log level.
func (s Settings) Level() (logrus.Level, error) {
	level, err := logrus.ParseLevel(s.LogLevel)
	if err != nil {
		return level, errors.Wrap(err, "log_level")
	}
	return level, nil
}

// Tables compiles the status and watch reaction tables, falling back to the
// defaults for a table that is not set.
func (s Settings) Tables() (status, watch *briarrose.Table, err error) {
	statusSpecs := briarrose.DefaultStatusEntries(s.BlankStops)
	if len(s.Status) > 0 {
		statusSpecs, err = s.entrySpecs("status", s.Status)
		if err != nil {
			return nil, nil, err
		}
	}

	watchSpecs := briarrose.DefaultWatchEntries(s.BlankStops)
	if len(s.Watch) > 0 {
		watchSpecs, err = s.entrySpecs("watch", s.Watch)
		if err != nil {
			return nil, nil, err
		}
	}

	status, err = briarrose.CompileTable(briarrose.StatusTableName, statusSpecs)
	if err != nil {
		return nil, nil, err
	}

	watch, err = briarrose.CompileTable(briarrose.WatchTableName, watchSpecs)
	if err != nil {
		return nil, nil, err
	}

	return status, watch, nil
}

func (s Settings) entrySpecs(table string, entries []Entry) ([]briarrose.EntrySpec, error) {
	specs := make([]briarrose.EntrySpec, len(entries))

	for i, entry := range entries {
		reaction, err := briarrose.ParseReaction(entry.Reaction, s.BlankStops)
		if err != nil {
			return nil, errors.Wrapf(err, "%s entry %d", table, i)
		}

		specs[i] = briarrose.EntrySpec{
			Pattern:  entry.Pattern,
			Reaction: reaction,
		}
	}

	return specs, nil
}
