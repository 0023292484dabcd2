package main

import (
	"strconv"

	"git.unix.lgbt/diamondburned/briarrose/briarrose/pidfile"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// defaultConfig is the rule file used if --config is not given. It is
// relative to the working directory.
const defaultConfig = "briar_rose.conf"

var errFlagRepeated = errors.New("flag given more than once")

// onceString is a string flag that may only be given once.
type onceString struct {
	value string
	set   bool
}

var (
	_ pflag.Value = (*onceString)(nil)
	_ pflag.Value = (*onceBool)(nil)
)

func (s *onceString) String() string { return s.value }
func (s *onceString) Type() string   { return "path" }

func (s *onceString) Set(v string) error {
	if s.set {
		return errFlagRepeated
	}
	s.value = v
	s.set = true
	return nil
}

// onceBool is a boolean flag that may only be given once.
type onceBool struct {
	value bool
	set   bool
}

func (b *onceBool) String() string { return strconv.FormatBool(b.value) }
func (b *onceBool) Type() string   { return "bool" }

func (b *onceBool) Set(v string) error {
	if b.set {
		return errFlagRepeated
	}

	value, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}

	b.value = value
	b.set = true
	return nil
}

type options struct {
	debug   onceBool
	pidfile onceString
	config  onceString
}

func newRootCommand(run func(cmd *cobra.Command, opts *options) error) *cobra.Command {
	opts := &options{
		pidfile: onceString{value: pidfile.DefaultPath()},
		config:  onceString{value: defaultConfig},
	}

	cmd := &cobra.Command{
		Use:   "briar_rose",
		Short: "Stop processes while the screen is locked",
		Long: "briar_rose sends SIGSTOP to the processes named in its rule file when\n" +
			"the screen locks, and SIGCONT once it unlocks again.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.VarPF(&opts.debug, "debug", "", "resolve the rules once, print the tracked PIDs and exit").
		NoOptDefVal = "true"
	flags.Var(&opts.pidfile, "pidfile", "file locked to keep a single instance running")
	flags.Var(&opts.config, "config", "rule file listing the processes to stop")

	return cmd
}
