// Package briarrose is the core of the briarrose application: it keeps a set
// of processes stopped while the screen is locked and resumes them once it is
// unlocked again.
//
// # Rules
//
// The set of processes to control is described by a rule file, one rule per
// line. Each rule adds or removes a set of PIDs, and the rules are folded from
// top to bottom over an empty set:
//
//	# comments and empty lines are ignored
//	firefox        add every PID that pidof(8) reports for "firefox"
//	"mpv           quoted process name, same as above
//	=1234          add the literal PID 1234
//	!ssh           remove the PIDs of "ssh" (an exception)
//	!=1234         remove the literal PID 1234
//
// Lines starting with one of §$&^?.+-*@ are reserved and are skipped with a
// warning. Exceptions do not nest: "!!x" is a syntax error.
//
// # Reactions
//
// The screen locker is watched through an external tool whose output lines are
// classified into one of three reactions by an ordered table of regular
// expressions: the first matching entry wins. A line that matches no entry is
// fatal, because guessing wrong could leave processes stopped forever.
//
// On STOP, the rule file is read again, so edits made while the screen was
// unlocked take effect, and every tracked PID is sent SIGSTOP. On CONT, every
// tracked PID is sent SIGCONT. IGNORE does nothing.
//
// Whatever way the daemon exits, the tracked processes are sent SIGCONT one
// last time.
package briarrose
