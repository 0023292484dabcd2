package briarrose

// eventType describes an event type.
type eventType = string

const (
	eventWarning         eventType = "warning"
	eventAcquired        eventType = "acquired lock"
	eventConfigLoading   eventType = "config loading"
	eventConfigLoaded    eventType = "config loaded"
	eventConfigError     eventType = "config error"
	eventRuleConsidered  eventType = "rule considered"
	eventRuleWarning     eventType = "rule warning"
	eventPIDSetChanged   eventType = "pid set changed"
	eventReaction        eventType = "reaction"
	eventSignal          eventType = "signal"
	eventSignalError     eventType = "signal error"
	eventShutdown        eventType = "shutdown"
	eventWatcherStarted  eventType = "watcher started"
	eventWatcherStopped  eventType = "watcher stopped"
	eventPrivilegeNotice eventType = "privilege notice"
)

// Event is an interface describing known events.
type Event interface {
	Type() string
	event()
}

// NewEvent creates a new event from the given event type. It is used primarily
// for decoding events from its type. Nil is returned if the event type is
// unknown.
func NewEvent(eventType string) Event {
	switch eventType {
	case eventWarning:
		return &EventWarning{}
	case eventAcquired:
		return &EventAcquired{}
	case eventConfigLoading:
		return &EventConfigLoading{}
	case eventConfigLoaded:
		return &EventConfigLoaded{}
	case eventConfigError:
		return &EventConfigError{}
	case eventRuleConsidered:
		return &EventRuleConsidered{}
	case eventRuleWarning:
		return &EventRuleWarning{}
	case eventPIDSetChanged:
		return &EventPIDSetChanged{}
	case eventReaction:
		return &EventReaction{}
	case eventSignal:
		return &EventSignal{}
	case eventSignalError:
		return &EventSignalError{}
	case eventShutdown:
		return &EventShutdown{}
	case eventWatcherStarted:
		return &EventWatcherStarted{}
	case eventWatcherStopped:
		return &EventWatcherStopped{}
	case eventPrivilegeNotice:
		return &EventPrivilegeNotice{}
	default:
		return nil
	}
}

// EventWarning is emitted when a non-fatal error occurs.
type EventWarning struct {
	Component string `json:"component"`
	Error     string `json:"error"`
}

func (ev *EventWarning) Type() string { return eventWarning }
func (ev *EventWarning) event()       {}

// EventAcquired is emitted when the pidfile lock is acquired, which is on
// startup.
type EventAcquired struct {
	Path string `json:"path"`
}

func (ev *EventAcquired) Type() string { return eventAcquired }
func (ev *EventAcquired) event()       {}

// EventConfigLoading is emitted before the rules are folded, starting from the
// empty PID set.
type EventConfigLoading struct {
	Source string `json:"source,omitempty"`
}

func (ev *EventConfigLoading) Type() string { return eventConfigLoading }
func (ev *EventConfigLoading) event()       {}

// EventConfigLoaded is emitted once all rules of a source have been folded.
type EventConfigLoaded struct {
	Source string `json:"source,omitempty"`
	Rules  int    `json:"rules"`
	PIDs   []int  `json:"pids"`
}

func (ev *EventConfigLoaded) Type() string { return eventConfigLoaded }
func (ev *EventConfigLoaded) event()       {}

// EventConfigError is emitted when the rule file cannot be read. The
// previously tracked PIDs stay in effect.
type EventConfigError struct {
	Source string `json:"source"`
	Error  string `json:"error"`
	Kept   int    `json:"kept"`
}

func (ev *EventConfigError) Type() string { return eventConfigError }
func (ev *EventConfigError) event()       {}

// EventRuleConsidered is emitted for every rule line, including comments.
type EventRuleConsidered struct {
	Rule string `json:"rule"`
}

func (ev *EventRuleConsidered) Type() string { return eventRuleConsidered }
func (ev *EventRuleConsidered) event()       {}

// EventRuleWarning is emitted when a rule is malformed, reserved or otherwise
// suspicious. The rule is then treated as a no-op unless noted otherwise.
type EventRuleWarning struct {
	Rule    string `json:"rule"`
	Warning string `json:"warning"`
}

func (ev *EventRuleWarning) Type() string { return eventRuleWarning }
func (ev *EventRuleWarning) event()       {}

// EventPIDSetChanged is emitted after a rule with a non-empty operand has been
// applied. Both Added and Removed are zero if the set is unchanged.
type EventPIDSetChanged struct {
	Rule    string `json:"rule"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
	PIDs    []int  `json:"pids"`
}

// Unchanged returns true if the rule did not change the set.
func (ev EventPIDSetChanged) Unchanged() bool {
	return ev.Added == 0 && ev.Removed == 0
}

func (ev *EventPIDSetChanged) Type() string { return eventPIDSetChanged }
func (ev *EventPIDSetChanged) event()       {}

// EventReaction is emitted when a line of the screen locker has been
// classified.
type EventReaction struct {
	Table    string `json:"table"`
	Text     string `json:"text"`
	Reaction string `json:"reaction"`
}

func (ev *EventReaction) Type() string { return eventReaction }
func (ev *EventReaction) event()       {}

// EventSignal is emitted for every PID a signal was delivered to, or would
// have been delivered to in dry-run mode.
type EventSignal struct {
	PID    int    `json:"pid"`
	Signal string `json:"signal"`
	DryRun bool   `json:"dry_run,omitempty"`
}

func (ev *EventSignal) Type() string { return eventSignal }
func (ev *EventSignal) event()       {}

// EventSignalError is emitted when a signal could not be delivered, usually
// because the process is gone.
type EventSignalError struct {
	PID    int    `json:"pid"`
	Signal string `json:"signal"`
	Error  string `json:"error"`
}

func (ev *EventSignalError) Type() string { return eventSignalError }
func (ev *EventSignalError) event()       {}

// EventShutdown is emitted once, when the tracked processes are resumed for
// the last time.
type EventShutdown struct {
	Reason string `json:"reason"`
	PIDs   []int  `json:"pids"`
}

func (ev *EventShutdown) Type() string { return eventShutdown }
func (ev *EventShutdown) event()       {}

// EventWatcherStarted is emitted when the screen locker watcher is spawned.
type EventWatcherStarted struct {
	PID  int      `json:"pid"`
	Argv []string `json:"argv"`
}

func (ev *EventWatcherStarted) Type() string { return eventWatcherStarted }
func (ev *EventWatcherStarted) event()       {}

// EventWatcherStopped is emitted when the watcher output ends.
type EventWatcherStopped struct {
	PID   int    `json:"pid"`
	Error string `json:"error,omitempty"`
}

func (ev *EventWatcherStopped) Type() string { return eventWatcherStopped }
func (ev *EventWatcherStopped) event()       {}

// EventPrivilegeNotice is emitted on startup if briarrose cannot signal
// processes owned by other users.
type EventPrivilegeNotice struct {
	Message string `json:"message"`
}

func (ev *EventPrivilegeNotice) Type() string { return eventPrivilegeNotice }
func (ev *EventPrivilegeNotice) event()       {}
