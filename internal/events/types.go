package events

// Event type constants for kelindar/event.
const (
	TypeStateChanged uint32 = iota + 1
	TypeStepFinished
	TypeSignalSent
	TypeCancelRequested
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// StateChangedEvent is published on every runner state transition.
type StateChangedEvent struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for StateChangedEvent.
func (e StateChangedEvent) Type() uint32 { return TypeStateChanged }

// StepFinishedEvent is published after each step, including skipped ones.
type StepFinishedEvent struct {
	Step       string  `json:"step"`
	Outcome    string  `json:"outcome"`
	PID        int     `json:"pid,omitempty"`
	ExitCode   int     `json:"exit_code"`
	Terminated bool    `json:"terminated"`
	Killed     bool    `json:"killed"`
	Seconds    float64 `json:"seconds"`
	Error      string  `json:"error,omitempty"`
	Timestamp  string  `json:"timestamp"`
}

// Type returns the event type identifier for StepFinishedEvent.
func (e StepFinishedEvent) Type() uint32 { return TypeStepFinished }

// SignalSentEvent is published before SIGTERM or SIGKILL reaches a step's process.
type SignalSentEvent struct {
	Step      string `json:"step"`
	PID       int    `json:"pid"`
	Signal    string `json:"signal"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for SignalSentEvent.
func (e SignalSentEvent) Type() uint32 { return TypeSignalSent }

// CancelRequestedEvent is published once, when shutdown is first requested.
type CancelRequestedEvent struct {
	Signal    string `json:"signal"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for CancelRequestedEvent.
func (e CancelRequestedEvent) Type() uint32 { return TypeCancelRequested }
