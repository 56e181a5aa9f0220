package process

import "time"

// State represents the current phase of a Runner.
type State string

// Runner states, in the order they are entered.
const (
	StateInit               State = "init"                // Handlers not yet registered
	StateSwitchingIn        State = "switching_in"        // Entering kiosk display mode
	StateRunningApplication State = "running_application" // Main application active
	StateRestoring          State = "restoring"           // Restoring normal display mode
	StateDone               State = "done"                // Run returned
)

// Outcome describes how a step ended.
type Outcome string

// Step outcomes.
const (
	OutcomeSkipped      Outcome = "skipped"       // Cancelled before launch
	OutcomeExited       Outcome = "exited"        // Process exited on its own
	OutcomeCancelled    Outcome = "cancelled"     // Stopped after cancellation
	OutcomeDeadline     Outcome = "deadline"      // Stopped after the step deadline
	OutcomeLaunchFailed Outcome = "launch_failed" // Process could not be started
)

// StepResult contains information about a finished step.
type StepResult struct {
	Step       Step
	Outcome    Outcome
	PID        int
	ExitCode   int
	Terminated bool // SIGTERM was sent
	Killed     bool // SIGKILL was sent
	Duration   time.Duration
	Err        error
}

// Report summarizes a Run.
type Report struct {
	State     State
	Enter     StepResult
	App       StepResult
	Restore   StepResult
	Cancelled bool
	Signal    string // first signal that requested cancellation
}

// ExitCode maps the run to a process exit status.
// A cancelled or skipped application counts as a clean exit.
func (r *Report) ExitCode() int {
	switch r.App.Outcome {
	case OutcomeLaunchFailed:
		return 1
	case OutcomeExited:
		return r.App.ExitCode
	default:
		return 0
	}
}
