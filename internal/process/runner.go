package process

import (
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/smazurov/kiosk/internal/logging"
)

// Defaults for RunnerOptions.
const (
	DefaultPollInterval  = 100 * time.Millisecond
	DefaultGracePeriod   = 15 * time.Second
	DefaultSwitchTimeout = 10 * time.Second
)

// Hooks are called synchronously from the Runner. All fields are optional.
type Hooks struct {
	// OnStateChange is called on every state transition.
	OnStateChange func(oldState, newState State)

	// OnStepDone is called after each step, including skipped ones.
	OnStepDone func(result StepResult)

	// OnSignal is called before SIGTERM or SIGKILL is sent to a step's process.
	OnSignal func(step string, pid int, sig syscall.Signal)

	// OnCancel is called once, when cancellation is first requested.
	OnCancel func(signal string)
}

// RunnerOptions configures a new Runner.
type RunnerOptions struct {
	// Enter switches the host into kiosk display mode (required).
	Enter Step

	// Restore returns the host to its normal display mode (required).
	Restore Step

	// Launcher starts step processes. If nil, uses an ExecLauncher.
	Launcher Launcher

	// Notifier installs signal handlers. If nil, uses OSNotifier.
	Notifier Notifier

	// Logger for runner operations. If nil, uses slog.Default().
	Logger logging.Logger

	// PollInterval between liveness checks. Defaults to DefaultPollInterval.
	PollInterval time.Duration

	// GracePeriod between SIGTERM and SIGKILL. Defaults to DefaultGracePeriod.
	GracePeriod time.Duration

	Hooks Hooks
}

// Runner runs an application between a display-mode switch and its reversal.
// A Runner is single use.
type Runner struct {
	enter   Step
	app     Step
	restore Step

	flag         *Flag
	cancelSignal atomic.Pointer[string] // first signal that set flag
	state        State
	notifier     Notifier
	logger       logging.Logger
	hooks        Hooks
	exec         *executor
}

// NewRunner creates a Runner for the given application step.
func NewRunner(app Step, opts *RunnerOptions) *Runner {
	if opts == nil || len(opts.Enter.Args) == 0 || len(opts.Restore.Args) == 0 {
		panic("RunnerOptions with Enter and Restore steps is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	launcher := opts.Launcher
	if launcher == nil {
		launcher = NewExecLauncher(logger)
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = OSNotifier{}
	}

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	gracePeriod := opts.GracePeriod
	if gracePeriod <= 0 {
		gracePeriod = DefaultGracePeriod
	}

	r := &Runner{
		enter:    opts.Enter,
		app:      app,
		restore:  opts.Restore,
		flag:     NewFlag(),
		state:    StateInit,
		notifier: notifier,
		logger:   logger,
		hooks:    opts.Hooks,
		exec: &executor{
			launcher:     launcher,
			logger:       logger,
			pollInterval: pollInterval,
			gracePeriod:  gracePeriod,
		},
	}
	if onSignal := opts.Hooks.OnSignal; onSignal != nil {
		r.exec.onSignal = func(step string, pid int, sig syscall.Signal) {
			r.callHook("signal", func() { onSignal(step, pid, sig) })
		}
	}
	return r
}

// Cancel requests shutdown. Safe to call from any goroutine and any number of times.
// The running step is stopped and no further step except the restore step is launched.
func (r *Runner) Cancel(sig os.Signal) {
	name := "none"
	if sig != nil {
		name = sig.String()
	}

	if !r.flag.Set() {
		r.logger.Debug("Stopped flag already set, ignoring", "signal", name)
		return
	}
	r.cancelSignal.Store(&name)
	r.logger.Debug("Set stopped flag for application runner", "signal", name)

	if r.hooks.OnCancel != nil {
		r.callHook("cancel", func() { r.hooks.OnCancel(name) })
	}
}

// Cancelled reports whether shutdown has been requested.
func (r *Runner) Cancelled() bool {
	return r.flag.IsSet()
}

// Run executes the enter, application and restore steps and blocks until done.
// The restore step runs on every path once signal handlers are installed.
// The only error returned wraps ErrSignalRegistration.
func (r *Runner) Run() (report *Report, err error) {
	report = &Report{State: StateInit}

	unregister, err := r.registerSignals()
	if err != nil {
		r.logger.Error("Failed to register signal handlers", "error", err)
		return report, err
	}
	defer unregister()

	defer r.restoreDisplay(report)
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Unexpected failure while running kiosk", "panic", fmt.Sprint(p))
		}
	}()

	r.setState(report, StateSwitchingIn)
	r.logger.Debug("Switching to kiosk display mode", "command", r.enter.String())
	report.Enter = r.exec.run(r.enter, r.flag)
	switch report.Enter.Outcome {
	case OutcomeLaunchFailed:
		r.logger.Warn("Could not switch display mode, continuing", "error", report.Enter.Err)
	case OutcomeDeadline:
		r.logger.Warn("Display mode switch timed out, continuing", "timeout", r.enter.Deadline)
	case OutcomeExited:
		if report.Enter.ExitCode != 0 {
			r.logger.Warn("Display mode switch exited with error", "exit_code", report.Enter.ExitCode)
		}
	}
	r.stepDone(report.Enter)

	r.setState(report, StateRunningApplication)
	r.logger.Debug("Launching application with previously determined arguments", "command", r.app.String())
	report.App = r.exec.run(r.app, r.flag)
	switch report.App.Outcome {
	case OutcomeLaunchFailed:
		r.logger.Error("Could not launch application", "error", report.App.Err)
	case OutcomeExited:
		r.logger.Info("Application has terminated", "exit_code", report.App.ExitCode)
	case OutcomeCancelled:
		r.logger.Info("Application stopped on request", "exit_code", report.App.ExitCode, "killed", report.App.Killed)
	}
	r.stepDone(report.App)

	return report, nil
}

// restoreDisplay runs the restore step without a cancellation flag or deadline.
func (r *Runner) restoreDisplay(report *Report) {
	r.setState(report, StateRestoring)
	r.logger.Debug("Switching back to normal display mode", "command", r.restore.String())

	report.Restore = r.exec.run(r.restore, nil)
	switch {
	case report.Restore.Outcome == OutcomeLaunchFailed:
		r.logger.Error("Could not restore display mode", "error", report.Restore.Err)
	case report.Restore.ExitCode != 0:
		r.logger.Warn("Display mode restore exited with error", "exit_code", report.Restore.ExitCode)
	}
	r.stepDone(report.Restore)

	report.Cancelled = r.flag.IsSet()
	if name := r.cancelSignal.Load(); name != nil {
		report.Signal = *name
	}

	r.setState(report, StateDone)
	r.logger.Debug("Kiosk runner has completed")
}

func (r *Runner) setState(report *Report, newState State) {
	oldState := r.state
	r.state = newState
	report.State = newState
	if r.hooks.OnStateChange != nil {
		r.callHook("state", func() { r.hooks.OnStateChange(oldState, newState) })
	}
}

func (r *Runner) stepDone(result StepResult) {
	r.logger.Debug("Step finished", "step", result.Step.Name, "outcome", result.Outcome, "duration", result.Duration)
	if r.hooks.OnStepDone != nil {
		r.callHook("step", func() { r.hooks.OnStepDone(result) })
	}
}

// callHook contains a panicking hook so the restore step still runs.
func (r *Runner) callHook(name string, hook func()) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Hook failed", "hook", name, "panic", fmt.Sprint(p))
		}
	}()
	hook()
}
