package process

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/smazurov/kiosk/internal/logging"
)

// executor launches one step and supervises it until it is gone.
type executor struct {
	launcher     Launcher
	logger       logging.Logger
	pollInterval time.Duration
	gracePeriod  time.Duration
	onSignal     func(step string, pid int, sig syscall.Signal)
}

// run executes step under the given cancellation flag.
// A nil flag makes the step uninterruptible.
func (e *executor) run(step Step, cancel *Flag) (result StepResult) {
	result = StepResult{Step: step, ExitCode: -1}

	if cancel.IsSet() {
		e.logger.Debug("Skipping step, shutdown already requested", "step", step.Name)
		result.Outcome = OutcomeSkipped
		return result
	}

	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	e.logger.Debug("Launching new process", "step", step.Name, "args", step.Args)
	h, err := e.launcher.Launch(step)
	if err != nil {
		result.Outcome = OutcomeLaunchFailed
		result.Err = fmt.Errorf("%w: %s: %w", ErrLaunchFailed, step.Name, err)
		return result
	}
	result.PID = h.Pid()
	e.logger.Debug("Launched new process", "step", step.Name, "pid", result.PID, "args", step.Args)

	result.Outcome = e.await(h, step, cancel)

	if h.Exited() {
		result.Outcome = OutcomeExited
		result.ExitCode = h.ExitCode()
		return result
	}

	e.stop(h, step, &result)
	result.ExitCode = h.ExitCode()
	return result
}

// await polls liveness until the process exits, cancel is set or the step deadline passes.
func (e *executor) await(h Handle, step Step, cancel *Flag) Outcome {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if step.Deadline > 0 {
		timer := time.NewTimer(step.Deadline)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		if h.Exited() {
			return OutcomeExited
		}
		select {
		case <-cancel.Done():
			return OutcomeCancelled
		case <-deadline:
			e.logger.Debug("Step deadline exceeded", "step", step.Name, "deadline", step.Deadline)
			return OutcomeDeadline
		case <-ticker.C:
		}
	}
}

// stop terminates a live process, escalating to SIGKILL after the grace period.
func (e *executor) stop(h Handle, step Step, result *StepResult) {
	pid := h.Pid()
	defer e.logger.Debug("Successfully stopped process", "step", step.Name, "pid", pid)

	e.logger.Debug("Attempting graceful shutdown of process", "step", step.Name, "pid", pid)
	result.Terminated = true
	e.signal(step, pid, syscall.SIGTERM, h.Terminate)
	if h.Wait(e.gracePeriod) {
		return
	}

	e.logger.Debug("Forcefully killing process due to timeout", "step", step.Name, "pid", pid, "grace_period", e.gracePeriod)
	result.Killed = true
	e.signal(step, pid, syscall.SIGKILL, h.Kill)
	h.Wait(-1)
}

func (e *executor) signal(step Step, pid int, sig syscall.Signal, send func() error) {
	if e.onSignal != nil {
		e.onSignal(step.Name, pid, sig)
	}
	if err := send(); err != nil {
		// process exited between the liveness check and the signal
		if !errors.Is(err, os.ErrProcessDone) {
			e.logger.Warn("Failed to signal process", "step", step.Name, "pid", pid, "signal", sig.String(), "error", err)
		}
	}
}
