package cmd

import (
	"syscall"
	"time"

	"github.com/smazurov/kiosk/internal/events"
	"github.com/smazurov/kiosk/internal/metrics"
	"github.com/smazurov/kiosk/internal/process"
)

// buildHooks feeds runner callbacks to the metrics recorder, the event bus
// and the display monitor. The recorder is updated synchronously so the
// textfile is complete once Run returns.
func buildHooks(recorder *metrics.Recorder, bus *events.Bus, monitor *displayMonitor) process.Hooks {
	now := func() string { return time.Now().Format(time.RFC3339) }

	return process.Hooks{
		OnStateChange: func(oldState, newState process.State) {
			recorder.StateChanged(string(newState))
			bus.Publish(events.StateChangedEvent{
				From:      string(oldState),
				To:        string(newState),
				Timestamp: now(),
			})
			monitor.observe(newState)
		},
		OnStepDone: func(result process.StepResult) {
			skipped := result.Outcome == process.OutcomeSkipped
			recorder.StepFinished(result.Step.Name, string(result.Outcome), result.Duration, skipped)

			ev := events.StepFinishedEvent{
				Step:       result.Step.Name,
				Outcome:    string(result.Outcome),
				PID:        result.PID,
				ExitCode:   result.ExitCode,
				Terminated: result.Terminated,
				Killed:     result.Killed,
				Seconds:    result.Duration.Seconds(),
				Timestamp:  now(),
			}
			if result.Err != nil {
				ev.Error = result.Err.Error()
			}
			bus.Publish(ev)
		},
		OnSignal: func(step string, pid int, sig syscall.Signal) {
			recorder.SignalSent(step, sig.String())
			bus.Publish(events.SignalSentEvent{Step: step, PID: pid, Signal: sig.String(), Timestamp: now()})
		},
		OnCancel: func(signal string) {
			recorder.Cancelled(signal)
			bus.Publish(events.CancelRequestedEvent{Signal: signal, Timestamp: now()})
		},
	}
}
