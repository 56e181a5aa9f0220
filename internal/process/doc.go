// Package process supervises the kiosk application between two display-mode switches.
//
// A Runner executes three steps in order:
//   - Enter: switch the host into kiosk display mode, bounded by a deadline
//   - App: run the kiosk application until it exits or shutdown is requested
//   - Restore: switch back to the normal display mode, on every exit path
//
// Every step is launched in its own process group and watched by polling its
// liveness, so a shutdown signal wakes the wait without interrupting a blocking
// call. A step that must be stopped receives SIGTERM and, if it is still alive
// after the grace period, SIGKILL.
//
// SIGINT, SIGHUP and SIGTERM only set the Runner's cancellation Flag. Once set,
// no further step is launched except Restore, which cannot be cancelled.
//
// Example usage:
//
//	runner := process.NewRunner(appStep, &process.RunnerOptions{
//	    Enter:   enterStep,
//	    Restore: restoreStep,
//	    Logger:  logging.GetLogger("runner"),
//	})
//	report, err := runner.Run()
//	if err != nil {
//	    os.Exit(1)
//	}
//	os.Exit(report.ExitCode())
package process
