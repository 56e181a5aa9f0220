package process

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
)

// ErrSignalRegistration is returned by Run when shutdown handlers cannot be installed.
var ErrSignalRegistration = errors.New("signal registration failed")

// shutdownSignals request cancellation of a Runner.
var shutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGHUP, syscall.SIGTERM}

// Notifier installs and removes signal subscriptions.
type Notifier interface {
	Notify(c chan<- os.Signal, sig ...os.Signal) error
	Stop(c chan<- os.Signal)
}

// OSNotifier delivers real process signals via os/signal.
type OSNotifier struct{}

// Notify implements Notifier.
func (OSNotifier) Notify(c chan<- os.Signal, sig ...os.Signal) error {
	signal.Notify(c, sig...)
	return nil
}

// Stop implements Notifier.
func (OSNotifier) Stop(c chan<- os.Signal) {
	signal.Stop(c)
}

// registerSignals subscribes to shutdownSignals and forwards them to Cancel.
// The returned function unsubscribes and stops the forwarding goroutine.
func (r *Runner) registerSignals() (func(), error) {
	r.logger.Debug("Registering signal handlers for clean shutdown")

	sigChan := make(chan os.Signal, 1)
	if err := r.notifier.Notify(sigChan, shutdownSignals...); err != nil {
		return nil, errors.Join(ErrSignalRegistration, err)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-sigChan:
				r.Cancel(sig)
			case <-done:
				return
			}
		}
	}()

	return func() {
		r.notifier.Stop(sigChan)
		close(done)
	}, nil
}
