package systemd

import (
	"sync"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/smazurov/kiosk/internal/events"
	"github.com/smazurov/kiosk/internal/logging"
)

// sdNotify is swapped in tests.
var sdNotify = daemon.SdNotify

// Notifier reports service state to systemd. Outside a notify-type
// service every call is a no-op.
type Notifier struct {
	logger logging.Logger
}

// NewNotifier creates a Notifier.
func NewNotifier(logger logging.Logger) *Notifier {
	return &Notifier{logger: logger}
}

// Ready sends READY=1.
func (n *Notifier) Ready() { n.send(daemon.SdNotifyReady) }

// Stopping sends STOPPING=1.
func (n *Notifier) Stopping() { n.send(daemon.SdNotifyStopping) }

// Status sends a free-form STATUS line.
func (n *Notifier) Status(status string) { n.send("STATUS=" + status) }

func (n *Notifier) send(state string) {
	sent, err := sdNotify(false, state)
	switch {
	case err != nil:
		n.logger.Warn("sd_notify failed", "state", state, "error", err)
	case sent:
		n.logger.Debug("sd_notify", "state", state)
	}
}

// Bridge forwards runner events from bus to systemd until the returned stop
// function is called. stop delivers anything already queued before returning.
func (n *Notifier) Bridge(bus *events.Bus) (stop func()) {
	ch := make(chan any, 32)
	unsubState := events.SubscribeToChannel[events.StateChangedEvent](bus, ch)
	unsubCancel := events.SubscribeToChannel[events.CancelRequestedEvent](bus, ch)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case ev := <-ch:
				n.handle(ev)
			case <-done:
				for {
					select {
					case ev := <-ch:
						n.handle(ev)
					default:
						return
					}
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubState()
			unsubCancel()
			close(done)
			wg.Wait()
		})
	}
}

func (n *Notifier) handle(ev any) {
	switch e := ev.(type) {
	case events.StateChangedEvent:
		n.Status("kiosk " + e.To)
		switch e.To {
		case "running_application":
			n.Ready()
		case "restoring":
			n.Stopping()
		}
	case events.CancelRequestedEvent:
		n.Status("kiosk stopping on " + e.Signal)
	}
}
