package systemd

import (
	"errors"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/kiosk/internal/events"
)

type notifyRecorder struct {
	mu     sync.Mutex
	states []string
}

func (r *notifyRecorder) notify(_ bool, state string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
	return true, nil
}

func (r *notifyRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.states)
}

func withNotifyRecorder(t *testing.T) *notifyRecorder {
	t.Helper()
	rec := &notifyRecorder{}
	orig := sdNotify
	sdNotify = rec.notify
	t.Cleanup(func() { sdNotify = orig })
	return rec
}

func TestNotifierStates(t *testing.T) {
	rec := withNotifyRecorder(t)
	n := NewNotifier(slog.Default())

	n.Status("kiosk init")
	n.Ready()
	n.Stopping()

	want := []string{"STATUS=kiosk init", "READY=1", "STOPPING=1"}
	if got := rec.snapshot(); !slices.Equal(got, want) {
		t.Errorf("states = %v, want %v", got, want)
	}
}

func TestNotifierErrorIsLogged(t *testing.T) {
	orig := sdNotify
	sdNotify = func(bool, string) (bool, error) { return false, errors.New("socket gone") }
	t.Cleanup(func() { sdNotify = orig })

	// Must not panic or block
	NewNotifier(slog.Default()).Ready()
}

func TestBridgeForwardsRunnerEvents(t *testing.T) {
	rec := withNotifyRecorder(t)
	bus := events.New()
	stop := NewNotifier(slog.Default()).Bridge(bus)

	bus.Publish(events.StateChangedEvent{From: "switching_in", To: "running_application"})

	deadline := time.Now().Add(time.Second)
	for !slices.Contains(rec.snapshot(), "READY=1") {
		if time.Now().After(deadline) {
			t.Fatalf("READY=1 not sent, got %v", rec.snapshot())
		}
		time.Sleep(5 * time.Millisecond)
	}

	bus.Publish(events.CancelRequestedEvent{Signal: "terminated"})
	for !slices.Contains(rec.snapshot(), "STATUS=kiosk stopping on terminated") {
		if time.Now().After(deadline) {
			t.Fatalf("cancel status not sent, got %v", rec.snapshot())
		}
		time.Sleep(5 * time.Millisecond)
	}

	stop()
	stop()

	got := rec.snapshot()
	if got[0] != "STATUS=kiosk running_application" {
		t.Errorf("first state = %s, want status before READY", got[0])
	}
}

func TestBridgeStopDeliversFinalState(t *testing.T) {
	rec := withNotifyRecorder(t)
	bus := events.New()
	stop := NewNotifier(slog.Default()).Bridge(bus)

	for _, to := range []string{"switching_in", "running_application", "restoring", "done"} {
		bus.Publish(events.StateChangedEvent{To: to})
	}
	stop()

	want := []string{
		"STATUS=kiosk switching_in",
		"STATUS=kiosk running_application",
		"READY=1",
		"STATUS=kiosk restoring",
		"STOPPING=1",
		"STATUS=kiosk done",
	}
	if got := rec.snapshot(); !slices.Equal(got, want) {
		t.Errorf("states = %v, want %v", got, want)
	}
}
