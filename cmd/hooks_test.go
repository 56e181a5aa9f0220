package cmd

import (
	"context"
	"errors"
	"log/slog"
	"syscall"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smazurov/kiosk/internal/events"
	"github.com/smazurov/kiosk/internal/metrics"
	"github.com/smazurov/kiosk/internal/process"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestBuildHooksPublishesAndRecords(t *testing.T) {
	recorder := metrics.NewRecorder()
	bus := events.New()

	steps := make(chan events.StepFinishedEvent, 1)
	signals := make(chan events.SignalSentEvent, 1)
	unsubSteps := bus.Subscribe(func(e events.StepFinishedEvent) { steps <- e })
	defer unsubSteps()
	unsubSignals := bus.Subscribe(func(e events.SignalSentEvent) { signals <- e })
	defer unsubSignals()

	hooks := buildHooks(recorder, bus, nil)
	hooks.OnStateChange(process.StateInit, process.StateSwitchingIn)
	hooks.OnSignal("app", 4242, syscall.SIGTERM)
	hooks.OnCancel("interrupt")
	hooks.OnStepDone(process.StepResult{
		Step:     process.Step{Name: "app"},
		Outcome:  process.OutcomeLaunchFailed,
		ExitCode: -1,
		Err:      errors.New("launch failed: app: not found"),
	})

	select {
	case e := <-steps:
		if e.Step != "app" || e.Outcome != "launch_failed" || e.Error == "" {
			t.Errorf("unexpected step event: %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("step event not published")
	}

	select {
	case e := <-signals:
		if e.PID != 4242 || e.Signal != syscall.SIGTERM.String() {
			t.Errorf("unexpected signal event: %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("signal event not published")
	}

	gatherer := recorder.Gatherer()
	count, err := testutil.GatherAndCount(gatherer, "kiosk_state_transitions_total", "kiosk_signals_sent_total",
		"kiosk_cancellations_total", "kiosk_step_outcomes_total")
	if err != nil {
		t.Fatal(err)
	}
	if count != 4 {
		t.Errorf("recorded series = %d, want 4", count)
	}
}

func TestDisplayMonitorWithoutUnit(_ *testing.T) {
	monitor := newDisplayMonitor(context.Background(), "", testLogger())
	monitor.observe(process.StateSwitchingIn)
	monitor.Close()

	var nilMonitor *displayMonitor
	nilMonitor.observe(process.StateDone)
	nilMonitor.Close()
}
