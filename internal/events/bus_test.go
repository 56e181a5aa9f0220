package events

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan StateChangedEvent, 1)

	unsub := bus.Subscribe(func(e StateChangedEvent) {
		received <- e
	})
	defer unsub()

	bus.Publish(StateChangedEvent{From: "init", To: "switching_in"})

	select {
	case got := <-received:
		if got.From != "init" || got.To != "switching_in" {
			t.Errorf("unexpected event: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBus_MultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan StepFinishedEvent, 1)
	received2 := make(chan StepFinishedEvent, 1)

	unsub1 := bus.Subscribe(func(e StepFinishedEvent) { received1 <- e })
	defer unsub1()
	unsub2 := bus.Subscribe(func(e StepFinishedEvent) { received2 <- e })
	defer unsub2()

	bus.Publish(StepFinishedEvent{Step: "enter", Outcome: "exited"})

	<-received1
	<-received2
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan SignalSentEvent, 1)

	unsub := bus.Subscribe(func(e SignalSentEvent) { received <- e })

	bus.Publish(SignalSentEvent{Step: "app", Signal: "terminated"})
	<-received

	unsub()

	bus.Publish(SignalSentEvent{Step: "app", Signal: "killed"})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()
	stateReceived := make(chan bool, 1)
	cancelReceived := make(chan bool, 1)

	unsub1 := bus.Subscribe(func(_ StateChangedEvent) { stateReceived <- true })
	defer unsub1()
	unsub2 := bus.Subscribe(func(_ CancelRequestedEvent) { cancelReceived <- true })
	defer unsub2()

	bus.Publish(StateChangedEvent{To: "restoring"})
	<-stateReceived

	select {
	case <-cancelReceived:
		t.Fatal("cancel subscriber should not receive StateChangedEvent")
	case <-time.After(10 * time.Millisecond):
	}

	bus.Publish(CancelRequestedEvent{Signal: "terminated"})
	<-cancelReceived

	select {
	case <-stateReceived:
		t.Fatal("state subscriber should not receive CancelRequestedEvent")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_UnknownHandler(_ *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(string) {})
	unsub()
}

func TestBus_ThreadSafety(_ *testing.T) {
	bus := New()
	var wg sync.WaitGroup
	numGoroutines := 10
	eventsPerGoroutine := 100
	expected := numGoroutines * eventsPerGoroutine

	receivedCh := make(chan bool, expected)
	unsub := bus.Subscribe(func(_ SignalSentEvent) { receivedCh <- true })
	defer unsub()

	for range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range eventsPerGoroutine {
				bus.Publish(SignalSentEvent{
					Step:      "app",
					Signal:    "terminated",
					Timestamp: time.Now().Format(time.RFC3339),
				})
			}
		}()
	}

	wg.Wait()

	for range expected {
		<-receivedCh
	}
}

func TestBus_PreservesOrderPerSubscriber(t *testing.T) {
	bus := New()
	received := make(chan string, 5)
	unsub := bus.Subscribe(func(e StateChangedEvent) { received <- e.To })
	defer unsub()

	states := []string{"switching_in", "running_application", "restoring", "done"}
	for _, s := range states {
		bus.Publish(StateChangedEvent{To: s})
	}

	for _, want := range states {
		if got := <-received; got != want {
			t.Fatalf("got %s, want %s", got, want)
		}
	}
}

func TestStepFinishedEventJSON(t *testing.T) {
	data, err := json.Marshal(StepFinishedEvent{
		Step:     "app",
		Outcome:  "cancelled",
		PID:      4242,
		ExitCode: 143,
		Seconds:  1.5,
	})
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if result["exit_code"] != float64(143) || result["outcome"] != "cancelled" {
		t.Errorf("unexpected JSON: %s", data)
	}
	if _, ok := result["error"]; ok {
		t.Errorf("empty error should be omitted: %s", data)
	}
}

func TestSubscribeToChannel(t *testing.T) {
	bus := New()
	ch := make(chan any, 10)

	unsub := SubscribeToChannel[CancelRequestedEvent](bus, ch)
	defer unsub()

	bus.Publish(CancelRequestedEvent{Signal: "interrupt"})

	received := <-ch
	ev, ok := received.(CancelRequestedEvent)
	if !ok {
		t.Fatalf("Expected CancelRequestedEvent, got %T", received)
	}
	if ev.Signal != "interrupt" {
		t.Errorf("Signal = %s, want interrupt", ev.Signal)
	}
}

func TestSubscribeToChannel_NonBlocking(_ *testing.T) {
	bus := New()
	ch := make(chan any) // No buffer

	unsub := SubscribeToChannel[StateChangedEvent](bus, ch)
	defer unsub()

	done := make(chan bool, 1)
	go func() {
		bus.Publish(StateChangedEvent{To: "done"})
		done <- true
	}()

	<-done
}

func TestBus_UnsubscribeDeliversPublishedEvents(t *testing.T) {
	bus := New()
	var mu sync.Mutex
	var got []string

	unsub := bus.Subscribe(func(e StateChangedEvent) {
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		got = append(got, e.To)
		mu.Unlock()
	})

	want := []string{"switching_in", "running_application", "restoring", "done"}
	for _, to := range want {
		bus.Publish(StateChangedEvent{To: to})
	}
	unsub()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != len(want) {
		t.Fatalf("got %v after unsubscribe, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSubscribeToChannel_UnsubscribeFlushesToChannel(t *testing.T) {
	bus := New()
	ch := make(chan any, 10)

	unsub := SubscribeToChannel[StepFinishedEvent](bus, ch)
	bus.Publish(StepFinishedEvent{Step: "enter"})
	bus.Publish(StepFinishedEvent{Step: "app"})
	bus.Publish(StepFinishedEvent{Step: "restore"})
	unsub()

	if len(ch) != 3 {
		t.Fatalf("channel holds %d events after unsubscribe, want 3", len(ch))
	}
}
