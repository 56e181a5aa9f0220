package process

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// behavior describes how a fake process reacts.
type behavior struct {
	launchErr  error
	panics     bool
	exitAfter  time.Duration // negative = never exits on its own
	exitCode   int
	ignoreTerm bool
}

type fakeHandle struct {
	name       string
	pid        int
	done       chan struct{}
	once       sync.Once
	exitCode   atomic.Int32
	ignoreTerm bool
	terms      atomic.Int32
	kills      atomic.Int32
}

func (h *fakeHandle) exit(code int) {
	h.once.Do(func() {
		h.exitCode.Store(int32(code))
		close(h.done)
	})
}

func (h *fakeHandle) Pid() int { return h.pid }

func (h *fakeHandle) Exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *fakeHandle) ExitCode() int {
	if !h.Exited() {
		return -1
	}
	return int(h.exitCode.Load())
}

func (h *fakeHandle) Wait(timeout time.Duration) bool {
	if timeout < 0 {
		<-h.done
		return true
	}
	select {
	case <-h.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (h *fakeHandle) Terminate() error {
	h.terms.Add(1)
	if !h.ignoreTerm {
		h.exit(143)
	}
	return nil
}

func (h *fakeHandle) Kill() error {
	h.kills.Add(1)
	h.exit(137)
	return nil
}

// fakeLauncher launches fake processes keyed by step name.
type fakeLauncher struct {
	mu        sync.Mutex
	behaviors map[string]behavior
	launches  []string
	handles   map[string]*fakeHandle
	nextPID   int
}

func newFakeLauncher(behaviors map[string]behavior) *fakeLauncher {
	return &fakeLauncher{
		behaviors: behaviors,
		handles:   make(map[string]*fakeHandle),
		nextPID:   1000,
	}
}

func (l *fakeLauncher) Launch(step Step) (Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.launches = append(l.launches, step.Name)
	b := l.behaviors[step.Name]
	if b.panics {
		panic("launcher exploded")
	}
	if b.launchErr != nil {
		return nil, b.launchErr
	}

	l.nextPID++
	h := &fakeHandle{name: step.Name, pid: l.nextPID, done: make(chan struct{}), ignoreTerm: b.ignoreTerm}
	h.exitCode.Store(-1)
	if b.exitAfter >= 0 {
		time.AfterFunc(b.exitAfter, func() { h.exit(b.exitCode) })
	}
	l.handles[step.Name] = h
	return h, nil
}

func (l *fakeLauncher) launched() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.launches...)
}

func (l *fakeLauncher) handle(name string) *fakeHandle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handles[name]
}

// waitForLaunch waits until the named step has been launched.
func (l *fakeLauncher) waitForLaunch(t *testing.T, name string) *fakeHandle {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h := l.handle(name); h != nil {
			return h
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("step %s was never launched", name)
	return nil
}

// fakeNotifier captures the signal channel so tests can deliver signals.
type fakeNotifier struct {
	mu      sync.Mutex
	err     error
	ch      chan<- os.Signal
	stopped bool
}

func (n *fakeNotifier) Notify(c chan<- os.Signal, _ ...os.Signal) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.ch = c
	return nil
}

func (n *fakeNotifier) Stop(_ chan<- os.Signal) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopped = true
}

func (n *fakeNotifier) send(t *testing.T, sig os.Signal) {
	t.Helper()
	n.mu.Lock()
	ch := n.ch
	n.mu.Unlock()
	if ch == nil {
		t.Fatal("signal handlers not registered")
	}
	ch <- sig
}

// recordLogger records messages for assertions.
type recordLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordLogger) record(level, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf("%s %s %v", level, msg, args))
}

func (l *recordLogger) Debug(msg string, args ...any) { l.record("DEBUG", msg, args...) }
func (l *recordLogger) Info(msg string, args ...any)  { l.record("INFO", msg, args...) }
func (l *recordLogger) Warn(msg string, args ...any)  { l.record("WARN", msg, args...) }
func (l *recordLogger) Error(msg string, args ...any) { l.record("ERROR", msg, args...) }

func (l *recordLogger) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}
