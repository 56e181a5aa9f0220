package nats

import (
	"os"
	"sync"
	"syscall"

	"github.com/smazurov/kiosk/internal/process"
)

// RemoteNotifier wraps a process.Notifier and additionally delivers SIGTERM
// to subscribed channels when a remote stop arrives. A stop received while
// nothing is subscribed is dropped.
type RemoteNotifier struct {
	inner process.Notifier

	mu    sync.Mutex
	chans []chan<- os.Signal
}

// NewRemoteNotifier wraps inner. A nil inner means process.OSNotifier.
func NewRemoteNotifier(inner process.Notifier) *RemoteNotifier {
	if inner == nil {
		inner = process.OSNotifier{}
	}
	return &RemoteNotifier{inner: inner}
}

// Notify implements process.Notifier.
func (n *RemoteNotifier) Notify(c chan<- os.Signal, sig ...os.Signal) error {
	if err := n.inner.Notify(c, sig...); err != nil {
		return err
	}
	n.mu.Lock()
	n.chans = append(n.chans, c)
	n.mu.Unlock()
	return nil
}

// Stop implements process.Notifier.
func (n *RemoteNotifier) Stop(c chan<- os.Signal) {
	n.inner.Stop(c)

	n.mu.Lock()
	defer n.mu.Unlock()
	for i, ch := range n.chans {
		if ch == c {
			n.chans = append(n.chans[:i], n.chans[i+1:]...)
			return
		}
	}
}

// Deliver sends SIGTERM to every subscribed channel without blocking.
// It reports whether any channel accepted it.
func (n *RemoteNotifier) Deliver() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	delivered := false
	for _, ch := range n.chans {
		select {
		case ch <- syscall.SIGTERM:
			delivered = true
		default:
		}
	}
	return delivered
}
