package process

import (
	"sync"
	"sync/atomic"
)

// Flag is a monotonic cancellation flag. Once set it stays set.
// The zero value is ready to use. A nil *Flag is never set.
type Flag struct {
	set  atomic.Bool
	once sync.Once
	done chan struct{}
}

// NewFlag creates an unset flag.
func NewFlag() *Flag {
	return &Flag{}
}

func (f *Flag) init() {
	f.once.Do(func() { f.done = make(chan struct{}) })
}

// Set marks the flag. Returns true only for the call that changed it.
func (f *Flag) Set() bool {
	if f == nil {
		return false
	}
	f.init()
	if !f.set.CompareAndSwap(false, true) {
		return false
	}
	close(f.done)
	return true
}

// IsSet reports whether the flag has been set.
func (f *Flag) IsSet() bool {
	return f != nil && f.set.Load()
}

// Done returns a channel closed when the flag is set.
// For a nil flag it returns nil, which blocks forever in a select.
func (f *Flag) Done() <-chan struct{} {
	if f == nil {
		return nil
	}
	f.init()
	return f.done
}
