// Package lock keeps a single kiosk runner per host. Display mode switching is
// global state, so two overlapping runs would restore each other's display.
package lock

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("another kiosk instance is running")

// Instance is a held single-instance lock.
type Instance struct {
	path string
	fl   *flock.Flock
}

// Acquire takes an exclusive flock(2) on path without blocking.
// The file is created if needed and left in place on release.
func Acquire(path string) (*Instance, error) {
	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire flock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: lock %s is held", ErrLocked, path)
	}
	return &Instance{path: path, fl: fl}, nil
}

// Path returns the lock file path.
func (i *Instance) Path() string {
	return i.path
}

// Release drops the lock. Safe to call more than once.
func (i *Instance) Release() error {
	if i == nil || i.fl == nil {
		return nil
	}
	err := i.fl.Unlock()
	i.fl = nil
	if err != nil {
		return fmt.Errorf("release flock %s: %w", i.path, err)
	}
	return nil
}
