package jobs

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrBusy is returned when another process holds the output directory lock.
var ErrBusy = errors.New("another transcribr batch is using the output directory")

// OutputLock is an exclusive advisory lock on the output directory.
type OutputLock struct {
	lock *flock.Flock
}

// AcquireOutputLock takes the lock at path without blocking.
func AcquireOutputLock(path string) (*OutputLock, error) {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrBusy
	}
	return &OutputLock{lock: lock}, nil
}

// Path returns the lock file location.
func (l *OutputLock) Path() string {
	return l.lock.Path()
}

// Release unlocks the output directory.
func (l *OutputLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
