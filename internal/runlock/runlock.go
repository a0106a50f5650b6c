// Package runlock enforces single-instance execution. Two concurrent syncs
// writing the same library folders would corrupt each other's staging, so a
// run holds a file lock for its whole duration.
package runlock

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrHeld is returned when another process already holds the lock.
var ErrHeld = errors.New("another sync is already running")

// Lock is a non-blocking file lock under the log directory.
type Lock struct {
	path string
	lock *flock.Flock
}

// New creates a lock rooted at dir. The lock file is created on acquire.
func New(dir string) *Lock {
	path := filepath.Join(dir, "absync.lock")
	return &Lock{path: path, lock: flock.New(path)}
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// Acquire takes the lock without blocking. It returns ErrHeld when a
// concurrent run owns it.
func (l *Lock) Acquire() error {
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w (lock file %s)", ErrHeld, l.path)
	}
	return nil
}

// Release drops the lock. Safe to call after a failed Acquire.
func (l *Lock) Release() error {
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
