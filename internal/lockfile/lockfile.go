// Package lockfile provides a non-blocking advisory file lock used to keep
// overlapping cron invocations from running the decision cycle concurrently.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// ErrBusy is returned by Acquire when another process holds the lock.
// It is an expected condition, not a failure: the other invocation owns
// this cycle.
var ErrBusy = errors.New("lock is held by another process")

// Lock represents ownership of the advisory lock for one invocation.
type Lock struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// Acquire opens (creating if absent) the lock file at path and takes an
// exclusive flock on it without blocking. If the lock is already held it
// returns ErrBusy immediately. The lock file itself is never deleted; only
// the flock state is the mutual-exclusion token.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file %s: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrBusy
		}
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}

	return &Lock{path: path, file: f}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release drops the flock and closes the file. It is idempotent: calling it
// more than once (e.g. from a defer and an explicit call) is safe.
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	f := l.file
	l.file = nil

	if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
		f.Close()
		return fmt.Errorf("failed to unlock %s: %w", l.path, err)
	}
	return f.Close()
}
