package statefs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gofrs/flock"
)

// ProcessLock is the pid-file + exclusive advisory lock that guarantees a
// single writer for one state directory (spec.md §4.9's shared-resources
// rule). Release removes the pid file only if the lock was actually held,
// so a failed TryLock never clobbers another process's pid file.
type ProcessLock struct {
	path string
	fl   *flock.Flock
}

// AcquireProcessLock tries to lock path, writing the current pid into it
// on success. It waits at most 200ms, retrying every 20ms: a lock still
// held by another holder after that returns ok=false with a nil error,
// matching the "state-lock contention" exit path rather than queuing
// behind the other writer.
func AcquireProcessLock(path string) (*ProcessLock, bool, error) {
	fl := flock.New(path)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	ok, err := fl.TryLockContext(ctx, 20*time.Millisecond)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, false, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, false, nil
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		fl.Unlock()
		return nil, false, fmt.Errorf("write pid to %s: %w", path, err)
	}

	return &ProcessLock{path: path, fl: fl}, true, nil
}

// Release unlocks and removes the pid file. Safe to call once on a
// successfully acquired lock; the caller typically defers it.
func (l *ProcessLock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("unlock %s: %w", l.path, err)
	}
	_ = os.Remove(l.path)
	return nil
}
