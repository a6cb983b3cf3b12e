package queue

import (
	"context"
	"fmt"
	"os"
	"time"
)

const (
	lockSuffix        = ".lock"
	lockRetryInterval = 5 * time.Millisecond
	lockTimeout       = 2 * time.Second
)

// fileLock guards a queue file against concurrent writers from other
// processes. Acquisition creates a sibling lock file with O_EXCL, which is
// atomic on POSIX filesystems; a second acquirer spins until the file is
// removed or the timeout expires.
type fileLock struct {
	path string
}

// acquireLock takes the lock for the given queue file path, retrying until
// the context is cancelled or the lock timeout expires.
//
// A stale lock (left behind by a crashed process) older than the timeout is
// broken and re-acquired on the next attempt.
func acquireLock(ctx context.Context, queuePath string) (*fileLock, error) {
	lockPath := queuePath + lockSuffix
	deadline := time.Now().Add(lockTimeout)

	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return &fileLock{path: lockPath}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create lock file %s: %w", lockPath, err)
		}

		// 古いロックは壊れたプロセスの残骸として除去
		if info, statErr := os.Stat(lockPath); statErr == nil {
			if time.Since(info.ModTime()) > lockTimeout {
				os.Remove(lockPath)
				continue
			}
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out waiting for lock on %s", queuePath)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

// release removes the lock file. Safe to call once.
func (l *fileLock) release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file %s: %w", l.path, err)
	}
	return nil
}
