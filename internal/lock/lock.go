package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

var ErrAlreadyRunning = errors.New("another instance is already running")

// Instance is an exclusive, host-wide lock held for the lifetime of the
// process.
type Instance struct {
	lock *flock.Flock
}

// DefaultPath is the lock file under the user cache dir, or the temp dir
// when there is none.
func DefaultPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "grid-bench", "instance.lock")
}

// Acquire takes the lock without waiting. It returns ErrAlreadyRunning when
// another process holds it.
func Acquire(path string) (*Instance, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	fileLock := flock.New(path)
	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, path)
	}
	return &Instance{lock: fileLock}, nil
}

func (i *Instance) Path() string {
	return i.lock.Path()
}

func (i *Instance) Release() error {
	return i.lock.Unlock()
}
