// Package lock serializes installs into the same game directory across
// processes. Locks are non-blocking: a second installer for the same game
// fails fast with LOCK_CONTENTION instead of waiting.
package lock

import (
	"os"
	"path/filepath"

	"github.com/arthur-debert/reshader/pkg/errors"
	"github.com/arthur-debert/reshader/pkg/logging"
	"github.com/arthur-debert/reshader/pkg/paths"
)

// Lock is an exclusive hold on one game directory
type Lock struct {
	path string
	game string
	file *os.File
}

// Path is the lock file backing the hold
func (l *Lock) Path() string { return l.path }

// ForGame acquires the lock of gamePath under the state directory.
func ForGame(p paths.Paths, gamePath string) (*Lock, error) {
	lockPath, err := p.LockPath(gamePath)
	if err != nil {
		return nil, err
	}
	l, err := Acquire(lockPath)
	if err != nil {
		return nil, err
	}
	l.game = gamePath
	return l, nil
}

// Acquire opens (or creates) the lock file and takes an exclusive lock
// without waiting.
func Acquire(lockPath string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrWriteFailure, "cannot create lock directory").
			WithDetail("path", filepath.Dir(lockPath))
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrWriteFailure, "cannot open lock file %s", lockPath).
			WithDetail("path", lockPath)
	}

	if err := tryLock(f); err != nil {
		_ = f.Close()
		return nil, err
	}

	logger := logging.GetLogger("lock")
	logger.Trace().Str("path", lockPath).Msg("Lock acquired")
	return &Lock{path: lockPath, file: f}, nil
}

// Release drops the lock. Calling it more than once is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	logger := logging.GetLogger("lock")

	if err := unlock(l.file); err != nil {
		logger.Debug().Err(err).Str("path", l.path).Msg("Unlock failed")
	}
	err := l.file.Close()
	l.file = nil
	if err != nil {
		return errors.Wrapf(err, errors.ErrWriteFailure, "cannot close lock file %s", l.path)
	}
	logger.Trace().Str("path", l.path).Str("game", l.game).Msg("Lock released")
	return nil
}

func contention(lockPath string) error {
	return errors.New(errors.ErrLockContention, "another install is in progress for this game").
		WithDetail("path", lockPath)
}
