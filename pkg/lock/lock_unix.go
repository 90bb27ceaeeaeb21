//go:build unix

package lock

import (
	stderrors "errors"
	"os"

	"github.com/arthur-debert/reshader/pkg/errors"
	"golang.org/x/sys/unix"
)

// flock locks belong to the open file description, so two opens of the same
// lock file conflict even inside one process.
func tryLock(f *os.File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == nil {
		return nil
	}
	if stderrors.Is(err, unix.EWOULDBLOCK) {
		return contention(f.Name())
	}
	return errors.Wrapf(err, errors.ErrWriteFailure, "flock %s", f.Name()).
		WithDetail("path", f.Name())
}

func unlock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
