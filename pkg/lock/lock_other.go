//go:build !unix

package lock

import (
	"os"
	"sync"
)

// Without flock only installs inside this process are serialized.
var (
	heldMu sync.Mutex
	held   = map[string]bool{}
)

func tryLock(f *os.File) error {
	heldMu.Lock()
	defer heldMu.Unlock()
	if held[f.Name()] {
		return contention(f.Name())
	}
	held[f.Name()] = true
	return nil
}

func unlock(f *os.File) error {
	heldMu.Lock()
	defer heldMu.Unlock()
	delete(held, f.Name())
	return nil
}
