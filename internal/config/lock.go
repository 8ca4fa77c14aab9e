package config

import (
	"fmt"

	"github.com/gofrs/flock"
)

// VersionLock guards an output root against two concurrent compose
// invocations racing to allocate the same "v<N>" path beneath it; the
// caller takes it before calling NextVersionDir.
type VersionLock struct {
	fl *flock.Flock
}

// AcquireVersionLock takes an exclusive, non-blocking lock on
// "<dir>.lock". Returns an error immediately if another process already
// holds it, rather than blocking the CLI.
func AcquireVersionLock(dir string) (*VersionLock, error) {
	fl := flock.New(dir + ".lock")
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("config: locking %s: %w", dir, err)
	}
	if !locked {
		return nil, fmt.Errorf("config: %s is already being rendered by another process", dir)
	}
	return &VersionLock{fl: fl}, nil
}

func (l *VersionLock) Release() error {
	return l.fl.Unlock()
}
