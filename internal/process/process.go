// Package process checks and signals processes vmctl did not start itself.
package process

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// ErrNotFound is returned when the target process does not exist.
var ErrNotFound = errors.New("process not found")

// Alive reports whether pid refers to a live process.
//
// A null signal is delivered to the process: ESRCH means it is gone, EPERM
// means it exists but belongs to someone else, which still counts as alive.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// Signal delivers sig to pid.
func Signal(pid int, sig unix.Signal) error {
	if pid <= 0 {
		return fmt.Errorf("signal pid %d: %w", pid, ErrNotFound)
	}
	if err := unix.Kill(pid, sig); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return fmt.Errorf("signal pid %d: %w", pid, ErrNotFound)
		}
		return fmt.Errorf("signal pid %d: %w", pid, err)
	}
	return nil
}
