package hypervisor

import (
	"errors"
	"fmt"
)

// Configuration errors
var (
	ErrInvalidCPUCount     = errors.New("hypervisor: CPU count must be at least 1")
	ErrInsufficientMemory  = errors.New("hypervisor: memory must be at least 128MB")
	ErrMissingDisk         = errors.New("hypervisor: disk path is required")
	ErrMissingNVRAM        = errors.New("hypervisor: NVRAM path is required")
	ErrMissingPlatformData = errors.New("hypervisor: macOS guests require a hardware model and machine identifier")
	ErrRosettaLinuxOnly    = errors.New("hypervisor: rosetta is only available to Linux guests")
	ErrUnknownGuestOS      = errors.New("hypervisor: unknown guest OS")
)

// Runtime errors
var (
	ErrExecutorClosed = errors.New("hypervisor: executor closed")
	ErrGuestError     = errors.New("hypervisor: guest stopped with an error")
)

// Platform errors
var (
	ErrUnsupportedPlatform   = errors.New("hypervisor: platform not supported")
	ErrMacOSGuestUnsupported = errors.New("hypervisor: macOS guests require Apple silicon")
)

// EngineError is a failure reported by the virtualization engine.
type EngineError struct {
	Op          string
	Description string
	Err         error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("hypervisor: %s: %s", e.Op, e.Description)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewEngineError wraps err as an EngineError for op. It returns nil if err is nil.
func NewEngineError(op string, err error) error {
	if err == nil {
		return nil
	}
	var ee *EngineError
	if errors.As(err, &ee) {
		return err
	}
	return &EngineError{Op: op, Description: err.Error(), Err: err}
}
