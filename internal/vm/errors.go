package vm

import "errors"

// Lifecycle errors
var (
	ErrAlreadyRunning = errors.New("vm is already running")
	ErrNotRunning     = errors.New("vm is not running")
	ErrStillRunning   = errors.New("vm did not stop")
)
