package vm

// State is a step of the stop escalation of a running guest.
type State int

const (
	StateRunning State = iota
	StateStopRequested      // Guest asked to shut down, timer armed
	StateForceStopPending   // Force stop issued, waiting for completion
	StateStoppedGracefully  // Guest shut itself down
	StateStoppedForcefully  // Force stop completed
	StateFailedToStop       // Guest could not be stopped
	StateGuestError         // Engine stopped the guest with an error
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopRequested:
		return "stop requested"
	case StateForceStopPending:
		return "force stop pending"
	case StateStoppedGracefully:
		return "stopped gracefully"
	case StateStoppedForcefully:
		return "stopped forcefully"
	case StateFailedToStop:
		return "failed to stop"
	case StateGuestError:
		return "guest error"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can leave s.
func (s State) Terminal() bool {
	switch s {
	case StateStoppedGracefully, StateStoppedForcefully, StateFailedToStop, StateGuestError:
		return true
	}
	return false
}

// Outcome is the final state of a supervised guest.
type Outcome struct {
	State State
	Err   error
}

// ExitCode maps the outcome to the supervisor's process exit code.
func (o Outcome) ExitCode() int {
	switch o.State {
	case StateStoppedGracefully, StateStoppedForcefully:
		return 0
	default:
		return 1
	}
}
