package vm

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/javanstorm/vmctl/pkg/hypervisor"
)

// DefaultStopTimeout is how long a guest gets to shut down after a stop
// request before it is force-stopped.
const DefaultStopTimeout = 15 * time.Second

// ErrCannotStop is reported when the engine refuses to force-stop the guest.
var ErrCannotStop = errors.New("guest cannot be force-stopped")

// StopController drives a running guest to a stopped state, escalating from
// a cooperative stop request to a force stop when the guest does not respond.
//
// It is the engine's event sink for the machine it controls. Signals that
// arrive after the controller has moved past the state they apply to are
// ignored. The terminal outcome is published exactly once on Done.
type StopController struct {
	clock   clockwork.Clock
	timeout time.Duration
	log     logrus.FieldLogger

	mu      sync.Mutex
	machine hypervisor.Machine
	state   State
	timer   clockwork.Timer

	done chan Outcome
}

var _ hypervisor.Events = (*StopController)(nil)

// NewStopController returns a controller in the running state.
// A zero timeout means DefaultStopTimeout.
func NewStopController(clock clockwork.Clock, timeout time.Duration, log logrus.FieldLogger) *StopController {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if timeout <= 0 {
		timeout = DefaultStopTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &StopController{
		clock:   clock,
		timeout: timeout,
		log:     log,
		state:   StateRunning,
		done:    make(chan Outcome, 1),
	}
}

// Bind attaches the machine the controller stops. It must be called before
// the machine is started.
func (c *StopController) Bind(m hypervisor.Machine) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.machine = m
}

// State returns the current state.
func (c *StopController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done delivers the terminal outcome once.
func (c *StopController) Done() <-chan Outcome {
	return c.done
}

// RequestStop begins stopping the guest. Only the first request while
// running has any effect.
func (c *StopController) RequestStop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRunning {
		c.log.WithField("state", c.state).Debug("Ignoring stop request")
		return
	}

	if !c.machine.CanRequestStop() {
		c.log.Info("Guest does not accept stop requests, forcing stop")
		c.forceStopLocked()
		return
	}

	if err := c.machine.RequestStop(); err != nil {
		c.finishLocked(StateFailedToStop, fmt.Errorf("request stop: %w", err))
		return
	}

	c.state = StateStopRequested
	c.timer = c.clock.AfterFunc(c.timeout, c.escalate)
	c.log.WithField("timeout", c.timeout).Info("Requested guest stop")
}

// escalate runs when the stop timer fires.
func (c *StopController) escalate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateStopRequested {
		return
	}
	c.log.WithField("timeout", c.timeout).Warn("Guest did not stop in time, forcing stop")
	c.forceStopLocked()
}

func (c *StopController) forceStopLocked() {
	c.state = StateForceStopPending
	if !c.machine.CanStop() {
		c.finishLocked(StateFailedToStop, ErrCannotStop)
		return
	}
	c.machine.Stop(c.forceStopDone)
}

func (c *StopController) forceStopDone(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateForceStopPending {
		return
	}
	if err != nil {
		c.finishLocked(StateFailedToStop, fmt.Errorf("force stop: %w", err))
		return
	}
	c.finishLocked(StateStoppedForcefully, nil)
}

// GuestDidStop implements hypervisor.Events.
func (c *StopController) GuestDidStop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateRunning, StateStopRequested:
		c.finishLocked(StateStoppedGracefully, nil)
	default:
		c.log.WithField("state", c.state).Debug("Ignoring late guest stop")
	}
}

// DidStopWithError implements hypervisor.Events.
func (c *StopController) DidStopWithError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateRunning, StateStopRequested:
		c.finishLocked(StateGuestError, err)
	default:
		c.log.WithError(err).WithField("state", c.state).Debug("Ignoring late guest error")
	}
}

// NetworkDisconnected implements hypervisor.Events.
func (c *StopController) NetworkDisconnected(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateRunning, StateStopRequested:
		c.finishLocked(StateGuestError, fmt.Errorf("network disconnected: %w", err))
	default:
		c.log.WithError(err).Debug("Ignoring late network disconnect")
	}
}

func (c *StopController) finishLocked(state State, err error) {
	c.state = state
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}

	entry := c.log.WithField("state", state)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Info("Guest lifecycle finished")

	select {
	case c.done <- Outcome{State: state, Err: err}:
	default:
	}
}
