package vm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/javanstorm/vmctl/internal/process"
	"github.com/javanstorm/vmctl/internal/vmdir"
)

// Defaults for StopRequester polling.
const (
	DefaultStopPollAttempts = 20
	DefaultStopPollInterval = time.Second
)

// StopRequester asks the supervisor of a running VM to stop its guest and
// waits for the supervisor to exit.
type StopRequester struct {
	Clock    clockwork.Clock
	Attempts int
	Interval time.Duration
	Log      logrus.FieldLogger
}

// Stop sends SIGINT to the supervisor recorded in dir and polls the pid
// marker until the supervisor is gone. It fails with ErrNotRunning if no
// live supervisor is recorded and with ErrStillRunning if it outlives the
// polling window.
func (r *StopRequester) Stop(ctx context.Context, dir *vmdir.Dir) error {
	log := r.logger().WithField("name", dir.Name)

	pid, ok := dir.PID()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRunning, dir.Name)
	}
	log = log.WithField("pid", pid)

	if err := process.Signal(pid, unix.SIGINT); err != nil {
		if errors.Is(err, process.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotRunning, dir.Name)
		}
		return fmt.Errorf("signal supervisor: %w", err)
	}
	log.Debug("Sent stop signal")

	clock := r.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	attempts := r.Attempts
	if attempts <= 0 {
		attempts = DefaultStopPollAttempts
	}
	interval := r.Interval
	if interval <= 0 {
		interval = DefaultStopPollInterval
	}

	for i := 0; i < attempts; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clock.After(interval):
		}
		if _, ok := dir.PID(); !ok {
			log.Info("VM stopped")
			return nil
		}
		log.WithField("attempt", i+1).Debug("Waiting for vm to stop")
	}
	return fmt.Errorf("%w: %s still running after %s", ErrStillRunning, dir.Name, time.Duration(attempts)*interval)
}

func (r *StopRequester) logger() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.StandardLogger()
	}
	return r.Log
}
