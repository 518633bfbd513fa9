package hypervisor

import (
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
)

// Executor runs submitted functions one at a time on a single goroutine
// locked to its OS thread. Engine handles are only touched from there.
//
// Do must not be called from a function already running on the executor.
type Executor struct {
	work      chan func()
	done      chan struct{}
	closeOnce sync.Once
}

// NewExecutor starts an executor.
func NewExecutor() *Executor {
	e := &Executor{
		work: make(chan func()),
		done: make(chan struct{}),
	}
	started := make(chan struct{})
	go e.loop(started)
	<-started
	return e
}

func (e *Executor) loop(started chan<- struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	close(started)

	for {
		select {
		case fn := <-e.work:
			fn()
		case <-e.done:
			return
		}
	}
}

// Do runs fn on the executor and waits for its result.
func (e *Executor) Do(fn func() error) error {
	errCh := make(chan error, 1)
	if !e.Go(func() { errCh <- fn() }) {
		return ErrExecutorClosed
	}
	return <-errCh
}

// Query reads a boolean engine state on the executor. If the
// executor is closed the failure is logged at debug and Query reports false.
func (e *Executor) Query(what string, fn func() bool) bool {
	var result bool
	if err := e.Do(func() error {
		result = fn()
		return nil
	}); err != nil {
		logrus.WithError(err).WithField("query", what).Debug("Engine query failed")
		return false
	}
	return result
}

// Go schedules fn on the executor without waiting for it to run.
// It returns false if the executor is closed.
func (e *Executor) Go(fn func()) bool {
	select {
	case <-e.done:
		return false
	default:
	}

	select {
	case e.work <- fn:
		return true
	case <-e.done:
		return false
	}
}

// Close stops the executor. Safe to call multiple times.
func (e *Executor) Close() {
	e.closeOnce.Do(func() { close(e.done) })
}
