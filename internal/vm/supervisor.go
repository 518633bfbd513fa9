package vm

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/javanstorm/vmctl/internal/vmdir"
	"github.com/javanstorm/vmctl/pkg/hypervisor"
)

// Supervisor runs one guest in the current process until it stops.
//
// While it runs, the VM's pid marker holds the supervisor's pid, which is
// what other vmctl invocations use to tell the VM is running and to ask it
// to stop.
type Supervisor struct {
	Driver      hypervisor.Driver
	Clock       clockwork.Clock
	StopTimeout time.Duration
	Log         logrus.FieldLogger

	// Exit is called once with the final exit code after the guest has
	// stopped and the pid marker is gone. Defaults to os.Exit.
	Exit func(code int)
}

// Run boots the VM in dir and blocks until it reaches a terminal state.
// Cancelling ctx requests a stop; the stop escalates if the guest ignores it.
//
// Errors before the guest is running are returned and Exit is not called.
func (s *Supervisor) Run(ctx context.Context, dir *vmdir.Dir) error {
	log := s.logger().WithField("name", dir.Name)

	cfg, err := dir.LoadConfig()
	if err != nil {
		return err
	}
	if pid, ok := dir.PID(); ok {
		return fmt.Errorf("%w: %s (pid %d)", ErrAlreadyRunning, dir.Name, pid)
	}

	ctrl := NewStopController(s.Clock, s.StopTimeout, log)
	m, err := s.Driver.NewMachine(machineConfig(dir, cfg), ctrl)
	if err != nil {
		return err
	}
	ctrl.Bind(m)

	if err := dir.WritePID(os.Getpid()); err != nil {
		return err
	}
	log = log.WithField("pid", os.Getpid())

	outcome, err := s.supervise(ctx, log, m, ctrl)
	if rmErr := dir.RemovePID(); rmErr != nil {
		log.WithError(rmErr).Warn("Failed to remove pid file")
	}
	if err != nil {
		return err
	}

	log.WithField("exit_code", outcome.ExitCode()).Debug("Supervisor exiting")
	s.exit(outcome.ExitCode())
	return nil
}

func (s *Supervisor) supervise(ctx context.Context, log logrus.FieldLogger, m hypervisor.Machine, ctrl *StopController) (Outcome, error) {
	log.Info("Starting vm")
	// The start result is awaited even if a stop signal arrives meanwhile.
	if err := hypervisor.AwaitErr(context.WithoutCancel(ctx), m.Start); err != nil {
		return Outcome{}, fmt.Errorf("start vm: %w", err)
	}
	log.Info("VM started")

	select {
	case o := <-ctrl.Done():
		return o, nil
	case <-ctx.Done():
		log.Info("Stop requested")
		ctrl.RequestStop()
	}
	return <-ctrl.Done(), nil
}

func (s *Supervisor) exit(code int) {
	if s.Exit != nil {
		s.Exit(code)
		return
	}
	os.Exit(code)
}

func (s *Supervisor) logger() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

// machineConfig maps a stored VM config onto the engine's machine parameters.
func machineConfig(dir *vmdir.Dir, cfg *vmdir.Config) *hypervisor.MachineConfig {
	mc := &hypervisor.MachineConfig{
		OS:          hypervisor.GuestOS(cfg.OS),
		CPUs:        cfg.CPU,
		MemoryBytes: cfg.Memory,
		DiskPath:    dir.DiskPath,
		NVRAMPath:   dir.NVRAMPath,
		MACAddress:  cfg.MACAddress,
		SharedDirs:  cfg.Sharing,
	}
	if cfg.Rosetta != nil {
		mc.Rosetta = *cfg.Rosetta
	}
	if cfg.HardwareModel != nil {
		mc.HardwareModel = *cfg.HardwareModel
	}
	if cfg.MachineIdentifier != nil {
		mc.MachineIdentifier = *cfg.MachineIdentifier
	}
	return mc
}
