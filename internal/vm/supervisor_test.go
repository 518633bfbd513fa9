package vm

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/javanstorm/vmctl/internal/testutil"
	"github.com/javanstorm/vmctl/internal/vmdir"
	"github.com/javanstorm/vmctl/pkg/hypervisor"
)

type supervisorRun struct {
	dir    *vmdir.Dir
	cancel context.CancelFunc
	exit   chan int
	err    chan error
}

func startSupervisor(t *testing.T, s *Supervisor) *supervisorRun {
	t.Helper()
	log, _ := test.NewNullLogger()
	s.Log = log

	home := testutil.Home(t)
	dir := testutil.CreateVM(t, home, "x", testutil.LinuxConfig(), 1<<20)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	r := &supervisorRun{dir: dir, cancel: cancel, exit: make(chan int, 2), err: make(chan error, 1)}
	s.Exit = func(code int) { r.exit <- code }
	go func() { r.err <- s.Run(ctx, dir) }()
	return r
}

func (r *supervisorRun) waitRunning(t *testing.T, m *testutil.FakeMachine) {
	t.Helper()
	waitFor(t, "supervisor to start the guest", func() bool {
		_, ok := r.dir.PID()
		return ok && m.Starts() == 1
	})
}

func (r *supervisorRun) wait(t *testing.T) (int, error) {
	t.Helper()
	select {
	case err := <-r.err:
		if err != nil {
			return -1, err
		}
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not return")
	}
	select {
	case code := <-r.exit:
		return code, nil
	default:
		t.Fatal("Run returned without calling Exit")
		return -1, nil
	}
}

func TestSupervisorGracefulStop(t *testing.T) {
	d := testutil.NewFakeDriver()
	m := testutil.NewFakeMachine()
	m.StopOnRequest = true
	d.Machine = m

	r := startSupervisor(t, &Supervisor{Driver: d})
	r.waitRunning(t, m)

	pid, _ := r.dir.PID()
	if pid != os.Getpid() {
		t.Errorf("pid marker = %d, want %d", pid, os.Getpid())
	}

	r.cancel()
	code, err := r.wait(t)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if _, err := os.Stat(r.dir.PIDPath); !os.IsNotExist(err) {
		t.Error("pid marker not removed")
	}
	if len(r.exit) != 0 {
		t.Error("Exit called more than once")
	}
}

func TestSupervisorEscalation(t *testing.T) {
	tests := []struct {
		name     string
		canStop  bool
		wantCode int
	}{
		{"forced stop", true, 0},
		{"unstoppable guest", false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testutil.NewFakeDriver()
			m := testutil.NewFakeMachine()
			m.StopSupported = tt.canStop
			d.Machine = m
			clock := clockwork.NewFakeClock()

			r := startSupervisor(t, &Supervisor{Driver: d, Clock: clock})
			r.waitRunning(t, m)

			r.cancel()
			// The timer is armed on the supervisor goroutine; keep advancing
			// until it has been armed and fired.
			waitFor(t, "escalation", func() bool {
				clock.Advance(DefaultStopTimeout)
				return len(r.exit) > 0
			})
			if m.RequestStops() != 1 {
				t.Errorf("RequestStops() = %d, want 1", m.RequestStops())
			}

			code, err := r.wait(t)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
			if _, ok := r.dir.PID(); ok {
				t.Error("vm still reported running")
			}
		})
	}
}

func TestSupervisorGuestEvents(t *testing.T) {
	tests := []struct {
		name     string
		fire     func(hypervisor.Events)
		wantCode int
	}{
		{"guest shuts down", func(e hypervisor.Events) { e.GuestDidStop() }, 0},
		{"guest crashes", func(e hypervisor.Events) { e.DidStopWithError(errors.New("crash")) }, 1},
		{"network lost", func(e hypervisor.Events) { e.NetworkDisconnected(errors.New("gone")) }, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testutil.NewFakeDriver()
			m := testutil.NewFakeMachine()
			d.Machine = m

			r := startSupervisor(t, &Supervisor{Driver: d})
			r.waitRunning(t, m)

			tt.fire(m.Sink())
			code, err := r.wait(t)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
		})
	}
}

func TestSupervisorStartFailure(t *testing.T) {
	d := testutil.NewFakeDriver()
	m := testutil.NewFakeMachine()
	m.StartErr = errors.New("no entitlement")
	d.Machine = m

	r := startSupervisor(t, &Supervisor{Driver: d})

	var err error
	select {
	case err = <-r.err:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not return")
	}
	var ee *hypervisor.EngineError
	if !errors.As(err, &ee) {
		t.Errorf("Run() error = %v, want EngineError", err)
	}
	if len(r.exit) != 0 {
		t.Error("Exit called after start failure")
	}
	if _, err := os.Stat(r.dir.PIDPath); !os.IsNotExist(err) {
		t.Error("pid marker left behind")
	}
}

func TestSupervisorRefusesWhenRunning(t *testing.T) {
	log, _ := test.NewNullLogger()
	d := testutil.NewFakeDriver()
	m := testutil.NewFakeMachine()
	d.Machine = m

	dir := testutil.CreateVM(t, testutil.Home(t), "x", testutil.LinuxConfig(), 1<<20)
	if err := dir.WritePID(os.Getpid()); err != nil {
		t.Fatal(err)
	}

	s := &Supervisor{Driver: d, Log: log, Exit: func(int) { t.Error("Exit called") }}
	if err := s.Run(context.Background(), dir); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("Run() error = %v, want ErrAlreadyRunning", err)
	}
	if m.Starts() != 0 {
		t.Error("guest started although already running")
	}
	if _, ok := dir.PID(); !ok {
		t.Error("existing pid marker was removed")
	}
}

func TestSupervisorMissingVM(t *testing.T) {
	log, _ := test.NewNullLogger()
	dir, err := testutil.Home(t).Resolve("ghost")
	if err != nil {
		t.Fatal(err)
	}

	s := &Supervisor{Driver: testutil.NewFakeDriver(), Log: log, Exit: func(int) { t.Error("Exit called") }}
	if err := s.Run(context.Background(), dir); !errors.Is(err, vmdir.ErrNotFound) {
		t.Errorf("Run() error = %v, want ErrNotFound", err)
	}
}

func TestMachineConfig(t *testing.T) {
	home := testutil.Home(t)

	rosetta := true
	linux := testutil.LinuxConfig()
	linux.Rosetta = &rosetta
	linux.Sharing = map[string]string{"src": "/src"}
	ldir := testutil.CreateVM(t, home, "l", linux, 1<<20)

	mc := machineConfig(ldir, linux)
	if mc.OS != hypervisor.GuestLinux || !mc.Rosetta || mc.SharedDirs["src"] != "/src" {
		t.Errorf("linux machine config = %+v", mc)
	}
	if mc.DiskPath != ldir.DiskPath || mc.NVRAMPath != ldir.NVRAMPath {
		t.Errorf("paths = %s, %s", mc.DiskPath, mc.NVRAMPath)
	}
	if err := mc.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	model, id := "aHc=", "aWQ="
	mac := &vmdir.Config{
		OS: vmdir.MacOS, CPU: 4, Memory: 8 << 30, MACAddress: "02:00:00:00:00:02",
		Sharing: map[string]string{}, HardwareModel: &model, MachineIdentifier: &id,
	}
	mc = machineConfig(ldir, mac)
	if mc.OS != hypervisor.GuestMacOS || mc.HardwareModel != model || mc.MachineIdentifier != id || mc.Rosetta {
		t.Errorf("macOS machine config = %+v", mc)
	}
	if err := mc.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}
