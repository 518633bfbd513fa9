package process

import (
	"errors"
	"os"
	"os/exec"
	"testing"

	"golang.org/x/sys/unix"
)

func TestAliveSelf(t *testing.T) {
	if !Alive(os.Getpid()) {
		t.Error("Alive(self) = false, want true")
	}
}

func TestAliveInvalidPID(t *testing.T) {
	for _, pid := range []int{0, -1} {
		if Alive(pid) {
			t.Errorf("Alive(%d) = true, want false", pid)
		}
	}
}

func TestAliveInit(t *testing.T) {
	// pid 1 always exists; as non-root the check gets EPERM, which still
	// means alive.
	if !Alive(1) {
		t.Error("Alive(1) = false, want true")
	}
}

func TestAliveExitedProcess(t *testing.T) {
	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		t.Skipf("cannot run true: %v", err)
	}
	// The child has been reaped by Run, so its pid is gone.
	if Alive(cmd.Process.Pid) {
		t.Errorf("Alive(%d) = true for reaped process", cmd.Process.Pid)
	}
}

func TestSignalMissingProcess(t *testing.T) {
	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		t.Skipf("cannot run true: %v", err)
	}
	err := Signal(cmd.Process.Pid, unix.SIGINT)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Signal() error = %v, want ErrNotFound", err)
	}
	if err := Signal(0, unix.SIGINT); !errors.Is(err, ErrNotFound) {
		t.Errorf("Signal(0) error = %v, want ErrNotFound", err)
	}
}

func TestSignalLiveProcess(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start sleep: %v", err)
	}
	defer cmd.Wait()

	if err := Signal(cmd.Process.Pid, unix.SIGTERM); err != nil {
		t.Fatalf("Signal() error = %v", err)
	}
}
