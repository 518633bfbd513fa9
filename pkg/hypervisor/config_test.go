package hypervisor

import (
	"errors"
	"fmt"
	"testing"
)

func validLinux() MachineConfig {
	return MachineConfig{
		OS:          GuestLinux,
		CPUs:        1,
		MemoryBytes: 1 << 30,
		DiskPath:    "/vms/x/disk.img",
		NVRAMPath:   "/vms/x/nvram.bin",
		MACAddress:  "5a:94:ef:e4:0c:ee",
	}
}

func TestMachineConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*MachineConfig)
		want   error
	}{
		{"valid linux", func(c *MachineConfig) {}, nil},
		{"linux with rosetta", func(c *MachineConfig) { c.Rosetta = true }, nil},
		{"valid macOS", func(c *MachineConfig) {
			c.OS = GuestMacOS
			c.HardwareModel = "aGFyZHdhcmU="
			c.MachineIdentifier = "bWFjaGluZQ=="
		}, nil},
		{"zero cpus", func(c *MachineConfig) { c.CPUs = 0 }, ErrInvalidCPUCount},
		{"tiny memory", func(c *MachineConfig) { c.MemoryBytes = 1024 }, ErrInsufficientMemory},
		{"no disk", func(c *MachineConfig) { c.DiskPath = "" }, ErrMissingDisk},
		{"no nvram", func(c *MachineConfig) { c.NVRAMPath = "" }, ErrMissingNVRAM},
		{"macOS without platform data", func(c *MachineConfig) { c.OS = GuestMacOS }, ErrMissingPlatformData},
		{"macOS with rosetta", func(c *MachineConfig) {
			c.OS = GuestMacOS
			c.HardwareModel = "aGFyZHdhcmU="
			c.MachineIdentifier = "bWFjaGluZQ=="
			c.Rosetta = true
		}, ErrRosettaLinuxOnly},
		{"unknown os", func(c *MachineConfig) { c.OS = "plan9" }, ErrUnknownGuestOS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validLinux()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewEngineError(t *testing.T) {
	if err := NewEngineError("start VM", nil); err != nil {
		t.Errorf("NewEngineError(nil) = %v, want nil", err)
	}

	cause := errors.New("The virtual machine failed to start.")
	err := NewEngineError("start VM", cause)

	var ee *EngineError
	if !errors.As(err, &ee) {
		t.Fatalf("NewEngineError() = %T, want *EngineError", err)
	}
	if ee.Op != "start VM" || ee.Description != cause.Error() {
		t.Errorf("EngineError = %+v", ee)
	}
	if !errors.Is(err, cause) {
		t.Error("EngineError should unwrap to its cause")
	}

	// Already-wrapped errors are passed through.
	wrapped := fmt.Errorf("create: %w", err)
	if again := NewEngineError("other", wrapped); again != wrapped {
		t.Errorf("NewEngineError(engine error) = %v, want passthrough", again)
	}
}
