// Package testutil provides common test helpers for vmctl tests.
package testutil

import (
	"testing"

	"github.com/javanstorm/vmctl/internal/vmdir"
)

// Home returns a vmdir.Home rooted in a fresh temporary directory.
func Home(t *testing.T) *vmdir.Home {
	t.Helper()
	return vmdir.NewHome(t.TempDir())
}

// LinuxConfig returns a valid Linux VM config.
func LinuxConfig() *vmdir.Config {
	rosetta := false
	return &vmdir.Config{
		OS:         vmdir.Linux,
		CPU:        1,
		Memory:     1 << 30,
		MACAddress: "5a:94:ef:e4:0c:ee",
		Sharing:    map[string]string{},
		Rosetta:    &rosetta,
	}
}

// CreateVM commits a VM called name with cfg and a sparse disk of diskBytes,
// going through the same temp-then-rename path as a real create.
func CreateVM(t *testing.T, home *vmdir.Home, name string, cfg *vmdir.Config, diskBytes int64) *vmdir.Dir {
	t.Helper()

	tmp, err := home.CreateTemp()
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	if err := tmp.Resize(diskBytes); err != nil {
		t.Fatalf("failed to create test disk: %v", err)
	}
	if err := tmp.SaveConfig(cfg); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}
	dir, err := home.Commit(tmp, name)
	if err != nil {
		t.Fatalf("failed to commit vm %q: %v", name, err)
	}
	return dir
}
