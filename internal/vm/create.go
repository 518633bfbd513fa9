package vm

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/javanstorm/vmctl/internal/timing"
	"github.com/javanstorm/vmctl/internal/vmdir"
	"github.com/javanstorm/vmctl/pkg/hypervisor"
)

// Resource floors for new guests.
const (
	LinuxCPUs   = 1
	LinuxMemory = 1 << 30

	MacOSMinCPUs   = 4
	MacOSMinMemory = 8 << 30
)

// bytesPerGB converts user-facing disk sizes. Disk sizes are decimal.
const bytesPerGB = 1_000_000_000

// MaxDiskSizeGB is the largest disk size whose byte count fits a file size.
const MaxDiskSizeGB = math.MaxInt64 / bytesPerGB

// CreateOptions describes a new VM.
type CreateOptions struct {
	Name string
	OS   vmdir.OS

	// DiskSizeGB is the logical disk size in decimal gigabytes.
	DiskSizeGB uint64

	// RestoreImage is the path of the macOS restore image (.ipsw).
	// Required for macOS guests, must be empty otherwise.
	RestoreImage string
}

// Validate checks the options without touching the VM home.
func (o CreateOptions) Validate() error {
	if err := vmdir.ValidateName(o.Name); err != nil {
		return err
	}
	if o.DiskSizeGB == 0 {
		return fmt.Errorf("%w: disk size must be at least 1 GB", vmdir.ErrValidation)
	}
	if o.DiskSizeGB > MaxDiskSizeGB {
		return fmt.Errorf("%w: disk size must be at most %d GB", vmdir.ErrValidation, uint64(MaxDiskSizeGB))
	}

	switch o.OS {
	case vmdir.Linux:
		if o.RestoreImage != "" {
			return fmt.Errorf("%w: a restore image only applies to macOS guests", vmdir.ErrValidation)
		}
	case vmdir.MacOS:
		if o.RestoreImage == "" {
			return fmt.Errorf("%w: macOS guests require a restore image", vmdir.ErrValidation)
		}
		info, err := os.Stat(o.RestoreImage)
		if err != nil {
			return fmt.Errorf("%w: restore image: %w", vmdir.ErrValidation, err)
		}
		if !info.Mode().IsRegular() {
			return fmt.Errorf("%w: restore image %s is not a file", vmdir.ErrValidation, o.RestoreImage)
		}
	default:
		return fmt.Errorf("%w: unknown os %q", vmdir.ErrValidation, o.OS)
	}
	return nil
}

// Creator builds new VM directories.
type Creator struct {
	Home   *vmdir.Home
	Driver hypervisor.Driver
	Clock  clockwork.Clock
	Log    logrus.FieldLogger
}

// Create builds the VM described by opts in a temporary directory and
// commits it under its name only once every artifact is in place. On
// failure the temporary directory is removed and no VM becomes visible.
func (c *Creator) Create(ctx context.Context, opts CreateOptions) (*vmdir.Dir, error) {
	log := c.logger().WithFields(logrus.Fields{"name": opts.Name, "os": opts.OS})

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	target, err := c.Home.Resolve(opts.Name)
	if err != nil {
		return nil, err
	}
	if target.Initialized() {
		return nil, fmt.Errorf("%w: vm %q already exists", vmdir.ErrValidation, opts.Name)
	}

	timer := timing.New(c.Clock)
	tmp, err := c.Home.CreateTemp()
	if err != nil {
		return nil, err
	}
	log = log.WithField("path", tmp.Path)
	log.Debug("Building vm in temporary directory")

	var createErr error
	defer func() {
		if createErr != nil {
			c.cleanup(log, tmp)
		}
	}()

	log.WithField("size_gb", opts.DiskSizeGB).Info("Creating disk")
	if createErr = tmp.Resize(int64(opts.DiskSizeGB) * bytesPerGB); createErr != nil {
		return nil, createErr
	}
	timer.Mark("disk")

	var cfg *vmdir.Config
	switch opts.OS {
	case vmdir.Linux:
		cfg, createErr = c.initLinux(tmp)
	case vmdir.MacOS:
		cfg, createErr = c.initMacOS(ctx, log, tmp, opts.RestoreImage)
	}
	if createErr != nil {
		return nil, createErr
	}
	timer.Mark("firmware")

	if createErr = tmp.SaveConfig(cfg); createErr != nil {
		return nil, createErr
	}
	timer.Mark("config")

	var dir *vmdir.Dir
	if dir, createErr = c.Home.Commit(tmp, opts.Name); createErr != nil {
		return nil, createErr
	}
	timer.Mark("commit")

	log.WithFields(timer.Fields()).Debug("Create timings")
	log.WithField("path", dir.Path).Info("Created vm")
	return dir, nil
}

func (c *Creator) initLinux(tmp *vmdir.Dir) (*vmdir.Config, error) {
	if err := c.Driver.CreateEFIVariableStore(tmp.NVRAMPath); err != nil {
		return nil, err
	}
	mac, err := c.Driver.NewMACAddress()
	if err != nil {
		return nil, err
	}

	rosetta := false
	return &vmdir.Config{
		OS:         vmdir.Linux,
		CPU:        LinuxCPUs,
		Memory:     LinuxMemory,
		MACAddress: mac,
		Sharing:    map[string]string{},
		Rosetta:    &rosetta,
	}, nil
}

func (c *Creator) initMacOS(ctx context.Context, log logrus.FieldLogger, tmp *vmdir.Dir, ipsw string) (*vmdir.Config, error) {
	log.WithField("ipsw", ipsw).Info("Loading restore image")
	img, err := hypervisor.Await(ctx, func(done func(*hypervisor.RestoreImage, error)) {
		c.Driver.LoadRestoreImage(ipsw, done)
	})
	if err != nil {
		return nil, err
	}
	req := img.Requirements
	if req == nil {
		return nil, fmt.Errorf("%w: restore image %s is not supported on this host", vmdir.ErrValidation, img.BuildVersion)
	}
	log.WithField("build", img.BuildVersion).Debug("Restore image loaded")

	if err := c.Driver.CreateAuxiliaryStorage(tmp.NVRAMPath, req.HardwareModel); err != nil {
		return nil, err
	}
	id, err := c.Driver.NewMachineIdentifier()
	if err != nil {
		return nil, err
	}
	mac, err := c.Driver.NewMACAddress()
	if err != nil {
		return nil, err
	}

	hardwareModel := req.HardwareModel
	return &vmdir.Config{
		OS:                vmdir.MacOS,
		CPU:               max(MacOSMinCPUs, req.MinimumCPUCount),
		Memory:            max(MacOSMinMemory, req.MinimumMemorySize),
		MACAddress:        mac,
		Sharing:           map[string]string{},
		HardwareModel:     &hardwareModel,
		MachineIdentifier: &id,
	}, nil
}

// cleanup is best-effort: it logs and never fails.
func (c *Creator) cleanup(log logrus.FieldLogger, tmp *vmdir.Dir) {
	if err := c.Home.RemoveTemp(tmp); err != nil {
		log.WithError(err).Warn("Failed to remove temporary directory")
		return
	}
	log.Debug("Removed temporary directory")
}

func (c *Creator) logger() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}
