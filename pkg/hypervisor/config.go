package hypervisor

// GuestOS is the operating system family of a guest.
type GuestOS string

const (
	GuestLinux GuestOS = "linux"
	GuestMacOS GuestOS = "macOS"
)

// MachineConfig holds the parameters a Machine is built from.
type MachineConfig struct {
	OS GuestOS

	// CPUs is the number of virtual CPUs.
	CPUs uint

	// MemoryBytes is the guest memory size in bytes.
	MemoryBytes uint64

	// DiskPath is the raw disk image attached as the root block device.
	DiskPath string

	// NVRAMPath is the EFI variable store (Linux) or the auxiliary storage
	// (macOS) created at VM creation time.
	NVRAMPath string

	// MACAddress of the NAT network device.
	MACAddress string

	// SharedDirs maps virtio-fs tags to host directory paths.
	SharedDirs map[string]string

	// Rosetta exposes the Rosetta translation share to Linux guests.
	Rosetta bool

	// HardwareModel and MachineIdentifier are base64 blobs required to
	// boot a macOS guest.
	HardwareModel     string
	MachineIdentifier string
}

// Validate performs basic validation of the configuration.
func (c *MachineConfig) Validate() error {
	if c.CPUs < 1 {
		return ErrInvalidCPUCount
	}
	if c.MemoryBytes < 128*1024*1024 {
		return ErrInsufficientMemory
	}
	if c.DiskPath == "" {
		return ErrMissingDisk
	}
	if c.NVRAMPath == "" {
		return ErrMissingNVRAM
	}
	switch c.OS {
	case GuestLinux:
	case GuestMacOS:
		if c.HardwareModel == "" || c.MachineIdentifier == "" {
			return ErrMissingPlatformData
		}
		if c.Rosetta {
			return ErrRosettaLinuxOnly
		}
	default:
		return ErrUnknownGuestOS
	}
	return nil
}
