// Package hypervisor is the boundary to the virtualization engine
// (macOS Virtualization.framework via Code-Hex/vz).
// Nothing outside this package touches engine handles directly.
package hypervisor

import "context"

// Driver is the engine capability set vmctl consumes.
// Platform-specific implementations satisfy this interface.
type Driver interface {
	Info() Info

	// CreateEFIVariableStore creates an empty EFI variable store at path.
	// Used once when a Linux guest is created.
	CreateEFIVariableStore(path string) error

	// CreateAuxiliaryStorage creates macOS auxiliary storage at path seeded
	// with the base64 hardware model of the guest build.
	CreateAuxiliaryStorage(path, hardwareModel string) error

	// LoadRestoreImage loads the metadata of a macOS restore image.
	// done is called exactly once, never on the caller's goroutine.
	LoadRestoreImage(path string, done func(*RestoreImage, error))

	// LatestRestoreImageURL returns the download URL of the latest restore
	// image supported by the host.
	LatestRestoreImageURL() (string, error)

	// FetchLatestRestoreImage downloads the latest restore image supported
	// by the host into dest. progress receives the completed fraction.
	FetchLatestRestoreImage(ctx context.Context, dest string, progress func(float64)) error

	// NewMACAddress returns a random locally-administered MAC address.
	NewMACAddress() (string, error)

	// NewMachineIdentifier returns a fresh base64 macOS machine identifier.
	NewMachineIdentifier() (string, error)

	// NewMachine builds a guest from cfg. events receives the engine's
	// notifications for the lifetime of the machine.
	NewMachine(cfg *MachineConfig, events Events) (Machine, error)
}

// Machine is a handle to one configured guest.
// Completion callbacks are delivered on engine goroutines.
type Machine interface {
	// Start boots the guest and reports the result through done.
	Start(done func(error))

	// CanRequestStop reports whether the guest supports a cooperative stop.
	CanRequestStop() bool

	// RequestStop asks the guest OS to shut down.
	RequestStop() error

	// CanStop reports whether the guest is in a state that can be force-stopped.
	CanStop() bool

	// Stop halts guest execution and reports the result through done.
	Stop(done func(error))
}

// Events is the callback sink the engine notifies about guest lifecycle.
type Events interface {
	// GuestDidStop is called when the guest has stopped the machine.
	GuestDidStop()

	// DidStopWithError is called when the machine stopped because of an error.
	DidStopWithError(err error)

	// NetworkDisconnected is called by engines that report the loss of a
	// network attachment.
	NetworkDisconnected(err error)
}

// RestoreImage is the metadata of a macOS restore image.
type RestoreImage struct {
	BuildVersion string

	// Requirements is nil when the host supports no configuration of the image.
	Requirements *Requirements
}

// Requirements is the most featureful configuration of a restore image the
// host supports.
type Requirements struct {
	HardwareModel     string // base64
	MinimumCPUCount   uint
	MinimumMemorySize uint64
}

// Info contains driver metadata.
type Info struct {
	Name    string
	Version string
	Arch    string
}
