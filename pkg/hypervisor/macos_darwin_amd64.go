//go:build darwin && !arm64

package hypervisor

import (
	"context"

	"github.com/Code-Hex/vz/v3"
)

func (d *vzDriver) CreateAuxiliaryStorage(path, hardwareModel string) error {
	return ErrMacOSGuestUnsupported
}

func (d *vzDriver) LoadRestoreImage(path string, done func(*RestoreImage, error)) {
	go done(nil, ErrMacOSGuestUnsupported)
}

func (d *vzDriver) LatestRestoreImageURL() (string, error) {
	return "", ErrMacOSGuestUnsupported
}

func (d *vzDriver) FetchLatestRestoreImage(ctx context.Context, dest string, progress func(float64)) error {
	return ErrMacOSGuestUnsupported
}

func (d *vzDriver) NewMachineIdentifier() (string, error) {
	return "", ErrMacOSGuestUnsupported
}

func macOSBoot(cfg *MachineConfig) (vz.BootLoader, vz.PlatformConfiguration, error) {
	return nil, nil, ErrMacOSGuestUnsupported
}

func rosettaShare() (vz.DirectorySharingDeviceConfiguration, error) {
	return nil, ErrMacOSGuestUnsupported
}
