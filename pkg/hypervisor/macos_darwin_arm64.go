//go:build darwin && arm64

package hypervisor

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/Code-Hex/vz/v3"
)

func (d *vzDriver) CreateAuxiliaryStorage(path, hardwareModel string) error {
	return d.exec.Do(func() error {
		model, err := decodeHardwareModel(hardwareModel)
		if err != nil {
			return err
		}
		if _, err := vz.NewMacAuxiliaryStorage(path, vz.WithCreatingMacAuxiliaryStorage(model)); err != nil {
			return NewEngineError("create auxiliary storage", err)
		}
		return nil
	})
}

func (d *vzDriver) LoadRestoreImage(path string, done func(*RestoreImage, error)) {
	ok := d.exec.Go(func() {
		image, err := vz.LoadMacOSRestoreImageFromPath(path)
		if err != nil {
			go done(nil, NewEngineError("load restore image", err))
			return
		}

		// Never nil: an image the host cannot run yields an unsupported model.
		req := image.MostFeaturefulSupportedConfiguration()
		model := req.HardwareModel()
		go done(&RestoreImage{
			BuildVersion: image.BuildVersion(),
			Requirements: requirementsFor(
				model.Supported(),
				model.DataRepresentation(),
				req.MinimumSupportedCPUCount(),
				req.MinimumSupportedMemorySize(),
			),
		}, nil)
	})
	if !ok {
		go done(nil, ErrExecutorClosed)
	}
}

func (d *vzDriver) LatestRestoreImageURL() (string, error) {
	url, err := vz.GetLatestSupportedMacOSRestoreImageURL()
	if err != nil {
		return "", NewEngineError("look up restore image", err)
	}
	return url, nil
}

func (d *vzDriver) FetchLatestRestoreImage(ctx context.Context, dest string, progress func(float64)) error {
	reader, err := vz.FetchLatestSupportedMacOSRestoreImage(ctx, dest)
	if err != nil {
		return NewEngineError("fetch restore image", err)
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-reader.Finished():
			return NewEngineError("fetch restore image", reader.Err())
		case <-ticker.C:
			if progress != nil {
				progress(reader.FractionCompleted())
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (d *vzDriver) NewMachineIdentifier() (string, error) {
	var id string
	err := d.exec.Do(func() error {
		machineID, err := vz.NewMacMachineIdentifier()
		if err != nil {
			return NewEngineError("create machine identifier", err)
		}
		id = base64.StdEncoding.EncodeToString(machineID.DataRepresentation())
		return nil
	})
	return id, err
}

func macOSBoot(cfg *MachineConfig) (vz.BootLoader, vz.PlatformConfiguration, error) {
	model, err := decodeHardwareModel(cfg.HardwareModel)
	if err != nil {
		return nil, nil, err
	}

	idData, err := base64.StdEncoding.DecodeString(cfg.MachineIdentifier)
	if err != nil {
		return nil, nil, fmt.Errorf("hypervisor: decode machine identifier: %w", err)
	}
	machineID, err := vz.NewMacMachineIdentifierWithData(idData)
	if err != nil {
		return nil, nil, NewEngineError("load machine identifier", err)
	}

	aux, err := vz.NewMacAuxiliaryStorage(cfg.NVRAMPath)
	if err != nil {
		return nil, nil, NewEngineError("open auxiliary storage", err)
	}

	platform, err := vz.NewMacPlatformConfiguration(
		vz.WithMacAuxiliaryStorage(aux),
		vz.WithMacHardwareModel(model),
		vz.WithMacMachineIdentifier(machineID),
	)
	if err != nil {
		return nil, nil, NewEngineError("create platform config", err)
	}

	bootLoader, err := vz.NewMacOSBootLoader()
	if err != nil {
		return nil, nil, NewEngineError("create boot loader", err)
	}
	return bootLoader, platform, nil
}

func rosettaShare() (vz.DirectorySharingDeviceConfiguration, error) {
	share, err := vz.NewLinuxRosettaDirectoryShare()
	if err != nil {
		return nil, NewEngineError("create rosetta share", err)
	}
	fsConfig, err := vz.NewVirtioFileSystemDeviceConfiguration("rosetta")
	if err != nil {
		return nil, NewEngineError("create rosetta fs config", err)
	}
	fsConfig.SetDirectoryShare(share)
	return fsConfig, nil
}

func decodeHardwareModel(encoded string) (*vz.MacHardwareModel, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("hypervisor: decode hardware model: %w", err)
	}
	model, err := vz.NewMacHardwareModelWithData(data)
	if err != nil {
		return nil, NewEngineError("load hardware model", err)
	}
	return model, nil
}
