//go:build darwin

package hypervisor

import (
	"errors"
	"fmt"
	"net"
	"runtime"

	"github.com/Code-Hex/vz/v3"
)

// vzDriver implements Driver using macOS Virtualization.framework.
// All framework calls go through exec.
type vzDriver struct {
	exec *Executor
}

// NewDriver creates a new vz-based driver for macOS.
func NewDriver() (Driver, error) {
	return &vzDriver{exec: NewExecutor()}, nil
}

func (d *vzDriver) Info() Info {
	return Info{
		Name:    "vz",
		Version: "3",
		Arch:    runtime.GOARCH,
	}
}

func (d *vzDriver) CreateEFIVariableStore(path string) error {
	return d.exec.Do(func() error {
		if _, err := vz.NewEFIVariableStore(path, vz.WithCreatingEFIVariableStore()); err != nil {
			return NewEngineError("create EFI variable store", err)
		}
		return nil
	})
}

func (d *vzDriver) NewMACAddress() (string, error) {
	var mac string
	err := d.exec.Do(func() error {
		addr, err := vz.NewRandomLocallyAdministeredMACAddress()
		if err != nil {
			return NewEngineError("generate MAC address", err)
		}
		mac = addr.String()
		return nil
	})
	return mac, err
}

func (d *vzDriver) NewMachine(cfg *MachineConfig, events Events) (Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &vzMachine{exec: d.exec, events: events}
	err := d.exec.Do(func() error {
		vmCfg, err := configuration(cfg)
		if err != nil {
			return err
		}
		vm, err := vz.NewVirtualMachine(vmCfg)
		if err != nil {
			return NewEngineError("create VM", err)
		}
		m.vm = vm
		return nil
	})
	if err != nil {
		return nil, err
	}

	go m.watch()
	return m, nil
}

func configuration(cfg *MachineConfig) (*vz.VirtualMachineConfiguration, error) {
	var (
		bootLoader vz.BootLoader
		platform   vz.PlatformConfiguration
		err        error
	)
	switch cfg.OS {
	case GuestMacOS:
		bootLoader, platform, err = macOSBoot(cfg)
	default:
		bootLoader, platform, err = linuxBoot(cfg)
	}
	if err != nil {
		return nil, err
	}

	vmCfg, err := vz.NewVirtualMachineConfiguration(bootLoader, cfg.CPUs, cfg.MemoryBytes)
	if err != nil {
		return nil, NewEngineError("create VM config", err)
	}
	vmCfg.SetPlatformVirtualMachineConfiguration(platform)

	diskAttachment, err := vz.NewDiskImageStorageDeviceAttachment(cfg.DiskPath, false)
	if err != nil {
		return nil, NewEngineError("create disk attachment", err)
	}
	blockDevice, err := vz.NewVirtioBlockDeviceConfiguration(diskAttachment)
	if err != nil {
		return nil, NewEngineError("create block device", err)
	}
	vmCfg.SetStorageDevicesVirtualMachineConfiguration([]vz.StorageDeviceConfiguration{blockDevice})

	netCfg, err := networkDevice(cfg.MACAddress)
	if err != nil {
		return nil, err
	}
	vmCfg.SetNetworkDevicesVirtualMachineConfiguration([]*vz.VirtioNetworkDeviceConfiguration{netCfg})

	entropy, err := vz.NewVirtioEntropyDeviceConfiguration()
	if err != nil {
		return nil, NewEngineError("create entropy device", err)
	}
	vmCfg.SetEntropyDevicesVirtualMachineConfiguration([]*vz.VirtioEntropyDeviceConfiguration{entropy})

	shares, err := sharedDirectories(cfg)
	if err != nil {
		return nil, err
	}
	if len(shares) > 0 {
		vmCfg.SetDirectorySharingDevicesVirtualMachineConfiguration(shares)
	}

	ok, err := vmCfg.Validate()
	if err != nil {
		return nil, NewEngineError("validate VM config", err)
	}
	if !ok {
		return nil, NewEngineError("validate VM config", errors.New("configuration rejected"))
	}
	return vmCfg, nil
}

func linuxBoot(cfg *MachineConfig) (vz.BootLoader, vz.PlatformConfiguration, error) {
	store, err := vz.NewEFIVariableStore(cfg.NVRAMPath)
	if err != nil {
		return nil, nil, NewEngineError("open EFI variable store", err)
	}
	bootLoader, err := vz.NewEFIBootLoader(vz.WithEFIVariableStore(store))
	if err != nil {
		return nil, nil, NewEngineError("create boot loader", err)
	}
	platform, err := vz.NewGenericPlatformConfiguration()
	if err != nil {
		return nil, nil, NewEngineError("create platform config", err)
	}
	return bootLoader, platform, nil
}

func networkDevice(mac string) (*vz.VirtioNetworkDeviceConfiguration, error) {
	natAttachment, err := vz.NewNATNetworkDeviceAttachment()
	if err != nil {
		return nil, NewEngineError("create NAT attachment", err)
	}
	netCfg, err := vz.NewVirtioNetworkDeviceConfiguration(natAttachment)
	if err != nil {
		return nil, NewEngineError("create network config", err)
	}
	hwAddr, err := net.ParseMAC(mac)
	if err != nil {
		return nil, fmt.Errorf("hypervisor: parse MAC address %q: %w", mac, err)
	}
	macAddr, err := vz.NewMACAddress(hwAddr)
	if err != nil {
		return nil, NewEngineError("create MAC address", err)
	}
	netCfg.SetMACAddress(macAddr)
	return netCfg, nil
}

func sharedDirectories(cfg *MachineConfig) ([]vz.DirectorySharingDeviceConfiguration, error) {
	var devices []vz.DirectorySharingDeviceConfiguration

	for tag, hostPath := range cfg.SharedDirs {
		sharedDir, err := vz.NewSharedDirectory(hostPath, false)
		if err != nil {
			return nil, NewEngineError("create shared dir "+tag, err)
		}
		dirShare, err := vz.NewSingleDirectoryShare(sharedDir)
		if err != nil {
			return nil, NewEngineError("create dir share "+tag, err)
		}
		fsConfig, err := vz.NewVirtioFileSystemDeviceConfiguration(tag)
		if err != nil {
			return nil, NewEngineError("create fs config "+tag, err)
		}
		fsConfig.SetDirectoryShare(dirShare)
		devices = append(devices, fsConfig)
	}

	if cfg.Rosetta {
		fsConfig, err := rosettaShare()
		if err != nil {
			return nil, err
		}
		devices = append(devices, fsConfig)
	}
	return devices, nil
}

// vzMachine implements Machine on top of a vz.VirtualMachine.
type vzMachine struct {
	exec   *Executor
	vm     *vz.VirtualMachine
	events Events
}

// watch turns state changes into Events until the machine reaches a
// terminal state.
func (m *vzMachine) watch() {
	for state := range m.vm.StateChangedNotify() {
		switch state {
		case vz.VirtualMachineStateStopped:
			m.events.GuestDidStop()
			return
		case vz.VirtualMachineStateError:
			m.events.DidStopWithError(ErrGuestError)
			return
		}
	}
}

func (m *vzMachine) Start(done func(error)) {
	ok := m.exec.Go(func() {
		err := m.vm.Start()
		go done(NewEngineError("start VM", err))
	})
	if !ok {
		go done(ErrExecutorClosed)
	}
}

func (m *vzMachine) CanRequestStop() bool {
	return m.exec.Query("can request stop", m.vm.CanRequestStop)
}

func (m *vzMachine) RequestStop() error {
	return m.exec.Do(func() error {
		ok, err := m.vm.RequestStop()
		if err != nil {
			return NewEngineError("request stop", err)
		}
		if !ok {
			return NewEngineError("request stop", errors.New("request was not delivered"))
		}
		return nil
	})
}

func (m *vzMachine) CanStop() bool {
	return m.exec.Query("can stop", m.vm.CanStop)
}

func (m *vzMachine) Stop(done func(error)) {
	ok := m.exec.Go(func() {
		err := m.vm.Stop()
		go done(NewEngineError("force stop", err))
	})
	if !ok {
		go done(ErrExecutorClosed)
	}
}
