package testutil

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/javanstorm/vmctl/pkg/hypervisor"
)

// FakeDriver is an in-memory hypervisor.Driver.
// Files the engine would create are written as small placeholders.
type FakeDriver struct {
	mu sync.Mutex

	// Images maps restore image paths to the metadata LoadRestoreImage reports.
	Images map[string]*hypervisor.RestoreImage

	// RestoreImageURL is what LatestRestoreImageURL reports.
	RestoreImageURL string

	EFIErr        error
	URLErr        error
	AuxErr        error
	LoadErr       error
	NewMachineErr error

	// Machine is returned by NewMachine. A default one is made if nil.
	Machine *FakeMachine

	macs     int
	ids      int
	efi      []string
	aux      map[string]string
	machines []*hypervisor.MachineConfig
}

var _ hypervisor.Driver = (*FakeDriver)(nil)

// NewFakeDriver returns a FakeDriver with no restore images.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{
		Images:          make(map[string]*hypervisor.RestoreImage),
		RestoreImageURL: "https://updates.example.com/UniversalMac_Restore.ipsw",
		aux:    make(map[string]string),
	}
}

func (d *FakeDriver) Info() hypervisor.Info {
	return hypervisor.Info{Name: "fake", Version: "0", Arch: "test"}
}

func (d *FakeDriver) CreateEFIVariableStore(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.EFIErr != nil {
		return hypervisor.NewEngineError("create efi variable store", d.EFIErr)
	}
	if err := os.WriteFile(path, []byte("efi"), 0o644); err != nil {
		return hypervisor.NewEngineError("create efi variable store", err)
	}
	d.efi = append(d.efi, path)
	return nil
}

func (d *FakeDriver) CreateAuxiliaryStorage(path, hardwareModel string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.AuxErr != nil {
		return hypervisor.NewEngineError("create auxiliary storage", d.AuxErr)
	}
	if err := os.WriteFile(path, []byte(hardwareModel), 0o644); err != nil {
		return hypervisor.NewEngineError("create auxiliary storage", err)
	}
	d.aux[path] = hardwareModel
	return nil
}

func (d *FakeDriver) LoadRestoreImage(path string, done func(*hypervisor.RestoreImage, error)) {
	d.mu.Lock()
	img, ok := d.Images[path]
	loadErr := d.LoadErr
	d.mu.Unlock()

	go func() {
		switch {
		case loadErr != nil:
			done(nil, hypervisor.NewEngineError("load restore image", loadErr))
		case !ok:
			done(nil, hypervisor.NewEngineError("load restore image", fmt.Errorf("%s is not a restore image", path)))
		default:
			done(img, nil)
		}
	}()
}

func (d *FakeDriver) LatestRestoreImageURL() (string, error) {
	if d.URLErr != nil {
		return "", hypervisor.NewEngineError("look up restore image", d.URLErr)
	}
	return d.RestoreImageURL, nil
}

func (d *FakeDriver) FetchLatestRestoreImage(ctx context.Context, dest string, progress func(float64)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.WriteFile(dest, []byte("ipsw"), 0o644); err != nil {
		return hypervisor.NewEngineError("fetch restore image", err)
	}
	if progress != nil {
		progress(1)
	}
	return nil
}

func (d *FakeDriver) NewMACAddress() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.macs++
	return fmt.Sprintf("02:00:00:00:%02x:%02x", d.macs>>8&0xff, d.macs&0xff), nil
}

func (d *FakeDriver) NewMachineIdentifier() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids++
	return base64.StdEncoding.EncodeToString(fmt.Appendf(nil, "machine-%d", d.ids)), nil
}

func (d *FakeDriver) NewMachine(cfg *hypervisor.MachineConfig, events hypervisor.Events) (hypervisor.Machine, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.NewMachineErr != nil {
		return nil, hypervisor.NewEngineError("create machine", d.NewMachineErr)
	}
	if err := cfg.Validate(); err != nil {
		return nil, hypervisor.NewEngineError("create machine", err)
	}
	d.machines = append(d.machines, cfg)
	m := d.Machine
	if m == nil {
		m = NewFakeMachine()
	}
	m.mu.Lock()
	m.Events = events
	m.mu.Unlock()
	return m, nil
}

// EFIStores returns the paths CreateEFIVariableStore was called with.
func (d *FakeDriver) EFIStores() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.efi...)
}

// AuxiliaryStorage returns the hardware model the auxiliary storage at path
// was seeded with.
func (d *FakeDriver) AuxiliaryStorage(path string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	model, ok := d.aux[path]
	return model, ok
}

// MachineConfigs returns the configs NewMachine accepted.
func (d *FakeDriver) MachineConfigs() []*hypervisor.MachineConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*hypervisor.MachineConfig(nil), d.machines...)
}

// FakeMachine is a scriptable hypervisor.Machine.
// Completion callbacks run on their own goroutine, as the engine's do.
type FakeMachine struct {
	mu sync.Mutex

	// Events is set by FakeDriver.NewMachine.
	Events hypervisor.Events

	StartErr error

	// Cooperative stop support and result.
	RequestStopSupported bool
	RequestStopErr       error

	// Force stop support and result.
	StopSupported bool
	StopErr       error

	// ManualStop holds Stop completions until CompleteStop is called.
	ManualStop bool

	// StopOnRequest makes a successful RequestStop deliver GuestDidStop,
	// like a guest that shuts down promptly.
	StopOnRequest bool

	starts       int
	requestStops int
	stops        int
	pendingStop  func(error)
}

var _ hypervisor.Machine = (*FakeMachine)(nil)

// NewFakeMachine returns a machine that supports both stop kinds.
func NewFakeMachine() *FakeMachine {
	return &FakeMachine{
		RequestStopSupported: true,
		StopSupported:        true,
	}
}

func (m *FakeMachine) Start(done func(error)) {
	m.mu.Lock()
	m.starts++
	err := m.StartErr
	m.mu.Unlock()
	if err != nil {
		err = hypervisor.NewEngineError("start", err)
	}
	go done(err)
}

func (m *FakeMachine) CanRequestStop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RequestStopSupported
}

func (m *FakeMachine) RequestStop() error {
	m.mu.Lock()
	m.requestStops++
	err := m.RequestStopErr
	events := m.Events
	auto := m.StopOnRequest
	m.mu.Unlock()

	if err != nil {
		return hypervisor.NewEngineError("request stop", err)
	}
	if auto && events != nil {
		go events.GuestDidStop()
	}
	return nil
}

func (m *FakeMachine) CanStop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.StopSupported
}

func (m *FakeMachine) Stop(done func(error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	if m.ManualStop {
		m.pendingStop = done
		return
	}
	err := m.StopErr
	if err != nil {
		err = hypervisor.NewEngineError("stop", err)
	}
	go done(err)
}

// CompleteStop delivers the result of a held Stop call.
func (m *FakeMachine) CompleteStop(err error) error {
	m.mu.Lock()
	done := m.pendingStop
	m.pendingStop = nil
	m.mu.Unlock()
	if done == nil {
		return errors.New("no stop in progress")
	}
	if err != nil {
		err = hypervisor.NewEngineError("stop", err)
	}
	done(err)
	return nil
}

// Sink returns the events sink the machine reports to.
func (m *FakeMachine) Sink() hypervisor.Events {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Events
}

// Starts returns how many times Start was called.
func (m *FakeMachine) Starts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts
}

// RequestStops returns how many times RequestStop was called.
func (m *FakeMachine) RequestStops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestStops
}

// Stops returns how many times Stop was called.
func (m *FakeMachine) Stops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}
