package vm

import (
	"iter"

	"github.com/sirupsen/logrus"

	"github.com/javanstorm/vmctl/internal/vmdir"
)

// Status values reported by the inventory.
const (
	StatusRunning = "running"
	StatusStopped = "stopped"
)

// Entry is one VM as seen by the inventory.
type Entry struct {
	Name   string   `json:"name" yaml:"name"`
	OS     vmdir.OS `json:"os" yaml:"os"`
	CPU    uint     `json:"cpu" yaml:"cpu"`
	Memory uint64   `json:"memory" yaml:"memory"`

	// DiskAllocated is the space the sparse disk occupies on the host;
	// DiskSize is its logical size.
	DiskAllocated int64 `json:"diskAllocated" yaml:"diskAllocated"`
	DiskSize      int64 `json:"diskSize" yaml:"diskSize"`

	Status string `json:"status" yaml:"status"`
	PID    int    `json:"pid,omitempty" yaml:"pid,omitempty"`
}

// Inventory enumerates the VMs in a home.
type Inventory struct {
	Home *vmdir.Home
	Log  logrus.FieldLogger
}

// All yields every initialized VM. Each call rescans the home and checks
// liveness again. Entries whose state cannot be read are skipped.
func (inv *Inventory) All() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		log := inv.Log
		if log == nil {
			log = logrus.StandardLogger()
		}

		dirs, err := inv.Home.Entries()
		if err != nil {
			log.WithError(err).Debug("Cannot read vm home")
			return
		}

		for _, dir := range dirs {
			if !dir.Initialized() {
				continue
			}
			entry, err := describe(dir)
			if err != nil {
				log.WithError(err).WithField("name", dir.Name).Debug("Skipping vm")
				continue
			}
			if !yield(entry) {
				return
			}
		}
	}
}

func describe(dir *vmdir.Dir) (Entry, error) {
	cfg, err := dir.LoadConfig()
	if err != nil {
		return Entry{}, err
	}
	allocated, logical, err := dir.DiskUsage()
	if err != nil {
		return Entry{}, err
	}

	e := Entry{
		Name:          dir.Name,
		OS:            cfg.OS,
		CPU:           cfg.CPU,
		Memory:        cfg.Memory,
		DiskAllocated: allocated,
		DiskSize:      logical,
		Status:        StatusStopped,
	}
	if pid, ok := dir.PID(); ok {
		e.Status = StatusRunning
		e.PID = pid
	}
	return e, nil
}
