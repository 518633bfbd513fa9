package vmdir

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/javanstorm/vmctl/internal/process"
)

// Filenames that appear under a VM directory.
const (
	ConfigFile = "config.json"
	DiskFile   = "disk.img"
	NVRAMFile  = "nvram.bin"
	PIDFile    = "vm.pid"
)

// Dir is the on-disk representation of one VM.
// A Dir is initialized iff its config file exists.
type Dir struct {
	// Name is the VM name; empty for a temporary directory.
	Name string
	Path string

	ConfigPath string
	DiskPath   string
	NVRAMPath  string
	PIDPath    string
}

func newDir(name, path string) *Dir {
	return &Dir{
		Name:       name,
		Path:       path,
		ConfigPath: filepath.Join(path, ConfigFile),
		DiskPath:   filepath.Join(path, DiskFile),
		NVRAMPath:  filepath.Join(path, NVRAMFile),
		PIDPath:    filepath.Join(path, PIDFile),
	}
}

// Initialized reports whether the config file exists.
func (d *Dir) Initialized() bool {
	_, err := os.Stat(d.ConfigPath)
	return err == nil
}

// Resize creates or truncates the disk image to size bytes.
// The file is sparse: only its logical length is set.
func (d *Dir) Resize(size int64) error {
	if size <= 0 {
		return fmt.Errorf("%w: disk size must be positive, got %d", ErrValidation, size)
	}

	f, err := os.OpenFile(d.DiskPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open disk: %w", ErrIO, err)
	}
	if err := f.Truncate(size); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: resize disk to %d bytes: %w", ErrIO, size, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close disk: %w", ErrIO, err)
	}
	return nil
}

// SaveConfig writes the config atomically.
func (d *Dir) SaveConfig(c *Config) error {
	data, err := marshalConfig(c)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(d.ConfigPath, data, 0o644); err != nil {
		return fmt.Errorf("%w: write config: %w", ErrIO, err)
	}
	return nil
}

// LoadConfig reads the config.
func (d *Dir) LoadConfig() (*Config, error) {
	data, err := os.ReadFile(d.ConfigPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: no config in %s", ErrNotFound, d.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read config: %w", ErrIO, err)
	}
	return unmarshalConfig(data)
}

// PID returns the pid recorded in the pid marker if that process is alive.
// A missing, unreadable, malformed or stale marker all mean not running.
// Every call reads the marker and checks the process again.
func (d *Dir) PID() (int, bool) {
	data, err := os.ReadFile(d.PIDPath)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false
	}
	if !process.Alive(pid) {
		return 0, false
	}
	return pid, true
}

// WritePID records pid as the supervising process.
func (d *Dir) WritePID(pid int) error {
	if err := writeFileAtomic(d.PIDPath, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return fmt.Errorf("%w: write pid: %w", ErrIO, err)
	}
	return nil
}

// RemovePID deletes the pid marker. A missing marker is not an error.
func (d *Dir) RemovePID() error {
	if err := os.Remove(d.PIDPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove pid: %w", ErrIO, err)
	}
	return nil
}

// DiskUsage returns the bytes allocated to the disk image and its logical size.
func (d *Dir) DiskUsage() (allocated, logical int64, err error) {
	var st unix.Stat_t
	if err := unix.Stat(d.DiskPath, &st); err != nil {
		if errors.Is(err, unix.ENOENT) {
			return 0, 0, fmt.Errorf("%w: no disk in %s", ErrNotFound, d.Path)
		}
		return 0, 0, fmt.Errorf("%w: stat disk: %w", ErrIO, err)
	}
	// st_blocks is always in 512-byte units.
	return int64(st.Blocks) * 512, st.Size, nil
}
