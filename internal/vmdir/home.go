// Package vmdir is the on-disk state store for VMs.
//
// Each VM lives in <home>/<name>. A VM exists iff its directory holds a
// config file. New VMs are assembled under <home>/.tmp and renamed into
// place in one step, so a half-created VM is never visible.
package vmdir

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// tempDirName holds VMs under construction. Names starting with a dot are
// not valid VM names, so it never shows up as a VM.
const tempDirName = ".tmp"

// Home is the root directory holding all VMs.
type Home struct {
	root string
}

// NewHome returns a Home rooted at root. Nothing is created on disk.
func NewHome(root string) *Home {
	return &Home{root: root}
}

// Root returns the home directory path.
func (h *Home) Root() string {
	return h.root
}

// ValidateName checks that name can be used as a VM directory name.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: vm name is empty", ErrValidation)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: vm name %q must not start with '.'", ErrValidation, name)
	case strings.ContainsAny(name, "/\\:*?\"<>|\x00"):
		return fmt.Errorf("%w: vm name %q contains forbidden characters", ErrValidation, name)
	case len(name) > 255:
		return fmt.Errorf("%w: vm name is longer than 255 bytes", ErrValidation)
	}
	return nil
}

// Resolve returns the Dir for name. It does not touch the filesystem.
func (h *Home) Resolve(name string) (*Dir, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	return newDir(name, filepath.Join(h.root, name)), nil
}

// CreateTemp allocates a fresh private directory for building a VM.
func (h *Home) CreateTemp() (*Dir, error) {
	base := filepath.Join(h.root, tempDirName)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", ErrIO, base, err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("%w: generate temp dir name: %w", ErrIO, err)
	}
	path := filepath.Join(base, id.String())
	if err := os.Mkdir(path, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", ErrIO, path, err)
	}
	return newDir("", path), nil
}

// RemoveTemp deletes a directory returned by CreateTemp.
func (h *Home) RemoveTemp(tmp *Dir) error {
	base := filepath.Join(h.root, tempDirName)
	if filepath.Dir(tmp.Path) != base {
		return fmt.Errorf("%w: %s is not a temporary vm dir", ErrValidation, tmp.Path)
	}
	if err := os.RemoveAll(tmp.Path); err != nil {
		return fmt.Errorf("%w: remove %s: %w", ErrIO, tmp.Path, err)
	}
	return nil
}

// Commit renames tmp to the VM called name, making it visible.
//
// The existence check runs immediately before the rename. If another
// create wins the window in between, the rename itself fails because the
// target is no longer empty, and that is reported as ErrAlreadyExists too.
func (h *Home) Commit(tmp *Dir, name string) (*Dir, error) {
	dst, err := h.Resolve(name)
	if err != nil {
		return nil, err
	}
	if dst.Initialized() {
		return nil, fmt.Errorf("%w: vm %q", ErrAlreadyExists, name)
	}
	if err := os.Rename(tmp.Path, dst.Path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: vm %q", ErrAlreadyExists, name)
		}
		return nil, fmt.Errorf("%w: move %s to %s: %w", ErrIO, tmp.Path, dst.Path, err)
	}
	return dst, nil
}

// Check fails with ErrNotFound if the home directory does not exist.
func (h *Home) Check() error {
	info, err := os.Stat(h.root)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s does not exist", ErrNotFound, h.root)
	}
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", ErrIO, h.root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrValidation, h.root)
	}
	return nil
}

// Entries returns a Dir for every directory in the home whose name is a
// valid VM name, initialized or not.
func (h *Home) Entries() ([]*Dir, error) {
	entries, err := os.ReadDir(h.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s does not exist", ErrNotFound, h.root)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrIO, h.root, err)
	}

	dirs := make([]*Dir, 0, len(entries))
	for _, entry := range entries {
		if ValidateName(entry.Name()) != nil {
			continue
		}
		path := filepath.Join(h.root, entry.Name())
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			continue
		}
		dirs = append(dirs, newDir(entry.Name(), path))
	}
	return dirs, nil
}
