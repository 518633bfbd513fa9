package vmdir

import (
	"encoding/json"
	"fmt"
	"strings"
)

// OS is the guest operating system kind.
type OS string

const (
	Linux OS = "linux"
	MacOS OS = "macOS"
)

// ParseOS parses an OS name case-insensitively ("linux", "macos", "macOS").
func ParseOS(s string) (OS, error) {
	switch {
	case strings.EqualFold(s, string(Linux)):
		return Linux, nil
	case strings.EqualFold(s, string(MacOS)):
		return MacOS, nil
	default:
		return "", fmt.Errorf("%w: unknown os %q (supported: linux, macOS)", ErrValidation, s)
	}
}

// Config is the persisted configuration of a VM.
type Config struct {
	OS         OS                `json:"os"`
	CPU        uint              `json:"cpu"`
	Memory     uint64            `json:"memory"`
	MACAddress string            `json:"macAddress"`
	Sharing    map[string]string `json:"sharing"`

	// Linux guests only.
	Rosetta *bool `json:"rosetta,omitempty"`

	// macOS guests only.
	HardwareModel     *string `json:"hardwareModel,omitempty"`
	MachineIdentifier *string `json:"machineIdentifier,omitempty"`
}

// Validate checks that exactly the field group matching OS is populated.
func (c *Config) Validate() error {
	linux := c.Rosetta != nil
	mac := c.HardwareModel != nil || c.MachineIdentifier != nil

	switch c.OS {
	case Linux:
		if !linux || mac {
			return fmt.Errorf("%w: linux config must set rosetta and no macOS fields", ErrSerialization)
		}
	case MacOS:
		if linux || c.HardwareModel == nil || c.MachineIdentifier == nil {
			return fmt.Errorf("%w: macOS config must set hardwareModel and machineIdentifier and no rosetta", ErrSerialization)
		}
	default:
		return fmt.Errorf("%w: unknown os %q", ErrSerialization, c.OS)
	}
	if c.CPU == 0 || c.Memory == 0 {
		return fmt.Errorf("%w: cpu and memory must be positive", ErrSerialization)
	}
	return nil
}

func marshalConfig(c *Config) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: marshal config: %w", ErrSerialization, err)
	}
	return data, nil
}

func unmarshalConfig(data []byte) (*Config, error) {
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: parse config: %w", ErrSerialization, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
