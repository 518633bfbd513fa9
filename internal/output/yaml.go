package output

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/javanstorm/vmctl/internal/vm"
)

// YAMLFormatter formats entries as a YAML sequence.
type YAMLFormatter struct{}

func (f *YAMLFormatter) FormatEntries(entries []vm.Entry) (string, error) {
	if len(entries) == 0 {
		return "[]\n", nil
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("failed to marshal VMs to YAML: %w", err)
	}
	return string(data), nil
}
