package output

import (
	"encoding/json"
	"fmt"

	"github.com/javanstorm/vmctl/internal/vm"
)

// JSONFormatter formats entries as a JSON array.
type JSONFormatter struct{}

func (f *JSONFormatter) FormatEntries(entries []vm.Entry) (string, error) {
	if len(entries) == 0 {
		return "[]\n", nil
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal VMs to JSON: %w", err)
	}
	return string(data) + "\n", nil
}
