package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/javanstorm/vmctl/internal/vm"
)

const (
	gib = 1 << 30
	gb  = 1_000_000_000
)

// TableFormatter formats entries as a human-readable table.
type TableFormatter struct {
	NoHeaders bool
}

// FormatEntries writes one row per VM: name, os, cpu, memory, disk, status.
// Memory is in GiB; disk is allocated/logical in decimal GB.
func (f *TableFormatter) FormatEntries(entries []vm.Entry) (string, error) {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "NAME\tOS\tCPU\tMEMORY\tDISK\tSTATUS")
	}
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			e.Name, e.OS, e.CPU, FormatMemory(e.Memory), FormatDisk(e.DiskAllocated, e.DiskSize), e.Status)
	}

	_ = w.Flush()
	return buf.String(), nil
}

// FormatMemory renders a byte count in GiB with two decimals.
func FormatMemory(n uint64) string {
	return fmt.Sprintf("%.2fG", float64(n)/gib)
}

// FormatDisk renders allocated and logical disk sizes in decimal GB.
func FormatDisk(allocated, logical int64) string {
	return fmt.Sprintf("%.2fG/%.2fG", float64(allocated)/gb, float64(logical)/gb)
}
