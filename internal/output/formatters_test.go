package output

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/javanstorm/vmctl/internal/testutil"
	"github.com/javanstorm/vmctl/internal/vm"
	"github.com/javanstorm/vmctl/internal/vmdir"
)

func testEntries() []vm.Entry {
	return []vm.Entry{
		{Name: "x", OS: vmdir.Linux, CPU: 1, Memory: 1 << 30, DiskAllocated: 0, DiskSize: 10_000_000_000, Status: vm.StatusStopped},
		{Name: "mac", OS: vmdir.MacOS, CPU: 4, Memory: 8 << 30, DiskAllocated: 21_500_000_000, DiskSize: 64_000_000_000, Status: vm.StatusRunning, PID: 4242},
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format  Format
		wantErr bool
	}{
		{FormatTable, false},
		{FormatJSON, false},
		{FormatYAML, false},
		{"", false},
		{"xml", true},
	}
	for _, tt := range tests {
		_, err := NewFormatter(Options{Format: tt.format})
		if (err != nil) != tt.wantErr {
			t.Errorf("NewFormatter(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestTableFormatter(t *testing.T) {
	tests := []struct {
		name       string
		entries    []vm.Entry
		noHeaders  bool
		wantLines  int
		wantHeader bool
	}{
		{"empty list", nil, false, 1, true},
		{"two vms", testEntries(), false, 3, true},
		{"no headers", testEntries(), true, 2, false},
		{"empty without headers", nil, true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &TableFormatter{NoHeaders: tt.noHeaders}
			out, err := f.FormatEntries(tt.entries)
			if err != nil {
				t.Fatalf("FormatEntries() error = %v", err)
			}

			lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
			if out == "" {
				lines = nil
			}
			if len(lines) != tt.wantLines {
				t.Errorf("got %d lines, want %d: %q", len(lines), tt.wantLines, out)
			}
			hasHeader := strings.Contains(out, "NAME") && strings.Contains(out, "STATUS")
			if hasHeader != tt.wantHeader {
				t.Errorf("header present = %v, want %v: %q", hasHeader, tt.wantHeader, out)
			}
		})
	}
}

func TestTableFormatterColumns(t *testing.T) {
	out, err := (&TableFormatter{NoHeaders: true}).FormatEntries(testEntries())
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")

	want := [][]string{
		{"x", "linux", "1", "1.00G", "0.00G/10.00G", "stopped"},
		{"mac", "macOS", "4", "8.00G", "21.50G/64.00G", "running"},
	}
	for i, w := range want {
		if got := strings.Fields(lines[i]); !slices.Equal(got, w) {
			t.Errorf("row %d = %v, want %v", i, got, w)
		}
	}
}

func TestListEndToEnd(t *testing.T) {
	home := testutil.Home(t)
	testutil.CreateVM(t, home, "x", testutil.LinuxConfig(), 10_000_000_000)

	entries := slices.Collect((&vm.Inventory{Home: home}).All())
	out, err := (&TableFormatter{NoHeaders: true}).FormatEntries(entries)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"x", "linux", "1", "1.00G", "0.00G/10.00G", "stopped"}
	if got := strings.Fields(out); !slices.Equal(got, want) {
		t.Errorf("list = %v, want %v", got, want)
	}
}

func TestJSONFormatter(t *testing.T) {
	out, err := (&JSONFormatter{}).FormatEntries(testEntries())
	if err != nil {
		t.Fatal(err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(decoded) != 2 || decoded[0]["name"] != "x" || decoded[1]["status"] != "running" {
		t.Errorf("decoded = %v", decoded)
	}
	if _, ok := decoded[0]["pid"]; ok {
		t.Error("stopped vm should omit pid")
	}

	empty, _ := (&JSONFormatter{}).FormatEntries(nil)
	if empty != "[]\n" {
		t.Errorf("empty list = %q", empty)
	}
}

func TestYAMLFormatter(t *testing.T) {
	out, err := (&YAMLFormatter{}).FormatEntries(testEntries())
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{"name: x", "os: linux", "os: macOS", "diskSize: 64000000000", "pid: 4242"} {
		if !strings.Contains(out, field) {
			t.Errorf("output missing %q:\n%s", field, out)
		}
	}

	var decoded []vm.Entry
	if err := yaml.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if len(decoded) != 2 || decoded[1].Memory != 8<<30 {
		t.Errorf("decoded = %+v", decoded)
	}
}
