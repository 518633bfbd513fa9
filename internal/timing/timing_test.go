package timing

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestTimerMark(t *testing.T) {
	clock := clockwork.NewFakeClock()
	timer := New(clock)

	clock.Advance(10 * time.Millisecond)
	timer.Mark("phase1")

	clock.Advance(15 * time.Millisecond)
	timer.Mark("phase2")

	phases := timer.Phases()
	if len(phases) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(phases))
	}
	if phases[0].Name != "phase1" || phases[0].Duration != 10*time.Millisecond {
		t.Errorf("phase1 = %+v", phases[0])
	}
	if phases[1].Name != "phase2" || phases[1].Duration != 15*time.Millisecond {
		t.Errorf("phase2 = %+v", phases[1])
	}
	if timer.Total() != 25*time.Millisecond {
		t.Errorf("total = %v, want 25ms", timer.Total())
	}
}

func TestTimerFields(t *testing.T) {
	clock := clockwork.NewFakeClock()
	timer := New(clock)

	clock.Advance(1500 * time.Millisecond)
	timer.Mark("disk")
	clock.Advance(20 * time.Millisecond)
	timer.Mark("commit")

	fields := timer.Fields()
	want := map[string]string{"disk": "1.50s", "commit": "20ms", "total": "1.52s"}
	if len(fields) != len(want) {
		t.Fatalf("Fields() = %v, want %v", fields, want)
	}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("Fields()[%q] = %v, want %s", k, fields[k], v)
		}
	}
}

func TestTimerEmpty(t *testing.T) {
	timer := New(nil)

	if phases := timer.Phases(); len(phases) != 0 {
		t.Errorf("expected 0 phases, got %d", len(phases))
	}
	if timer.Total() < 0 {
		t.Error("total should not be negative")
	}
	if _, ok := timer.Fields()["total"]; !ok {
		t.Error("empty timer should still report a total")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{500 * time.Microsecond, "500µs"},
		{50 * time.Millisecond, "50ms"},
		{1500 * time.Millisecond, "1.50s"},
		{2 * time.Second, "2.00s"},
	}

	for _, tt := range tests {
		result := formatDuration(tt.d)
		if result != tt.expected {
			t.Errorf("formatDuration(%v) = %s, expected %s", tt.d, result, tt.expected)
		}
	}
}
