package vm

import "testing"

func TestStateString(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  string
	}{
		{"running", StateRunning, "running"},
		{"stop requested", StateStopRequested, "stop requested"},
		{"force stop pending", StateForceStopPending, "force stop pending"},
		{"stopped gracefully", StateStoppedGracefully, "stopped gracefully"},
		{"stopped forcefully", StateStoppedForcefully, "stopped forcefully"},
		{"failed to stop", StateFailedToStop, "failed to stop"},
		{"guest error", StateGuestError, "guest error"},
		{"unknown/invalid", State(99), "unknown"},
		{"negative", State(-1), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.state.String()
			if got != tt.want {
				t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
			}
		})
	}
}

func TestStateTerminal(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StateRunning, false},
		{StateStopRequested, false},
		{StateForceStopPending, false},
		{StateStoppedGracefully, true},
		{StateStoppedForcefully, true},
		{StateFailedToStop, true},
		{StateGuestError, true},
	}

	for _, tt := range tests {
		if got := tt.state.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestOutcomeExitCode(t *testing.T) {
	tests := []struct {
		state State
		want  int
	}{
		{StateStoppedGracefully, 0},
		{StateStoppedForcefully, 0},
		{StateFailedToStop, 1},
		{StateGuestError, 1},
	}

	for _, tt := range tests {
		if got := (Outcome{State: tt.state}).ExitCode(); got != tt.want {
			t.Errorf("Outcome{%s}.ExitCode() = %d, want %d", tt.state, got, tt.want)
		}
	}
}
