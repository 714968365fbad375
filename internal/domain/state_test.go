package domain

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name     string
		current  State
		reported State
		want     bool
	}{
		{"pending to confirmed", StatePending, StateConfirmed, true},
		{"pending to failed", StatePending, StateFailed, true},
		{"failed to confirmed", StateFailed, StateConfirmed, true},
		{"confirmed to failed", StateConfirmed, StateFailed, false},
		{"confirmed to pending", StateConfirmed, StatePending, false},
		{"failed to pending", StateFailed, StatePending, false},
		{"pending to pending", StatePending, StatePending, false},
		{"confirmed to confirmed", StateConfirmed, StateConfirmed, false},
		{"failed to failed", StateFailed, StateFailed, false},
		{"unknown current", State("PAGO"), StateConfirmed, false},
		{"unknown reported", StatePending, State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanTransition(tt.current, tt.reported)
			if got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.current, tt.reported, got, tt.want)
			}
		})
	}
}

func TestParseState(t *testing.T) {
	tests := []struct {
		in      string
		want    State
		wantErr bool
	}{
		{"PENDING", StatePending, false},
		{" confirmed ", StateConfirmed, false},
		{"Failed", StateFailed, false},
		{"PAGO", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseState(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseState(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseState(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTerminalStates(t *testing.T) {
	if StatePending.Terminal() {
		t.Error("pending should not be terminal")
	}
	if !StateConfirmed.Terminal() || !StateFailed.Terminal() {
		t.Error("confirmed and failed should be terminal")
	}
}

func TestApplyResultAcknowledge(t *testing.T) {
	acked := []ApplyResult{ResultApplied, ResultSkippedDuplicate, ResultSkippedInvalidTransition}
	for _, r := range acked {
		if !r.Acknowledge() {
			t.Errorf("%s should be acknowledged", r)
		}
	}
	if ResultNotFound.Acknowledge() {
		t.Error("not_found should not be acknowledged")
	}
}
