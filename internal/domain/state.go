package domain

import (
	"fmt"
	"strings"
)

// State is the reconciliation state of a tracked resource.
type State string

const (
	StatePending   State = "PENDING"
	StateConfirmed State = "CONFIRMED"
	StateFailed    State = "FAILED"
)

var validStates = map[State]bool{
	StatePending:   true,
	StateConfirmed: true,
	StateFailed:    true,
}

// ParseState validates s against the closed set of states.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseState(s string) (State, error) {
	st := State(strings.ToUpper(strings.TrimSpace(s)))
	if !validStates[st] {
		return "", fmt.Errorf("unknown state %q", s)
	}
	return st, nil
}

func (s State) Valid() bool {
	return validStates[s]
}

func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateFailed
}

func (s State) String() string {
	return string(s)
}

// CanTransition reports whether a record in state current may move to reported.
//
// PENDING may move to CONFIRMED or FAILED. A FAILED record may still be
// confirmed by a late approval, but a CONFIRMED record never changes again
// and nothing ever moves back to PENDING. Same-state transitions are no-ops
// and are rejected.
func CanTransition(current, reported State) bool {
	if !current.Valid() || !reported.Valid() || current == reported {
		return false
	}
	switch reported {
	case StateConfirmed:
		return current == StatePending || current == StateFailed
	case StateFailed:
		return current == StatePending
	default:
		return false
	}
}
