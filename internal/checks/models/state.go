package models

import (
	"encoding/json"
	"fmt"
	"strings"

	dErrors "bgv/pkg/domain-errors"
)

// CheckState is the lifecycle position of a Check. Transitions between states
// are owned by the review package.
type CheckState int

const (
	StatePending CheckState = iota
	StateInProgress
	StateClassifiedRed
	StateClosedGreen
	StateClosedYellow
	StateClosedRejected
	StateFailed
)

var stateNames = map[CheckState]string{
	StatePending:        "PENDING",
	StateInProgress:     "IN_PROGRESS",
	StateClassifiedRed:  "CLASSIFIED_RED",
	StateClosedGreen:    "CLOSED_GREEN",
	StateClosedYellow:   "CLOSED_YELLOW",
	StateClosedRejected: "CLOSED_REJECTED",
	StateFailed:         "FAILED",
}

func (s CheckState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// Closed reports whether s is a terminal CLOSED_* state.
func (s CheckState) Closed() bool {
	switch s {
	case StateClosedGreen, StateClosedYellow, StateClosedRejected:
		return true
	}
	return false
}

// Status is the coarse, externally visible Check status.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Status maps the fine-grained state to the Check status. A RED Check awaiting
// review is still in progress.
func (s CheckState) Status() Status {
	switch s {
	case StatePending:
		return StatusPending
	case StateInProgress, StateClassifiedRed:
		return StatusInProgress
	case StateClosedGreen, StateClosedYellow, StateClosedRejected:
		return StatusCompleted
	}
	return StatusFailed
}

func ParseCheckState(s string) (CheckState, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for state, name := range stateNames {
		if name == want {
			return state, nil
		}
	}
	return 0, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown check state %q", s))
}

func (s CheckState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *CheckState) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseCheckState(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
