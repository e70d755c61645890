// Package review is the Check lifecycle state machine. It is the only place a
// Check changes state, and the only place a human decision can override a
// machine-computed zone.
package review

import (
	"fmt"

	"bgv/internal/checks/models"
	cmodels "bgv/internal/comparison/models"
	dErrors "bgv/pkg/domain-errors"
)

// Event drives a transition.
type Event int

const (
	// EventDataAvailable fires when both claimed and verified data exist.
	EventDataAvailable Event = iota
	EventClassifiedGreen
	EventClassifiedYellow
	EventClassifiedRed
	EventApprove
	EventReject
	EventFail
)

func (e Event) String() string {
	switch e {
	case EventDataAvailable:
		return "data_available"
	case EventClassifiedGreen:
		return "classified_green"
	case EventClassifiedYellow:
		return "classified_yellow"
	case EventClassifiedRed:
		return "classified_red"
	case EventApprove:
		return "approve"
	case EventReject:
		return "reject"
	case EventFail:
		return "fail"
	}
	return "unknown"
}

// transitions is the complete guarded table. Anything absent is invalid.
var transitions = map[models.CheckState]map[Event]models.CheckState{
	models.StatePending: {
		EventDataAvailable: models.StateInProgress,
		EventFail:          models.StateFailed,
	},
	models.StateInProgress: {
		EventClassifiedGreen:  models.StateClosedGreen,
		EventClassifiedYellow: models.StateClosedYellow,
		EventClassifiedRed:    models.StateClassifiedRed,
		EventFail:             models.StateFailed,
	},
	models.StateClassifiedRed: {
		EventApprove: models.StateClosedGreen,
		EventReject:  models.StateClosedRejected,
	},
	models.StateFailed: {
		EventDataAvailable: models.StateInProgress,
	},
}

// Transition returns the state reached from `from` on ev. A review event on a
// CLOSED Check is a conflict with the decision already recorded; every other
// missing transition is an invalid-state error.
func Transition(from models.CheckState, ev Event) (models.CheckState, error) {
	if to, ok := transitions[from][ev]; ok {
		return to, nil
	}
	if from.Closed() && isReview(ev) {
		return from, dErrors.New(dErrors.CodeConflict,
			fmt.Sprintf("check already closed as %s; decision retained", from))
	}
	return from, dErrors.New(dErrors.CodeInvalidState,
		fmt.Sprintf("cannot %s a check in state %s", ev, from))
}

// Allowed reports whether ev is valid from state.
func Allowed(from models.CheckState, ev Event) bool {
	_, ok := transitions[from][ev]
	return ok
}

// ClassificationEvent maps a zone to the event that records it. PENDING
// results do not move the Check.
func ClassificationEvent(z cmodels.Zone) (Event, bool) {
	type pick struct {
		ev Event
		ok bool
	}
	p := cmodels.FoldZone(z,
		pick{},
		pick{EventClassifiedGreen, true},
		pick{EventClassifiedYellow, true},
		pick{EventClassifiedRed, true},
	)
	return p.ev, p.ok
}

// DecisionEvent maps a reviewer decision to its event.
func DecisionEvent(d models.Decision) (Event, error) {
	switch d {
	case models.DecisionApproved:
		return EventApprove, nil
	case models.DecisionRejected:
		return EventReject, nil
	}
	return 0, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("decision must be APPROVED or REJECTED, got %q", d))
}

// Classify walks a Check from its current state through a classification.
// The returned state is the Check's new state; it equals from when the zone
// is PENDING.
func Classify(from models.CheckState, z cmodels.Zone) (models.CheckState, error) {
	ev, ok := ClassificationEvent(z)
	if !ok {
		return from, nil
	}
	state := from
	if state != models.StateInProgress {
		next, err := Transition(state, EventDataAvailable)
		if err != nil {
			return from, err
		}
		state = next
	}
	return Transition(state, ev)
}

// Decide applies a reviewer decision.
func Decide(from models.CheckState, d models.Decision) (models.CheckState, error) {
	ev, err := DecisionEvent(d)
	if err != nil {
		return from, err
	}
	return Transition(from, ev)
}

func isReview(ev Event) bool {
	return ev == EventApprove || ev == EventReject
}
