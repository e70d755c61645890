package models

import (
	"encoding/json"
	"fmt"
	"strings"

	dErrors "bgv/pkg/domain-errors"
)

// Zone is the classification outcome of a comparison.
type Zone int

const (
	ZonePending Zone = iota
	ZoneGreen
	ZoneYellow
	ZoneRed
)

// FoldZone is the exhaustive match over Zone. Adding a zone changes this
// signature, so every consumer stops compiling until it handles the new case.
func FoldZone[T any](z Zone, pending, green, yellow, red T) T {
	switch z {
	case ZoneGreen:
		return green
	case ZoneYellow:
		return yellow
	case ZoneRed:
		return red
	default:
		return pending
	}
}

func (z Zone) String() string {
	return FoldZone(z, "PENDING", "GREEN", "YELLOW", "RED")
}

// Rank orders zones from best to worst for Case roll-up: GREEN < PENDING < YELLOW < RED.
func (z Zone) Rank() int {
	return FoldZone(z, 1, 0, 2, 3)
}

// Worst returns the worse of two zones.
func Worst(a, b Zone) Zone {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// ParseZone parses the wire form of a zone.
func ParseZone(s string) (Zone, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PENDING":
		return ZonePending, nil
	case "GREEN":
		return ZoneGreen, nil
	case "YELLOW":
		return ZoneYellow, nil
	case "RED":
		return ZoneRed, nil
	}
	return ZonePending, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown zone %q", s))
}

func (z Zone) MarshalJSON() ([]byte, error) {
	return json.Marshal(z.String())
}

func (z *Zone) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseZone(s)
	if err != nil {
		return err
	}
	*z = parsed
	return nil
}

// Priority is the follow-up urgency derived from the zone and score.
type Priority string

const (
	PriorityNone   Priority = ""
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)
