package models

import (
	"encoding/json"
	"fmt"
	"strings"

	dErrors "bgv/pkg/domain-errors"
)

// Severity grades a single discrepancy.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	}
	return "UNKNOWN"
}

// AtLeast returns the higher of s and floor.
func (s Severity) AtLeast(floor Severity) Severity {
	if s < floor {
		return floor
	}
	return s
}

func ParseSeverity(s string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return SeverityLow, nil
	case "MEDIUM":
		return SeverityMedium, nil
	case "HIGH":
		return SeverityHigh, nil
	}
	return 0, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown severity %q", s))
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseSeverity(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
