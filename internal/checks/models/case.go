package models

import (
	"strings"
	"time"

	cmodels "bgv/internal/comparison/models"
	id "bgv/pkg/domain"
	dErrors "bgv/pkg/domain-errors"
)

// Employee identifies the candidate a Case verifies.
type Employee struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Case aggregates all Checks for one candidate. It is never deleted, only archived.
type Case struct {
	ID               id.CaseID    `json:"id"`
	ClientID         id.ClientID  `json:"clientId"`
	Employee         Employee     `json:"employee"`
	PositionApplied  string       `json:"positionApplied,omitempty"`
	CheckIDs         []id.CheckID `json:"checkIds"`
	OverallRiskLevel cmodels.Zone `json:"overallRiskLevel"`
	Archived         bool         `json:"archived"`
	Revision         uint64       `json:"revision"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

func NewCase(caseID id.CaseID, clientID id.ClientID, employee Employee, position string, now time.Time) (*Case, error) {
	if caseID.IsNil() || clientID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "case and client ids are required")
	}
	employee.Name = strings.TrimSpace(employee.Name)
	if employee.Name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "employee name cannot be empty")
	}
	return &Case{
		ID:               caseID,
		ClientID:         clientID,
		Employee:         employee,
		PositionApplied:  strings.TrimSpace(position),
		CheckIDs:         []id.CheckID{},
		OverallRiskLevel: cmodels.ZonePending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// OverallRiskLevel is the worst zone among zones. An empty set is PENDING.
func OverallRiskLevel(zones []cmodels.Zone) cmodels.Zone {
	if len(zones) == 0 {
		return cmodels.ZonePending
	}
	worst := zones[0]
	for _, z := range zones[1:] {
		worst = cmodels.Worst(worst, z)
	}
	return worst
}

// Clone returns a deep copy.
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	out := *c
	out.CheckIDs = append([]id.CheckID(nil), c.CheckIDs...)
	return &out
}

// ReplaceCheck swaps a superseded Check id for its successor, keeping order.
func (c *Case) ReplaceCheck(old, next id.CheckID) {
	for i, checkID := range c.CheckIDs {
		if checkID == old {
			c.CheckIDs[i] = next
			return
		}
	}
	c.CheckIDs = append(c.CheckIDs, next)
}
