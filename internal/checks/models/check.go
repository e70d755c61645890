package models

import (
	"encoding/json"
	"strings"
	"time"

	cmodels "bgv/internal/comparison/models"
	id "bgv/pkg/domain"
	dErrors "bgv/pkg/domain-errors"
)

// ClientPolicy is the client configuration captured when a Check is created.
// Later edits to the client apply only to future Checks.
type ClientPolicy struct {
	ClientID       id.ClientID `json:"clientId"`
	SKU            cmodels.SKU `json:"sku"`
	PrimaryMethod  string      `json:"primaryMethod,omitempty"`
	FallbackMethod string      `json:"fallbackMethod,omitempty"`
	Instructions   []string    `json:"specialInstructions"`
}

// Decision is a reviewer's verdict on a RED Check.
type Decision string

const (
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

func (d Decision) Valid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// ReviewDecision is appended alongside the ComparisonResult it adjudicates.
type ReviewDecision struct {
	CheckID    id.CheckID `json:"checkId"`
	Decision   Decision   `json:"decision"`
	Notes      string     `json:"notes,omitempty"`
	ReviewedBy string     `json:"reviewedBy"`
	Timestamp  time.Time  `json:"timestamp"`
}

// Check is one verification unit within a Case.
//
// Invariants:
//   - Result is replaced, never mutated; prior results remain in history
//   - Review is set only once, and only from CLASSIFIED_RED
//   - Version counts Check versions; Supersedes links a version to its predecessor
//   - Revision increments on every write and guards optimistic updates
type Check struct {
	ID          id.CheckID                `json:"id"`
	CaseID      id.CaseID                 `json:"caseId"`
	Type        cmodels.CheckType         `json:"type"`
	CompanyName string                    `json:"companyName,omitempty"`
	State       CheckState                `json:"state"`
	Policy      ClientPolicy              `json:"clientPolicy"`
	Result      *cmodels.ComparisonResult `json:"comparisonResult,omitempty"`
	Review      *ReviewDecision           `json:"review,omitempty"`
	Version     int                       `json:"version"`
	Supersedes  *id.CheckID               `json:"supersedes,omitempty"`
	Revision    uint64                    `json:"revision"`
	CreatedAt   time.Time                 `json:"createdAt"`
	UpdatedAt   time.Time                 `json:"updatedAt"`
}

// NewCheck constructs a PENDING Check.
func NewCheck(checkID id.CheckID, caseID id.CaseID, checkType cmodels.CheckType, companyName string, policy ClientPolicy, now time.Time) (*Check, error) {
	if checkID.IsNil() || caseID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "check and case ids are required")
	}
	if !checkType.Valid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid check type: "+string(checkType))
	}
	companyName = strings.TrimSpace(companyName)
	if checkType == cmodels.CheckTypeEmployment && companyName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "employment checks require a company name")
	}
	return &Check{
		ID:          checkID,
		CaseID:      caseID,
		Type:        checkType,
		CompanyName: companyName,
		State:       StatePending,
		Policy:      policy,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Status is the externally visible status derived from State.
func (c *Check) Status() Status {
	return c.State.Status()
}

// Zone is the zone of the latest result, or PENDING when unclassified.
func (c *Check) Zone() cmodels.Zone {
	if c.Result == nil {
		return cmodels.ZonePending
	}
	return c.Result.Zone
}

// EffectiveZone folds an accepted ReviewDecision into the machine zone: an
// approved RED Check counts as GREEN for Case roll-up.
func (c *Check) EffectiveZone() cmodels.Zone {
	if c.Review != nil && c.Review.Decision == DecisionApproved {
		return cmodels.ZoneGreen
	}
	return c.Zone()
}

// RiskScore returns the latest score, nil when unscored.
func (c *Check) RiskScore() *int {
	if c.Result == nil {
		return nil
	}
	return c.Result.RiskScore
}

// Priority is derived from the latest result.
func (c *Check) Priority() cmodels.Priority {
	if c.Result == nil {
		return cmodels.PriorityNone
	}
	return c.Result.Priority
}

// MarshalJSON adds the derived status, zone, riskScore, priority and
// discrepancies fields dashboards read from a Check.
func (c Check) MarshalJSON() ([]byte, error) {
	type alias Check
	discrepancies := []cmodels.Discrepancy{}
	if c.Result != nil {
		discrepancies = c.Result.Discrepancies
	}
	return json.Marshal(struct {
		alias
		Status        Status                `json:"status"`
		Zone          cmodels.Zone          `json:"zone"`
		RiskScore     *int                  `json:"riskScore"`
		Priority      cmodels.Priority      `json:"priority,omitempty"`
		Discrepancies []cmodels.Discrepancy `json:"discrepancies"`
	}{
		alias:         alias(c),
		Status:        c.Status(),
		Zone:          c.Zone(),
		RiskScore:     c.RiskScore(),
		Priority:      c.Priority(),
		Discrepancies: discrepancies,
	})
}

// NextVersion returns a new PENDING Check that supersedes c. Used when a
// CLOSED Check must be compared again.
func (c *Check) NextVersion(newID id.CheckID, now time.Time) *Check {
	prev := c.ID
	return &Check{
		ID:          newID,
		CaseID:      c.CaseID,
		Type:        c.Type,
		CompanyName: c.CompanyName,
		State:       StatePending,
		Policy:      c.Policy,
		Version:     c.Version + 1,
		Supersedes:  &prev,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Clone returns a deep copy safe to hand across goroutines.
func (c *Check) Clone() *Check {
	if c == nil {
		return nil
	}
	out := *c
	out.Policy.Instructions = append([]string(nil), c.Policy.Instructions...)
	if c.Result != nil {
		r := *c.Result
		out.Result = &r
	}
	if c.Review != nil {
		r := *c.Review
		out.Review = &r
	}
	if c.Supersedes != nil {
		s := *c.Supersedes
		out.Supersedes = &s
	}
	return &out
}

// History is the append-only record of a Check.
type History struct {
	CheckID id.CheckID                 `json:"checkId"`
	Results []cmodels.ComparisonResult `json:"results"`
	Reviews []ReviewDecision           `json:"reviews"`
}
