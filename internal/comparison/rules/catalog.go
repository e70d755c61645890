// Package rules holds the closed catalog of client-selectable policy rules.
//
// Each rule is a distinct type implementing Rule. The set is sealed by an
// unexported method, and the catalog is built once at package init and never
// mutated, so an instruction id either resolves to a known rule or is
// rejected as a validation error.
package rules

import (
	"fmt"
	"sort"

	"bgv/internal/comparison/detect"
	"bgv/internal/comparison/models"
	dErrors "bgv/pkg/domain-errors"
	"bgv/pkg/platform/strings"
)

// ID is a client-facing instruction identifier.
type ID string

const (
	UAN30DayTolerance       ID = "uan_30day_tolerance"
	UANDOLPFCheck           ID = "uan_dol_pf_check"
	NoOverseasChecks        ID = "no_overseas_checks"
	GovtOrgEscalate         ID = "govt_org_escalate"
	CompanyNotFoundEscalate ID = "company_not_found_escalate"
	RequireExperienceLetter ID = "require_experience_letter"
	RedChecksEscalate       ID = "red_checks_escalate"
	Mandatory5Followups     ID = "mandatory_5_followups"
	HRAttemptsRequired      ID = "hr_attempts_required"
)

// Phase says when in the pipeline a rule takes effect.
type Phase int

const (
	// PhaseDetection rules tune the discrepancy detector.
	PhaseDetection Phase = iota
	// PhaseClassification rules can override the score-driven zone.
	PhaseClassification
	// PhaseGate rules only report whether classification may run.
	PhaseGate
)

func (p Phase) String() string {
	switch p {
	case PhaseDetection:
		return "detection"
	case PhaseGate:
		return "gate"
	}
	return "classification"
}

// Rule is one catalog entry.
type Rule interface {
	ID() ID
	Description() string
	Phase() Phase
	// evaluate is unexported so the set of rules is closed to this package.
	evaluate(in Input) Outcome
}

// Adjuster is implemented by rules that tune detection before it runs.
type Adjuster interface {
	Rule
	adjust(c Context, limits Limits, opts *detect.Options)
}

var catalog = buildCatalog()

func buildCatalog() map[ID]Rule {
	all := []Rule{
		uanTolerance{},
		dolPFCheck{},
		newNoOverseas(),
		newGovtOrg(),
		newCompanyNotFound(),
		experienceLetter{},
		redEscalate{},
		followUps{},
		hrAttempts{},
	}
	m := make(map[ID]Rule, len(all))
	for _, r := range all {
		if _, dup := m[r.ID()]; dup {
			panic(fmt.Sprintf("rules: duplicate catalog id %q", r.ID()))
		}
		m[r.ID()] = r
	}
	return m
}

// Catalog returns every rule sorted by id.
func Catalog() []Rule {
	out := make([]Rule, 0, len(catalog))
	for _, r := range catalog {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Lookup resolves an instruction id.
func Lookup(id string) (Rule, error) {
	r, ok := catalog[ID(id)]
	if !ok {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown instruction %q", id))
	}
	return r, nil
}

// Policy is a resolved, de-duplicated instruction set in catalog order.
type Policy struct {
	rules []Rule
}

// ParseInstructions resolves raw instruction ids. Ids are trimmed,
// lower-cased and have separators folded to underscores, so duplicates
// collapse. Any unknown id fails the whole set.
func ParseInstructions(ids []string) (Policy, error) {
	cleaned := strings.Identifiers(ids)
	resolved := make([]Rule, 0, len(cleaned))
	var unknown []string
	for _, id := range cleaned {
		r, ok := catalog[ID(id)]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		resolved = append(resolved, r)
	}
	if len(unknown) > 0 {
		return Policy{}, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown instructions: %v", unknown))
	}
	sort.Slice(resolved, func(i, j int) bool { return resolved[i].ID() < resolved[j].ID() })
	return Policy{rules: resolved}, nil
}

// MustPolicy is ParseInstructions for fixed, known-good id sets.
func MustPolicy(ids ...ID) Policy {
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = string(id)
	}
	p, err := ParseInstructions(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// Rules returns the resolved rules.
func (p Policy) Rules() []Rule {
	return append([]Rule(nil), p.rules...)
}

// IDs returns the resolved ids in catalog order.
func (p Policy) IDs() []ID {
	out := make([]ID, len(p.rules))
	for i, r := range p.rules {
		out[i] = r.ID()
	}
	return out
}

// Instructions returns the canonical instruction ids as stored on a client.
func (p Policy) Instructions() []string {
	out := make([]string, len(p.rules))
	for i, r := range p.rules {
		out[i] = string(r.ID())
	}
	return out
}

// Has reports whether the policy selects id.
func (p Policy) Has(id ID) bool {
	for _, r := range p.rules {
		if r.ID() == id {
			return true
		}
	}
	return false
}

// Input is what a rule sees when evaluated.
type Input struct {
	CheckType     models.CheckType
	Discrepancies []models.Discrepancy
	Context       Context
	// ScoreZone is the zone the score alone would produce.
	ScoreZone models.Zone
	Limits    Limits
}

// Limits carries the configurable numeric thresholds of gate rules.
type Limits struct {
	MinFollowUps  int `yaml:"min_follow_ups"`
	MinHRAttempts int `yaml:"min_hr_attempts"`
	// PFMonths is the minimum PF-deduction months accepted in place of a DOL.
	PFMonths int `yaml:"pf_months"`
	// UANToleranceDays is the date tolerance granted by uan_30day_tolerance.
	UANToleranceDays int `yaml:"uan_tolerance_days"`
}

// DefaultLimits returns the default gate thresholds.
func DefaultLimits() Limits {
	return Limits{MinFollowUps: 5, MinHRAttempts: 3, PFMonths: 3, UANToleranceDays: 30}
}

// Outcome is a rule's verdict and its effect on classification.
type Outcome struct {
	Application models.RuleApplication
	Effect      Effect
}

// Effect is a rule's influence on the zone. The zero value changes nothing.
type Effect struct {
	ForceRed bool
	Escalate bool
	// Block keeps the Check PENDING instead of classifying it.
	Block bool
	// AtLeastYellow stops the Check from classifying GREEN.
	AtLeastYellow bool
	Annotation    string
	// GateClosed is set when a gate rule is not yet satisfied.
	GateClosed bool
}
