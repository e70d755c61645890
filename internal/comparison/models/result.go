package models

import (
	"encoding/json"
	"time"
)

// Discrepancy is a field where claimed and verified values disagree beyond tolerance.
// On the wire both the candidate/hr and employeeValue/hrValue spellings are
// emitted since different dashboards read different keys.
type Discrepancy struct {
	Field      string
	Claimed    string
	Verified   string
	Severity   Severity
	Difference string
}

type discrepancyWire struct {
	Field         string   `json:"field"`
	Candidate     string   `json:"candidate"`
	EmployeeValue string   `json:"employeeValue"`
	HR            string   `json:"hr"`
	HRValue       string   `json:"hrValue"`
	Severity      Severity `json:"severity"`
	Difference    string   `json:"difference,omitempty"`
}

func (d Discrepancy) MarshalJSON() ([]byte, error) {
	return json.Marshal(discrepancyWire{
		Field:         d.Field,
		Candidate:     d.Claimed,
		EmployeeValue: d.Claimed,
		HR:            d.Verified,
		HRValue:       d.Verified,
		Severity:      d.Severity,
		Difference:    d.Difference,
	})
}

func (d *Discrepancy) UnmarshalJSON(b []byte) error {
	var w discrepancyWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	d.Field = w.Field
	d.Claimed = firstNonEmpty(w.EmployeeValue, w.Candidate)
	d.Verified = firstNonEmpty(w.HRValue, w.HR)
	d.Severity = w.Severity
	d.Difference = w.Difference
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Match is a field whose values agree after normalization.
type Match struct {
	Field         string `json:"field"`
	LowConfidence bool   `json:"lowConfidence,omitempty"`
}

// AIAnalysis is the optional collaborator-supplied risk signal.
type AIAnalysis struct {
	RiskLevel       string   `json:"riskLevel"`
	Confidence      float64  `json:"confidence"`
	Reasoning       string   `json:"reasoning,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// RuleApplication records one evaluated client rule for auditability.
type RuleApplication struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Expected      string `json:"expected"`
	Actual        string `json:"actual"`
	Passed        bool   `json:"passed"`
	Indeterminate bool   `json:"indeterminate,omitempty"`
}

// RuleEvaluation is the audit block of a ComparisonResult.
type RuleEvaluation struct {
	RulesApplied []RuleApplication `json:"rulesApplied"`
	ClientSKU    SKU               `json:"clientSKU"`
	Degraded     bool              `json:"degraded"`
	Annotations  []string          `json:"annotations,omitempty"`
}

// Summary statuses and actions.
const (
	StatusApproved          = "APPROVED"
	StatusApprovedWithNotes = "APPROVED_WITH_NOTES"
	StatusRequiresReview    = "REQUIRES_REVIEW"
	StatusPending           = "PENDING"

	ActionAutoApprove  = "AUTO_APPROVE"
	ActionFollowUp     = "FOLLOW_UP"
	ActionManualReview = "MANUAL_REVIEW"
	ActionEscalateCSE  = "ESCALATE_CSE"
	ActionAwaitData    = "AWAIT_DATA"
)

// Summary is the human-facing digest of a result.
type Summary struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Details string `json:"details"`
	Action  string `json:"action"`
}

// ComparisonResult is the immutable snapshot produced by one classification pass.
type ComparisonResult struct {
	Zone           Zone           `json:"zone"`
	RiskScore      *int           `json:"riskScore"`
	Priority       Priority       `json:"priority,omitempty"`
	Discrepancies  []Discrepancy  `json:"discrepancies"`
	Matches        []Match        `json:"matches"`
	MatchRate      float64        `json:"matchRate"`
	RuleEvaluation RuleEvaluation `json:"ruleEvaluation"`
	AIAnalysis     *AIAnalysis    `json:"aiAnalysis,omitempty"`
	Summary        Summary        `json:"summary"`
	ComparedAt     time.Time      `json:"comparedAt"`
}

// Score returns the risk score, or 0 for unscored (PENDING) results.
func (r ComparisonResult) Score() int {
	if r.RiskScore == nil {
		return 0
	}
	return *r.RiskScore
}

// HasSeverity reports whether any discrepancy carries severity s.
func (r ComparisonResult) HasSeverity(s Severity) bool {
	for _, d := range r.Discrepancies {
		if d.Severity == s {
			return true
		}
	}
	return false
}

// MatchRate returns matches / (matches + discrepancies) * 100, or 100 when nothing was compared.
func MatchRate(matches, discrepancies int) float64 {
	total := matches + discrepancies
	if total == 0 {
		return 100
	}
	rate := float64(matches) / float64(total) * 100
	// Two decimal places keeps the value stable across re-runs and readable in UIs.
	return float64(int(rate*100+0.5)) / 100
}
