package rules

import "strings"

// Tenure sources.
const (
	TenureSourceUAN = "UAN"
	TenureSourceHR  = "HR"
)

// Context is the verification context a rule predicate reads. Pointer fields
// are tri-state: nil means the fact is unknown, and a rule that needs it
// evaluates as indeterminate.
type Context struct {
	// TenureSource says where the verified tenure came from (UAN or HR).
	TenureSource             string `json:"tenureSource,omitempty"`
	DOLAvailable             *bool  `json:"dolAvailable,omitempty"`
	PFDeductionMonths        *int   `json:"pfDeductionMonths,omitempty"`
	Overseas                 *bool  `json:"overseas,omitempty"`
	GovernmentOrg            *bool  `json:"governmentOrg,omitempty"`
	CompanyNotFound          *bool  `json:"companyNotFound,omitempty"`
	ExperienceLetterUploaded *bool  `json:"experienceLetterUploaded,omitempty"`
	FollowUpCount            int    `json:"followUpCount,omitempty"`
	HRAttempts               int    `json:"hrAttempts,omitempty"`
}

func (c Context) hrSourced() bool {
	return strings.EqualFold(strings.TrimSpace(c.TenureSource), TenureSourceHR)
}

// Bool returns a pointer to v, for building contexts.
func Bool(v bool) *bool { return &v }

// Int returns a pointer to v, for building contexts.
func Int(v int) *int { return &v }
