package rules

import (
	"fmt"

	"bgv/internal/comparison/detect"
	"bgv/internal/comparison/models"
)

func application(r Rule, expected, actual string, passed bool) models.RuleApplication {
	return models.RuleApplication{
		Name:        string(r.ID()),
		Description: r.Description(),
		Expected:    expected,
		Actual:      actual,
		Passed:      passed,
	}
}

// indeterminate records a rule whose context was unavailable. The check may
// not classify GREEN on an unknown.
func indeterminate(r Rule, expected, missing string) Outcome {
	app := application(r, expected, missing+" unavailable", false)
	app.Indeterminate = true
	return Outcome{Application: app, Effect: Effect{AtLeastYellow: true}}
}

type uanTolerance struct{}

func (uanTolerance) ID() ID       { return UAN30DayTolerance }
func (uanTolerance) Phase() Phase { return PhaseDetection }
func (uanTolerance) Description() string {
	return "Allow a 30-day date tolerance on UAN-sourced tenure"
}

func (uanTolerance) adjust(c Context, limits Limits, opts *detect.Options) {
	if c.hrSourced() {
		return
	}
	opts.DateToleranceDays = max(opts.DateToleranceDays, limits.UANToleranceDays)
	opts.PayrollTolerance = true
}

func (r uanTolerance) evaluate(in Input) Outcome {
	expected := fmt.Sprintf("date tolerance %d days", in.Limits.UANToleranceDays)
	if in.Context.hrSourced() {
		return Outcome{Application: application(r, expected, "not applied: tenure sourced from HR", true)}
	}
	return Outcome{Application: application(r, expected, "applied", true)}
}

type dolPFCheck struct{}

func (dolPFCheck) ID() ID       { return UANDOLPFCheck }
func (dolPFCheck) Phase() Phase { return PhaseDetection }
func (dolPFCheck) Description() string {
	return "Confirm tenure by PF deductions when the date of leaving is unavailable"
}

func (dolPFCheck) substitutes(c Context, limits Limits) bool {
	return c.DOLAvailable != nil && !*c.DOLAvailable &&
		c.PFDeductionMonths != nil && *c.PFDeductionMonths >= limits.PFMonths
}

func (r dolPFCheck) adjust(c Context, limits Limits, opts *detect.Options) {
	if !r.substitutes(c, limits) {
		return
	}
	optional := make(map[string]bool, len(opts.Optional)+1)
	for k, v := range opts.Optional {
		optional[k] = v
	}
	optional[models.FieldDateOfLeaving] = true
	opts.Optional = optional
}

func (r dolPFCheck) evaluate(in Input) Outcome {
	expected := fmt.Sprintf("DOL available or at least %d months of PF deductions", in.Limits.PFMonths)
	c := in.Context
	switch {
	case c.DOLAvailable == nil:
		return indeterminate(r, expected, "DOL availability")
	case *c.DOLAvailable:
		return Outcome{Application: application(r, expected, "DOL available", true)}
	case c.PFDeductionMonths == nil:
		return indeterminate(r, expected, "PF deduction history")
	case r.substitutes(c, in.Limits):
		return Outcome{Application: application(r, expected,
			fmt.Sprintf("DOL unavailable, %d months of PF deductions", *c.PFDeductionMonths), true)}
	}
	return Outcome{
		Application: application(r, expected,
			fmt.Sprintf("DOL unavailable, only %d months of PF deductions", *c.PFDeductionMonths), false),
		Effect: Effect{AtLeastYellow: true},
	}
}

// forceRedRule is the shared shape of rules that escalate on a context flag.
type forceRedRule struct {
	id          ID
	description string
	fact        string
	flag        func(Context) *bool
	annotation  string
}

func (r forceRedRule) ID() ID              { return r.id }
func (r forceRedRule) Phase() Phase        { return PhaseClassification }
func (r forceRedRule) Description() string { return r.description }

func (r forceRedRule) evaluate(in Input) Outcome {
	expected := "not " + r.fact
	v := r.flag(in.Context)
	if v == nil {
		return indeterminate(r, expected, r.fact)
	}
	if !*v {
		return Outcome{Application: application(r, expected, "not "+r.fact, true)}
	}
	return Outcome{
		Application: application(r, expected, r.fact+": forced RED", false),
		Effect:      Effect{ForceRed: true, Escalate: true, Annotation: r.annotation},
	}
}

type noOverseas struct{ forceRedRule }

func newNoOverseas() noOverseas {
	return noOverseas{forceRedRule{
		id:          NoOverseasChecks,
		description: "Escalate checks whose verified employer is outside the domestic jurisdiction",
		fact:        "overseas employer",
		flag:        func(c Context) *bool { return c.Overseas },
	}}
}

type govtOrg struct{ forceRedRule }

func newGovtOrg() govtOrg {
	return govtOrg{forceRedRule{
		id:          GovtOrgEscalate,
		description: "Escalate checks against government organizations",
		fact:        "government organization",
		flag:        func(c Context) *bool { return c.GovernmentOrg },
	}}
}

type companyNotFound struct{ forceRedRule }

// CompanyNotFoundSLA annotates checks escalated because the employer could not be found.
const CompanyNotFoundSLA = "SLA: 2-3 business days"

func newCompanyNotFound() companyNotFound {
	return companyNotFound{forceRedRule{
		id:          CompanyNotFoundEscalate,
		description: "Escalate checks where the employer lookup reports company not found",
		fact:        "company not found",
		flag:        func(c Context) *bool { return c.CompanyNotFound },
		annotation:  CompanyNotFoundSLA,
	}}
}

type experienceLetter struct{}

func (experienceLetter) ID() ID       { return RequireExperienceLetter }
func (experienceLetter) Phase() Phase { return PhaseClassification }
func (experienceLetter) Description() string {
	return "Hold the check at PENDING until an experience letter is uploaded"
}

func (r experienceLetter) evaluate(in Input) Outcome {
	const expected = "experience letter uploaded"
	v := in.Context.ExperienceLetterUploaded
	if v != nil && *v {
		return Outcome{Application: application(r, expected, "uploaded", true)}
	}
	app := application(r, expected, "not uploaded", false)
	if v == nil {
		app.Actual = "upload status unavailable"
		app.Indeterminate = true
	}
	return Outcome{Application: app, Effect: Effect{Block: true}}
}

type redEscalate struct{}

func (redEscalate) ID() ID       { return RedChecksEscalate }
func (redEscalate) Phase() Phase { return PhaseClassification }
func (redEscalate) Description() string {
	return "Tag checks classified RED by score for CSE escalation"
}

func (r redEscalate) evaluate(in Input) Outcome {
	const expected = "RED checks escalated to CSE"
	if in.ScoreZone != models.ZoneRed {
		return Outcome{Application: application(r, expected, "zone "+in.ScoreZone.String()+": no escalation", true)}
	}
	return Outcome{
		Application: application(r, expected, "zone RED: escalated", true),
		Effect:      Effect{Escalate: true},
	}
}

type followUps struct{}

func (followUps) ID() ID       { return Mandatory5Followups }
func (followUps) Phase() Phase { return PhaseGate }
func (followUps) Description() string {
	return "Require the minimum number of HR follow-ups before classification"
}

func (r followUps) evaluate(in Input) Outcome {
	return gate(r, "follow-ups", in.Context.FollowUpCount, in.Limits.MinFollowUps)
}

type hrAttempts struct{}

func (hrAttempts) ID() ID       { return HRAttemptsRequired }
func (hrAttempts) Phase() Phase { return PhaseGate }
func (hrAttempts) Description() string {
	return "Require the minimum number of HR contact attempts before classification"
}

func (r hrAttempts) evaluate(in Input) Outcome {
	return gate(r, "HR attempts", in.Context.HRAttempts, in.Limits.MinHRAttempts)
}

func gate(r Rule, what string, got, want int) Outcome {
	app := application(r, fmt.Sprintf("at least %d %s", want, what), fmt.Sprintf("%d %s", got, what), got >= want)
	return Outcome{Application: app, Effect: Effect{GateClosed: got < want}}
}
