// Package detect compares claimed and verified field sets field by field and
// grades every disagreement.
package detect

import (
	"fmt"
	"sort"

	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"

	"bgv/internal/comparison/models"
	"bgv/internal/comparison/normalize"
)

// SalaryBands are the upper bounds, in percent, of each salary severity band.
type SalaryBands struct {
	Match  float64 `yaml:"match"`
	Low    float64 `yaml:"low"`
	Medium float64 `yaml:"medium"`
}

// DefaultSalaryBands: <=5% match, <=20% LOW, <=50% MEDIUM, above HIGH.
var DefaultSalaryBands = SalaryBands{Match: 5, Low: 20, Medium: 50}

// Options tunes detection for one classification pass.
type Options struct {
	// DateToleranceDays is the calendar-day difference still treated as equal.
	DateToleranceDays int `yaml:"date_tolerance_days"`
	// PayrollTolerance measures the tolerance in 30/360 payroll days instead,
	// the unit of UAN month records. Set by the UAN tolerance rule.
	PayrollTolerance bool `yaml:"-"`
	// MediumDateDays is the largest calendar-day difference graded MEDIUM.
	MediumDateDays int `yaml:"medium_date_days"`
	// FuzzyDistance is the edit distance under which a name or company
	// difference is graded LOW rather than HIGH.
	FuzzyDistance int         `yaml:"fuzzy_distance"`
	Salary        SalaryBands `yaml:"salary"`
	// Optional lists fields whose absence on one side is not a discrepancy.
	Optional map[string]bool `yaml:"-"`
}

// DefaultOptions returns the detection defaults.
func DefaultOptions() Options {
	return Options{
		DateToleranceDays: 0,
		MediumDateDays:    90,
		FuzzyDistance:     2,
		Salary:            DefaultSalaryBands,
	}
}

// OptionalFields are the fields that may legitimately be missing on one side
// for each check type.
var OptionalFields = map[models.CheckType]map[string]bool{
	models.CheckTypeEmployment: {
		models.FieldSalary:      true,
		models.FieldDesignation: true,
		models.FieldUAN:         true,
		models.FieldUANNumber:   true,
	},
	models.CheckTypeEducation: {
		models.FieldDesignation: true,
		models.FieldSalary:      true,
	},
	models.CheckTypeCrime: {
		models.FieldCompany:     true,
		models.FieldDesignation: true,
		models.FieldSalary:      true,
	},
}

// Result partitions the compared fields.
type Result struct {
	Discrepancies []models.Discrepancy
	Matches       []models.Match
}

// Detect compares every field present on either side. Each field ends up in
// exactly one of Discrepancies or Matches, or is skipped when it is optional
// and missing. Fields are visited in sorted order so output is deterministic.
func Detect(claimed, verified models.FieldMap, opts Options) Result {
	res := Result{Discrepancies: []models.Discrepancy{}, Matches: []models.Match{}}
	for _, field := range unionKeys(claimed, verified) {
		c, v := claimed[field], verified[field]
		cPresent, vPresent := normalize.Present(c), normalize.Present(v)

		switch {
		case !cPresent && !vPresent:
			continue
		case !cPresent || !vPresent:
			if opts.Optional[field] {
				continue
			}
			res.Discrepancies = append(res.Discrepancies, models.Discrepancy{
				Field:      field,
				Claimed:    c,
				Verified:   v,
				Severity:   models.SeverityMedium,
				Difference: "missing on one side",
			})
			continue
		}

		o := compareField(field, c, v, opts)
		if o.match {
			res.Matches = append(res.Matches, models.Match{Field: field, LowConfidence: o.lowConfidence})
			continue
		}
		sev := o.severity
		if o.lowConfidence {
			sev = sev.AtLeast(models.SeverityMedium)
		}
		res.Discrepancies = append(res.Discrepancies, models.Discrepancy{
			Field:      field,
			Claimed:    c,
			Verified:   v,
			Severity:   sev,
			Difference: o.difference,
		})
	}
	return res
}

type outcome struct {
	match         bool
	severity      models.Severity
	difference    string
	lowConfidence bool
}

func compareField(field, rawC, rawV string, opts Options) outcome {
	c := normalize.Field(field, rawC)
	v := normalize.Field(field, rawV)

	if c.Unparsed || v.Unparsed {
		return outcome{severity: models.SeverityMedium, difference: "unparsed value"}
	}

	o := compareValues(c, v, opts)
	o.lowConfidence = c.LowConfidence || v.LowConfidence
	return o
}

func compareValues(c, v normalize.Value, opts Options) outcome {
	switch c.Kind {
	case normalize.KindName:
		return compareText(c.Text, v.Text, opts.FuzzyDistance, models.SeverityHigh)
	case normalize.KindDateRange:
		return compareRanges(c, v, opts)
	case normalize.KindDate:
		return compareDays(c, v, opts)
	case normalize.KindCurrency:
		return compareSalary(c, v, opts.Salary)
	case normalize.KindIdentifier:
		if c.Text == v.Text {
			return outcome{match: true}
		}
		return outcome{severity: models.SeverityHigh, difference: "identifier mismatch"}
	}
	return compareText(c.Text, v.Text, opts.FuzzyDistance, models.SeverityMedium)
}

func compareText(c, v string, fuzzy int, mismatch models.Severity) outcome {
	if c == v {
		return outcome{match: true}
	}
	d := levenshtein.ComputeDistance(c, v)
	if d <= fuzzy {
		return outcome{severity: models.SeverityLow, difference: fmt.Sprintf("edit distance %d", d)}
	}
	return outcome{severity: mismatch, difference: fmt.Sprintf("edit distance %d", d)}
}

func compareRanges(c, v normalize.Value, opts Options) outcome {
	if c.Open != v.Open {
		return outcome{severity: models.SeverityMedium, difference: "end date open on one side"}
	}
	startPay := normalize.PayrollDays(c.Start, v.Start)
	startCal := normalize.CalendarDays(c.Start, v.Start)
	endPay, endCal := 0, 0
	if !c.Open {
		endPay = normalize.PayrollDays(c.End, v.End)
		endCal = normalize.CalendarDays(c.End, v.End)
	}
	return gradeDays(max(startPay, endPay), max(startCal, endCal), opts)
}

func compareDays(c, v normalize.Value, opts Options) outcome {
	return gradeDays(normalize.PayrollDays(c.Start, v.Start), normalize.CalendarDays(c.Start, v.Start), opts)
}

func gradeDays(payroll, calendar int, opts Options) outcome {
	if calendar <= opts.DateToleranceDays || (opts.PayrollTolerance && payroll <= opts.DateToleranceDays) {
		return outcome{match: true}
	}
	diff := fmt.Sprintf("%d days", calendar)
	if calendar <= opts.MediumDateDays {
		return outcome{severity: models.SeverityMedium, difference: diff}
	}
	return outcome{severity: models.SeverityHigh, difference: diff}
}

var hundred = decimal.NewFromInt(100)

func compareSalary(c, v normalize.Value, bands SalaryBands) outcome {
	if c.Currency != v.Currency {
		return outcome{severity: models.SeverityMedium, difference: fmt.Sprintf("currency %s vs %s", c.Currency, v.Currency)}
	}
	hi := decimal.Max(c.Amount, v.Amount)
	if hi.IsZero() {
		return outcome{match: true}
	}
	delta := c.Amount.Sub(v.Amount).Abs()
	pct, _ := delta.Div(hi).Mul(hundred).Float64()
	diff := fmt.Sprintf("%s %s (%.1f%%)", delta.String(), c.Currency, pct)

	switch {
	case pct <= bands.Match:
		return outcome{match: true}
	case pct <= bands.Low:
		return outcome{severity: models.SeverityLow, difference: diff}
	case pct <= bands.Medium:
		return outcome{severity: models.SeverityMedium, difference: diff}
	}
	return outcome{severity: models.SeverityHigh, difference: diff}
}

func unionKeys(a, b models.FieldMap) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		seen[k] = struct{}{}
	}
	for k := range b {
		seen[k] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
