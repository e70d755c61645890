package normalize

import (
	"regexp"
	"strings"
	"time"
)

const isoDate = "2006-01-02"

// primaryRange is the canonical grammar: "YYYY-MM-DD to YYYY-MM-DD".
var primaryRange = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\s+to\s+(\d{4}-\d{2}-\d{2}|present|current|till date)$`)

// rangeSeparators are tried in order by the free-text fallback.
var rangeSeparators = []string{" to ", " till ", " until ", " - ", " – ", " — ", "–", "—"}

// fallbackLayouts are accepted with low confidence. Month-only layouts resolve
// to the first day of the month.
var fallbackLayouts = []string{
	isoDate,
	"02/01/2006",
	"02-01-2006",
	"2/1/2006",
	"02.01.2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
	"Jan 2006",
	"January 2006",
	"01/2006",
	"2006-01",
}

var openEnded = map[string]bool{
	"present":   true,
	"current":   true,
	"till date": true,
	"now":       true,
	"ongoing":   true,
}

// DateRange parses an employment period.
func DateRange(raw string) Value {
	v := Value{Raw: raw, Kind: KindDateRange}
	s := strings.ToLower(collapseSpace(raw))

	if m := primaryRange.FindStringSubmatch(s); m != nil {
		start, err := time.Parse(isoDate, m[1])
		if err != nil {
			v.Unparsed = true
			return v
		}
		v.Start = start
		if openEnded[m[2]] {
			v.Open = true
			return v
		}
		end, err := time.Parse(isoDate, m[2])
		if err != nil || end.Before(start) {
			v.Unparsed = true
			return v
		}
		v.End = end
		return v
	}

	for _, sep := range rangeSeparators {
		left, right, ok := strings.Cut(s, sep)
		if !ok {
			continue
		}
		start, okStart := parseLoose(strings.TrimSpace(left))
		if !okStart {
			continue
		}
		right = strings.TrimSpace(right)
		v.Start = start
		v.LowConfidence = true
		if openEnded[right] {
			v.Open = true
			return v
		}
		end, okEnd := parseLoose(right)
		if !okEnd || end.Before(start) {
			continue
		}
		v.End = end
		return v
	}

	return Value{Raw: raw, Kind: KindDateRange, Unparsed: true}
}

// Date parses a single date such as a date of joining.
func Date(raw string) Value {
	v := Value{Raw: raw, Kind: KindDate}
	s := collapseSpace(raw)
	if t, err := time.Parse(isoDate, s); err == nil {
		v.Start = t
		return v
	}
	if t, ok := parseLoose(s); ok {
		v.Start = t
		v.LowConfidence = true
		return v
	}
	v.Unparsed = true
	return v
}

func parseLoose(s string) (time.Time, bool) {
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, titleMonth(strings.ToLower(s))); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// titleMonth restores the capitalisation time.Parse expects for month names
// after the input was lower-cased.
func titleMonth(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if len(w) >= 3 && w[0] >= 'a' && w[0] <= 'z' {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// PayrollDays returns the difference b-a in 30/360 payroll days, the unit PF
// and UAN month records are kept in. The result is always non-negative.
func PayrollDays(a, b time.Time) int {
	if b.Before(a) {
		a, b = b, a
	}
	d1, d2 := a.Day(), b.Day()
	if d1 == 31 {
		d1 = 30
	}
	if d2 == 31 && d1 == 30 {
		d2 = 30
	}
	return 360*(b.Year()-a.Year()) + 30*(int(b.Month())-int(a.Month())) + (d2 - d1)
}

// CalendarDays returns the absolute difference in calendar days.
func CalendarDays(a, b time.Time) int {
	d := b.Sub(a)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}
