// Package normalize canonicalizes raw claimed and verified field values into
// comparable forms. Values it cannot parse are passed through with Unparsed
// set so downstream severity logic treats them conservatively.
package normalize

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bgv/internal/comparison/models"
)

// Kind selects the comparison grammar for a field.
type Kind int

const (
	KindText Kind = iota
	KindName
	KindDateRange
	KindDate
	KindCurrency
	KindIdentifier
)

func (k Kind) String() string {
	switch k {
	case KindName:
		return "name"
	case KindDateRange:
		return "date_range"
	case KindDate:
		return "date"
	case KindCurrency:
		return "currency"
	case KindIdentifier:
		return "identifier"
	}
	return "text"
}

// KindOf maps a field name to its grammar. Unknown fields are free text.
func KindOf(field string) Kind {
	switch field {
	case models.FieldName, models.FieldCompany:
		return KindName
	case models.FieldTenure, models.FieldEmploymentDate:
		return KindDateRange
	case models.FieldDateOfJoining, models.FieldDateOfLeaving:
		return KindDate
	case models.FieldSalary:
		return KindCurrency
	case models.FieldUAN, models.FieldUANNumber:
		return KindIdentifier
	}
	return KindText
}

// Value is a normalized field value. Raw keeps the original for display.
type Value struct {
	Raw  string
	Kind Kind

	// Text is the folded form used for equality of names, identifiers and free text.
	Text string

	// Start and End are set for dates and date ranges. An open-ended range
	// ("present") has a zero End and Open set.
	Start time.Time
	End   time.Time
	Open  bool

	Amount   decimal.Decimal
	Currency string

	// Unparsed is set when the raw value did not fit the field's grammar.
	Unparsed bool
	// LowConfidence is set when a free-text fallback grammar was used.
	LowConfidence bool
}

// Present reports whether the raw value carries any content.
func Present(raw string) bool {
	return strings.TrimSpace(raw) != ""
}

// Field normalizes the raw value of a named field.
func Field(field, raw string) Value {
	return As(KindOf(field), raw)
}

// As normalizes raw under an explicit grammar.
func As(kind Kind, raw string) Value {
	switch kind {
	case KindName:
		return Name(raw)
	case KindDateRange:
		return DateRange(raw)
	case KindDate:
		return Date(raw)
	case KindCurrency:
		return Currency(raw)
	case KindIdentifier:
		return Identifier(raw)
	}
	return Text(raw)
}

// Text folds free text the same way names are folded but keeps punctuation.
func Text(raw string) Value {
	return Value{Raw: raw, Kind: KindText, Text: collapseSpace(fold(raw))}
}

// Identifier normalizes identifiers such as UAN numbers: whitespace and
// hyphen separators are dropped and letters upper-cased. No fuzzy matching.
func Identifier(raw string) Value {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '-':
			return -1
		}
		return r
	}, raw)
	return Value{Raw: raw, Kind: KindIdentifier, Text: strings.ToUpper(cleaned)}
}
