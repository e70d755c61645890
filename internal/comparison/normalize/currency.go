package normalize

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// DefaultCurrency applies when a salary carries no currency marker.
const DefaultCurrency = "INR"

var currencyMarkers = []struct {
	marker string
	code   string
}{
	{"inr", "INR"},
	{"rs.", "INR"},
	{"rs", "INR"},
	{"₹", "INR"},
	{"usd", "USD"},
	{"us$", "USD"},
	{"$", "USD"},
	{"eur", "EUR"},
	{"€", "EUR"},
	{"gbp", "GBP"},
	{"£", "GBP"},
	{"aed", "AED"},
	{"sgd", "SGD"},
}

// Multipliers for Indian and shorthand notations.
var multipliers = []struct {
	suffix string
	factor int64
}{
	{"lpa", 100000},
	{"lakhs", 100000},
	{"lakh", 100000},
	{"lac", 100000},
	{"crore", 10000000},
	{"cr", 10000000},
	{"k", 1000},
}

// Currency strips symbols and locale separators into an amount and ISO code.
// "₹ 5,00,000/-" and "500000 INR" both normalize to 500000 INR.
func Currency(raw string) Value {
	v := Value{Raw: raw, Kind: KindCurrency, Currency: DefaultCurrency}
	s := strings.ToLower(strings.TrimSpace(raw))

	for _, cm := range currencyMarkers {
		if strings.Contains(s, cm.marker) {
			v.Currency = cm.code
			s = strings.ReplaceAll(s, cm.marker, "")
			break
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "/-")
	s = strings.TrimSuffix(strings.TrimSpace(s), "per annum")
	s = strings.TrimSuffix(strings.TrimSpace(s), "p.a.")
	s = strings.TrimSpace(s)

	factor := int64(1)
	for _, m := range multipliers {
		if strings.HasSuffix(s, m.suffix) {
			factor = m.factor
			s = strings.TrimSpace(strings.TrimSuffix(s, m.suffix))
			break
		}
	}

	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == ',' || r == '_' || unicode.IsSpace(r):
			return -1
		}
		return r
	}, s)

	amount, err := decimal.NewFromString(cleaned)
	if err != nil || cleaned == "" || amount.IsNegative() {
		return Value{Raw: raw, Kind: KindCurrency, Unparsed: true}
	}
	v.Amount = amount.Mul(decimal.NewFromInt(factor))
	v.Text = v.Amount.String() + " " + v.Currency
	return v
}
