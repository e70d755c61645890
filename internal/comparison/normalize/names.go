package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Name case-folds and whitespace-collapses a person or company name. Common
// punctuation ("Pvt. Ltd." vs "Pvt Ltd") is removed before comparison.
func Name(raw string) Value {
	folded := fold(raw)
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return ' '
		}
		return r
	}, folded)
	return Value{Raw: raw, Kind: KindName, Text: collapseSpace(stripped)}
}

// fold applies NFKC then Unicode case folding. Casers are stateful, so one
// is created per call.
func fold(s string) string {
	return cases.Fold().String(norm.NFKC.String(s))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
