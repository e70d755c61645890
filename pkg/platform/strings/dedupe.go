// Package strings normalizes identifier lists supplied by callers.
package strings

import (
	"strings"
)

// Unique folds each value with fold, drops values that fold to empty and
// keeps the first occurrence of each folded value. Order is preserved.
// A nil fold only trims whitespace.
func Unique(values []string, fold func(string) string) []string {
	if len(values) == 0 {
		return values
	}
	if fold == nil {
		fold = strings.TrimSpace
	}

	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		f := fold(v)
		if f == "" {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

var identSeparators = strings.NewReplacer("-", "_", " ", "_", ".", "_")

// Identifier folds a snake_case identifier: trimmed, lower-cased, with
// hyphens, dots and inner spaces mapped to underscores.
func Identifier(s string) string {
	return identSeparators.Replace(strings.ToLower(strings.TrimSpace(s)))
}

// Identifiers is Unique with Identifier folding.
func Identifiers(values []string) []string {
	return Unique(values, Identifier)
}
