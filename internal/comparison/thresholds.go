package comparison

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"bgv/internal/comparison/classify"
	"bgv/internal/comparison/detect"
	"bgv/internal/comparison/rules"
	"bgv/internal/comparison/scoring"
	dErrors "bgv/pkg/domain-errors"
)

// Thresholds collects every tunable number of the engine. Defaults are the
// reconstructed production values; a YAML file may override any subset.
type Thresholds struct {
	Detection detect.Options  `yaml:"detection"`
	Weights   scoring.Weights `yaml:"weights"`
	Bands     classify.Bands  `yaml:"bands"`
	Limits    rules.Limits    `yaml:"limits"`
}

// DefaultThresholds returns the engine defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Detection: detect.DefaultOptions(),
		Weights:   scoring.DefaultWeights(),
		Bands:     classify.DefaultBands(),
		Limits:    rules.DefaultLimits(),
	}
}

// LoadThresholds reads a YAML override file on top of the defaults.
func LoadThresholds(path string) (Thresholds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Thresholds{}, fmt.Errorf("read engine config: %w", err)
	}
	return ParseThresholds(data)
}

// ParseThresholds decodes YAML overrides on top of the defaults and validates
// the result.
func ParseThresholds(data []byte) (Thresholds, error) {
	t := DefaultThresholds()
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Thresholds{}, dErrors.Wrap(err, dErrors.CodeValidation, "invalid engine config")
	}
	if err := t.Validate(); err != nil {
		return Thresholds{}, err
	}
	return t, nil
}

// Validate rejects threshold sets that would break the score or band invariants.
func (t Thresholds) Validate() error {
	var problems []string
	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	d := t.Detection
	check(d.DateToleranceDays >= 0, "detection.date_tolerance_days must be >= 0")
	check(d.MediumDateDays >= d.DateToleranceDays, "detection.medium_date_days must be >= date_tolerance_days")
	check(d.FuzzyDistance >= 0, "detection.fuzzy_distance must be >= 0")
	check(0 <= d.Salary.Match && d.Salary.Match <= d.Salary.Low && d.Salary.Low <= d.Salary.Medium,
		"detection.salary bands must be ascending and non-negative")

	w := t.Weights
	check(w.High >= 0 && w.Medium >= 0 && w.Low >= 0, "weights must be non-negative")
	check(w.FullWeightCount >= 0, "weights.full_weight_count must be >= 0")
	check(w.AIWeight >= 0 && w.AIWeight <= 1, "weights.ai_weight must be within [0,1]")

	b := t.Bands
	check(0 <= b.YellowAbove && b.YellowAbove < b.RedAbove && b.RedAbove <= 100,
		"bands must satisfy 0 <= yellow_above < red_above <= 100")
	check(b.HighPriorityAbove >= b.RedAbove, "bands.high_priority_above must be >= red_above")

	l := t.Limits
	check(l.MinFollowUps >= 0 && l.MinHRAttempts >= 0 && l.PFMonths >= 0 && l.UANToleranceDays >= 0,
		"limits must be non-negative")

	if len(problems) > 0 {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("invalid engine config: %v", problems))
	}
	return nil
}
