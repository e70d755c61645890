// Package scoring turns a discrepancy set, optionally blended with an
// external AI risk signal, into a 0-100 risk score.
package scoring

import (
	"math"
	"strings"

	"bgv/internal/comparison/models"
)

// Weights configures the base score and the AI blend.
type Weights struct {
	High   int `yaml:"high"`
	Medium int `yaml:"medium"`
	Low    int `yaml:"low"`

	// FullWeightCount is how many discrepancies of one severity count at full
	// weight. Each further one counts at half weight.
	FullWeightCount int `yaml:"full_weight_count"`

	// Anchors are the minimum base score once any discrepancy of that
	// severity exists.
	HighAnchor   int `yaml:"high_anchor"`
	MediumAnchor int `yaml:"medium_anchor"`

	// AIWeight is the share of the final score taken from the AI signal.
	AIWeight float64 `yaml:"ai_weight"`

	AIHighLevel   float64 `yaml:"ai_high_level"`
	AIMediumLevel float64 `yaml:"ai_medium_level"`
	AILowLevel    float64 `yaml:"ai_low_level"`
}

// DefaultWeights returns the default scoring weights.
func DefaultWeights() Weights {
	return Weights{
		High:            30,
		Medium:          15,
		Low:             5,
		FullWeightCount: 3,
		HighAnchor:      75,
		MediumAnchor:    45,
		AIWeight:        0.3,
		AIHighLevel:     90,
		AIMediumLevel:   55,
		AILowLevel:      15,
	}
}

// Score is the outcome of one scoring pass.
type Score struct {
	Base  int
	Final int
	// Degraded is set when no usable AI signal was available and Final is
	// the base score alone.
	Degraded bool
}

// Compute scores the discrepancies and blends in ai when it is usable.
func Compute(discrepancies []models.Discrepancy, ai *models.AIAnalysis, w Weights) Score {
	base := Base(discrepancies, w)
	final, ok := Blend(base, ai, w)
	return Score{Base: base, Final: final, Degraded: !ok}
}

// Base returns the weighted severity sum, anchored and clamped to [0,100].
func Base(discrepancies []models.Discrepancy, w Weights) int {
	counts := map[models.Severity]int{}
	var sum float64
	for _, d := range discrepancies {
		counts[d.Severity]++
		weight := float64(w.weightOf(d.Severity))
		if counts[d.Severity] > w.FullWeightCount {
			weight /= 2
		}
		sum += weight
	}

	score := int(math.Round(sum))
	if counts[models.SeverityHigh] > 0 {
		score = max(score, w.HighAnchor)
	}
	if counts[models.SeverityMedium] > 0 {
		score = max(score, w.MediumAnchor)
	}
	return Clamp(score)
}

// Blend mixes the base score with the AI signal. It reports false, and
// returns base unchanged, when ai is nil or carries an unknown risk level.
func Blend(base int, ai *models.AIAnalysis, w Weights) (int, bool) {
	if ai == nil {
		return Clamp(base), false
	}
	level, ok := w.levelOf(ai.RiskLevel)
	if !ok {
		return Clamp(base), false
	}
	conf := Confidence(ai.Confidence)
	aiScore := conf*level + (1-conf)*float64(base)
	final := (1-w.AIWeight)*float64(base) + w.AIWeight*aiScore
	return Clamp(int(math.Round(final))), true
}

// Confidence normalizes a confidence that may be given as a fraction or a
// percentage into [0,1].
func Confidence(c float64) float64 {
	if math.IsNaN(c) || c <= 0 {
		return 0
	}
	if c > 1 {
		c /= 100
	}
	return math.Min(c, 1)
}

// Clamp bounds a score to [0,100].
func Clamp(score int) int {
	return min(max(score, 0), 100)
}

func (w Weights) weightOf(s models.Severity) int {
	switch s {
	case models.SeverityHigh:
		return w.High
	case models.SeverityMedium:
		return w.Medium
	case models.SeverityLow:
		return w.Low
	}
	return 0
}

func (w Weights) levelOf(riskLevel string) (float64, bool) {
	switch strings.ToUpper(strings.TrimSpace(riskLevel)) {
	case "HIGH":
		return w.AIHighLevel, true
	case "MEDIUM":
		return w.AIMediumLevel, true
	case "LOW":
		return w.AILowLevel, true
	}
	return 0, false
}
