package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bgv/internal/comparison/models"
)

func discs(sev ...models.Severity) []models.Discrepancy {
	out := make([]models.Discrepancy, 0, len(sev))
	for i, s := range sev {
		out = append(out, models.Discrepancy{Field: string(rune('a' + i)), Severity: s})
	}
	return out
}

func TestBase(t *testing.T) {
	w := DefaultWeights()
	low, med, high := models.SeverityLow, models.SeverityMedium, models.SeverityHigh

	tests := []struct {
		name string
		in   []models.Discrepancy
		want int
	}{
		{"no discrepancies", nil, 0},
		{"single low", discs(low), 5},
		{"three lows", discs(low, low, low), 15},
		{"fourth low counts half", discs(low, low, low, low), 18},
		{"single medium anchored", discs(med), 45},
		{"medium plus lows", discs(med, low, low), 45},
		{"four mediums", discs(med, med, med, med), 53},
		{"single high anchored", discs(high), 75},
		{"two highs", discs(high, high), 75},
		{"three highs", discs(high, high, high), 90},
		{"capped", discs(high, high, high, high, high), 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Base(tt.in, w))
		})
	}
}

func TestBlend(t *testing.T) {
	w := DefaultWeights()

	t.Run("absent signal is degraded", func(t *testing.T) {
		score, ok := Blend(45, nil, w)
		assert.False(t, ok)
		assert.Equal(t, 45, score)
	})

	t.Run("unknown risk level is degraded", func(t *testing.T) {
		score, ok := Blend(45, &models.AIAnalysis{RiskLevel: "SEVERE", Confidence: 1}, w)
		assert.False(t, ok)
		assert.Equal(t, 45, score)
	})

	t.Run("full confidence high", func(t *testing.T) {
		score, ok := Blend(0, &models.AIAnalysis{RiskLevel: "HIGH", Confidence: 1}, w)
		assert.True(t, ok)
		assert.Equal(t, 27, score)
	})

	t.Run("zero confidence leaves base", func(t *testing.T) {
		score, ok := Blend(60, &models.AIAnalysis{RiskLevel: "low", Confidence: 0}, w)
		assert.True(t, ok)
		assert.Equal(t, 60, score)
	})

	t.Run("percentage confidence", func(t *testing.T) {
		fraction, _ := Blend(40, &models.AIAnalysis{RiskLevel: "MEDIUM", Confidence: 0.8}, w)
		percent, _ := Blend(40, &models.AIAnalysis{RiskLevel: "MEDIUM", Confidence: 80}, w)
		assert.Equal(t, fraction, percent)
	})
}

func TestCompute_AlwaysInRange(t *testing.T) {
	w := DefaultWeights()
	levels := []string{"HIGH", "MEDIUM", "LOW", ""}
	for n := 0; n < 12; n++ {
		sev := make([]models.Severity, n)
		for i := range sev {
			sev[i] = models.Severity(i%3 + 1)
		}
		for _, lvl := range levels {
			for _, conf := range []float64{-1, 0, 0.5, 1, 250} {
				s := Compute(discs(sev...), &models.AIAnalysis{RiskLevel: lvl, Confidence: conf}, w)
				assert.GreaterOrEqual(t, s.Final, 0)
				assert.LessOrEqual(t, s.Final, 100)
				assert.Equal(t, lvl == "", s.Degraded)
			}
		}
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-5))
	assert.Equal(t, 100, Clamp(140))
	assert.Equal(t, 55, Clamp(55))
}
