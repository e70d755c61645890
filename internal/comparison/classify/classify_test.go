package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bgv/internal/comparison/models"
	"bgv/internal/comparison/rules"
)

func TestClassify_Bands(t *testing.T) {
	b := DefaultBands()
	tests := []struct {
		name     string
		score    int
		hasHigh  bool
		zone     models.Zone
		priority models.Priority
	}{
		{"clean", 0, false, models.ZoneGreen, models.PriorityLow},
		{"at yellow edge", 40, false, models.ZoneGreen, models.PriorityLow},
		{"just above yellow edge", 41, false, models.ZoneYellow, models.PriorityMedium},
		{"at red edge", 70, false, models.ZoneYellow, models.PriorityMedium},
		{"just above red edge", 71, false, models.ZoneRed, models.PriorityMedium},
		{"at high priority edge", 85, false, models.ZoneRed, models.PriorityMedium},
		{"high priority", 86, false, models.ZoneRed, models.PriorityHigh},
		{"HIGH discrepancy never GREEN", 10, true, models.ZoneYellow, models.PriorityMedium},
		{"HIGH discrepancy with red score", 75, true, models.ZoneRed, models.PriorityMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Classify(tt.score, tt.hasHigh, rules.Evaluation{}, b)
			assert.Equal(t, tt.zone, d.Zone)
			assert.Equal(t, tt.priority, d.Priority)
			assert.False(t, d.ForcedRed)
		})
	}
}

func TestClassify_ForcedRedWins(t *testing.T) {
	d := Classify(0, false, rules.Evaluation{ForceRed: true, Escalate: true}, DefaultBands())
	assert.Equal(t, models.ZoneRed, d.Zone)
	assert.Equal(t, models.PriorityHigh, d.Priority)
	assert.True(t, d.ForcedRed)
	assert.True(t, d.Escalated)
}

func TestClassify_IndeterminateFailsSafe(t *testing.T) {
	d := Classify(0, false, rules.Evaluation{AtLeastYellow: true}, DefaultBands())
	assert.Equal(t, models.ZoneYellow, d.Zone)

	d = Classify(90, false, rules.Evaluation{AtLeastYellow: true}, DefaultBands())
	assert.Equal(t, models.ZoneRed, d.Zone, "floor never lowers a zone")
}

func TestClassify_EscalateOnlyTagsRed(t *testing.T) {
	ev := rules.Evaluation{Escalate: true}
	for _, score := range []int{0, 50, 75, 100} {
		with := Classify(score, false, ev, DefaultBands())
		without := Classify(score, false, rules.Evaluation{}, DefaultBands())
		assert.Equal(t, without.Zone, with.Zone)
		assert.Equal(t, with.Zone == models.ZoneRed, with.Escalated)
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		decision Decision
		status   string
		action   string
	}{
		{Decision{Zone: models.ZoneGreen}, models.StatusApproved, models.ActionAutoApprove},
		{Decision{Zone: models.ZoneYellow}, models.StatusApprovedWithNotes, models.ActionFollowUp},
		{Decision{Zone: models.ZoneRed}, models.StatusRequiresReview, models.ActionManualReview},
		{Decision{Zone: models.ZoneRed, Escalated: true}, models.StatusRequiresReview, models.ActionEscalateCSE},
	}
	for _, tt := range tests {
		t.Run(tt.decision.Zone.String()+"/"+tt.action, func(t *testing.T) {
			s := Summarize(tt.decision, 0, nil, 100, nil)
			assert.Equal(t, tt.status, s.Status)
			assert.Equal(t, tt.action, s.Action)
			assert.NotEmpty(t, s.Message)
		})
	}

	s := Summarize(Decision{Zone: models.ZoneRed, ForcedRed: true, Escalated: true}, 20, []models.Discrepancy{{Severity: models.SeverityHigh}}, 50, []string{rules.CompanyNotFoundSLA})
	assert.Contains(t, s.Details, "1 discrepancies (1 high, 0 medium, 0 low)")
	assert.Contains(t, s.Details, rules.CompanyNotFoundSLA)
}

func TestPendingSummary(t *testing.T) {
	s := PendingSummary("verified data missing")
	assert.Equal(t, models.StatusPending, s.Status)
	assert.Equal(t, models.ActionAwaitData, s.Action)
}
