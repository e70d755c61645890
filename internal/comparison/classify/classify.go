// Package classify turns a final score and a rule evaluation into a zone,
// a priority and the human-facing summary.
package classify

import (
	"fmt"
	"strings"

	"bgv/internal/comparison/models"
	"bgv/internal/comparison/rules"
)

// Bands are the score band edges. Both comparisons are strict: a score of
// exactly RedAbove is YELLOW and exactly YellowAbove is GREEN.
type Bands struct {
	RedAbove          int `yaml:"red_above"`
	YellowAbove       int `yaml:"yellow_above"`
	HighPriorityAbove int `yaml:"high_priority_above"`
}

// DefaultBands returns the 40/70 bands with high priority above 85.
func DefaultBands() Bands {
	return Bands{RedAbove: 70, YellowAbove: 40, HighPriorityAbove: 85}
}

// Decision is the classifier output.
type Decision struct {
	Zone      models.Zone
	Priority  models.Priority
	ForcedRed bool
	Escalated bool
}

// ScoreZone is the zone implied by the score and discrepancy severities alone,
// before client rules are applied.
func ScoreZone(score int, hasHigh bool, b Bands) models.Zone {
	switch {
	case score > b.RedAbove:
		return models.ZoneRed
	case score > b.YellowAbove:
		return models.ZoneYellow
	case hasHigh:
		return models.ZoneYellow
	}
	return models.ZoneGreen
}

// Classify applies the decision order: forced RED first, then the score
// bands with the HIGH-severity floor, then fail-safe floors from rules.
// Blocked evaluations are the caller's concern and never reach here.
func Classify(score int, hasHigh bool, ev rules.Evaluation, b Bands) Decision {
	if ev.ForceRed {
		return Decision{Zone: models.ZoneRed, Priority: models.PriorityHigh, ForcedRed: true, Escalated: true}
	}

	zone := ScoreZone(score, hasHigh, b)
	if ev.AtLeastYellow && zone == models.ZoneGreen {
		zone = models.ZoneYellow
	}

	return Decision{
		Zone:      zone,
		Priority:  priority(zone, score, b),
		Escalated: ev.Escalate && zone == models.ZoneRed,
	}
}

func priority(z models.Zone, score int, b Bands) models.Priority {
	redPriority := models.PriorityMedium
	if score > b.HighPriorityAbove {
		redPriority = models.PriorityHigh
	}
	return models.FoldZone(z, models.PriorityNone, models.PriorityLow, models.PriorityMedium, redPriority)
}

// Summarize builds the summary block of a classified result.
func Summarize(d Decision, score int, discrepancies []models.Discrepancy, matchRate float64, annotations []string) models.Summary {
	counts := severityCounts(discrepancies)
	details := fmt.Sprintf("Risk score %d, match rate %.2f%%, %s.", score, matchRate, counts)
	if len(annotations) > 0 {
		details += " " + strings.Join(annotations, "; ") + "."
	}

	redAction := models.ActionManualReview
	redMessage := "Significant discrepancies found; manual review required"
	if d.Escalated {
		redAction = models.ActionEscalateCSE
		redMessage = "Escalated to CSE for manual review"
	}
	if d.ForcedRed {
		redMessage = "Client policy requires escalation to CSE"
	}

	return models.Summary{
		Message: models.FoldZone(d.Zone,
			"Awaiting data",
			"Claimed and verified data agree",
			"Minor discrepancies noted; approved with notes",
			redMessage),
		Status: models.FoldZone(d.Zone,
			models.StatusPending,
			models.StatusApproved,
			models.StatusApprovedWithNotes,
			models.StatusRequiresReview),
		Action: models.FoldZone(d.Zone,
			models.ActionAwaitData,
			models.ActionAutoApprove,
			models.ActionFollowUp,
			redAction),
		Details: details,
	}
}

// PendingSummary is the summary of a result that could not be classified.
func PendingSummary(reason string) models.Summary {
	return models.Summary{
		Message: "Awaiting data",
		Status:  models.StatusPending,
		Details: reason,
		Action:  models.ActionAwaitData,
	}
}

func severityCounts(discrepancies []models.Discrepancy) string {
	if len(discrepancies) == 0 {
		return "no discrepancies"
	}
	var high, medium, low int
	for _, d := range discrepancies {
		switch d.Severity {
		case models.SeverityHigh:
			high++
		case models.SeverityMedium:
			medium++
		case models.SeverityLow:
			low++
		}
	}
	return fmt.Sprintf("%d discrepancies (%d high, %d medium, %d low)", len(discrepancies), high, medium, low)
}
