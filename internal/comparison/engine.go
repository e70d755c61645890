// Package comparison is the classification pipeline: normalize, detect,
// score, evaluate client rules and classify. Compare is pure and safe for
// concurrent use; it performs no I/O.
package comparison

import (
	"time"

	"bgv/internal/comparison/classify"
	"bgv/internal/comparison/detect"
	"bgv/internal/comparison/models"
	"bgv/internal/comparison/normalize"
	"bgv/internal/comparison/rules"
	"bgv/internal/comparison/scoring"
)

// Request is one classification input. AI is nil when the AI signal is
// unavailable or its fetch failed.
type Request struct {
	CheckType models.CheckType
	Claimed   models.FieldMap
	Verified  models.FieldMap
	SKU       models.SKU
	Policy    rules.Policy
	Context   rules.Context
	AI        *models.AIAnalysis
}

// Outcome wraps the result with the flags callers need to drive the Check
// lifecycle.
type Outcome struct {
	Result models.ComparisonResult
	// MissingData is set when claimed or verified data was absent.
	MissingData bool
	// Blocked is set when a client rule held the Check at PENDING.
	Blocked   bool
	ForcedRed bool
	Escalated bool
}

// Engine runs the pipeline with a fixed set of thresholds.
type Engine struct {
	thresholds Thresholds
	now        func() time.Time
}

type Option func(*Engine)

// WithThresholds replaces the default thresholds.
func WithThresholds(t Thresholds) Option {
	return func(e *Engine) {
		e.thresholds = t
	}
}

// WithClock sets the clock used for ComparedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		thresholds: DefaultThresholds(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Thresholds returns the engine's thresholds.
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Gate reports whether the policy's follow-up gates allow classification.
func (e *Engine) Gate(p rules.Policy, c rules.Context) (bool, []models.RuleApplication) {
	return p.Gate(c, e.thresholds.Limits)
}

// Compare classifies one Check.
func (e *Engine) Compare(req Request) Outcome {
	now := e.now().UTC()

	if !hasData(req.Claimed) || !hasData(req.Verified) {
		return Outcome{
			MissingData: true,
			Result: models.ComparisonResult{
				Zone:           models.ZonePending,
				Discrepancies:  []models.Discrepancy{},
				Matches:        []models.Match{},
				MatchRate:      models.MatchRate(0, 0),
				RuleEvaluation: models.RuleEvaluation{RulesApplied: []models.RuleApplication{}, ClientSKU: req.SKU},
				Summary:        classify.PendingSummary(missingReason(req)),
				ComparedAt:     now,
			},
		}
	}

	t := e.thresholds
	opts := t.Detection
	opts.Optional = detect.OptionalFields[req.CheckType]
	opts = req.Policy.Adjust(req.Context, t.Limits, opts)

	det := detect.Detect(req.Claimed, req.Verified, opts)
	score := scoring.Compute(det.Discrepancies, req.AI, t.Weights)
	hasHigh := hasSeverity(det.Discrepancies, models.SeverityHigh)

	ev := req.Policy.Evaluate(rules.Input{
		CheckType:     req.CheckType,
		Discrepancies: det.Discrepancies,
		Context:       req.Context,
		ScoreZone:     classify.ScoreZone(score.Final, hasHigh, t.Bands),
		Limits:        t.Limits,
	})

	result := models.ComparisonResult{
		Discrepancies: det.Discrepancies,
		Matches:       det.Matches,
		MatchRate:     models.MatchRate(len(det.Matches), len(det.Discrepancies)),
		RuleEvaluation: models.RuleEvaluation{
			RulesApplied: ev.Applied,
			ClientSKU:    req.SKU,
			Degraded:     score.Degraded,
			Annotations:  ev.Annotations,
		},
		AIAnalysis: req.AI,
		ComparedAt: now,
	}

	if ev.Blocked {
		result.Zone = models.ZonePending
		result.Summary = classify.PendingSummary("Blocked by client policy: required document missing")
		return Outcome{Result: result, Blocked: true}
	}

	d := classify.Classify(score.Final, hasHigh, ev, t.Bands)
	final := score.Final
	result.Zone = d.Zone
	result.RiskScore = &final
	result.Priority = d.Priority
	result.Summary = classify.Summarize(d, final, det.Discrepancies, result.MatchRate, ev.Annotations)

	return Outcome{Result: result, ForcedRed: d.ForcedRed, Escalated: d.Escalated}
}

func hasData(fields models.FieldMap) bool {
	for _, v := range fields {
		if normalize.Present(v) {
			return true
		}
	}
	return false
}

func hasSeverity(discrepancies []models.Discrepancy, s models.Severity) bool {
	for _, d := range discrepancies {
		if d.Severity == s {
			return true
		}
	}
	return false
}

func missingReason(req Request) string {
	switch {
	case !hasData(req.Claimed) && !hasData(req.Verified):
		return "Claimed and verified data are missing"
	case !hasData(req.Claimed):
		return "Claimed data is missing"
	}
	return "Verified data is missing"
}
