package rules

import (
	"bgv/internal/comparison/detect"
	"bgv/internal/comparison/models"
)

// Evaluation folds the outcomes of every selected rule.
type Evaluation struct {
	Applied []models.RuleApplication

	ForceRed      bool
	Escalate      bool
	Blocked       bool
	AtLeastYellow bool
	GateClosed    bool
	Indeterminate bool

	Annotations []string
}

// Adjust returns opts tuned by the detection-phase rules of the policy.
// The passed options are not modified.
func (p Policy) Adjust(c Context, limits Limits, opts detect.Options) detect.Options {
	for _, r := range p.rules {
		if a, ok := r.(Adjuster); ok {
			a.adjust(c, limits, &opts)
		}
	}
	return opts
}

// Evaluate runs every selected rule and records each one, whether or not it
// changed the outcome.
func (p Policy) Evaluate(in Input) Evaluation {
	ev := Evaluation{Applied: make([]models.RuleApplication, 0, len(p.rules))}
	for _, r := range p.rules {
		out := r.evaluate(in)
		ev.Applied = append(ev.Applied, out.Application)
		ev.Indeterminate = ev.Indeterminate || out.Application.Indeterminate

		e := out.Effect
		ev.ForceRed = ev.ForceRed || e.ForceRed
		ev.Escalate = ev.Escalate || e.Escalate
		ev.Blocked = ev.Blocked || e.Block
		ev.AtLeastYellow = ev.AtLeastYellow || e.AtLeastYellow
		ev.GateClosed = ev.GateClosed || e.GateClosed
		if e.Annotation != "" {
			ev.Annotations = append(ev.Annotations, e.Annotation)
		}
	}
	return ev
}

// Gate reports whether the policy's gate rules allow classification given c.
// The returned applications describe each gate checked.
func (p Policy) Gate(c Context, limits Limits) (bool, []models.RuleApplication) {
	open := true
	var apps []models.RuleApplication
	for _, r := range p.rules {
		if r.Phase() != PhaseGate {
			continue
		}
		out := r.evaluate(Input{Context: c, Limits: limits})
		apps = append(apps, out.Application)
		if out.Effect.GateClosed {
			open = false
		}
	}
	return open, apps
}
