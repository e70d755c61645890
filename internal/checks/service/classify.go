package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bgv/internal/checks/models"
	"bgv/internal/checks/ports"
	"bgv/internal/checks/review"
	"bgv/internal/comparison"
	cmodels "bgv/internal/comparison/models"
	"bgv/internal/comparison/rules"
	id "bgv/pkg/domain"
	dErrors "bgv/pkg/domain-errors"
	"bgv/pkg/platform/audit"
	"bgv/pkg/requestcontext"
)

// ClassifyCommand is one classification request for a Check.
type ClassifyCommand struct {
	CheckID  id.CheckID
	Claimed  cmodels.FieldMap
	Verified cmodels.FieldMap
	// Policy is used only when the Check carries no policy snapshot.
	Policy  *models.ClientPolicy
	Context rules.Context
}

// ClassifyOutcome is the classified Check. Superseded is set when the
// original Check was closed and this result belongs to a new version.
type ClassifyOutcome struct {
	Check      *models.Check
	Result     cmodels.ComparisonResult
	Superseded *id.CheckID
}

// Classify compares claimed and verified data for one Check, records the
// result and rolls the Case's overall risk level forward.
func (s *Service) Classify(ctx context.Context, cmd ClassifyCommand) (*ClassifyOutcome, error) {
	out, err := s.classify(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if _, err := s.refreshCaseRisk(ctx, out.Check.CaseID); err != nil {
		s.logger.ErrorContext(ctx, "failed to update case risk level",
			"case_id", out.Check.CaseID,
			"check_id", out.Check.ID,
			"error", err,
		)
	}
	return out, nil
}

func (s *Service) classify(ctx context.Context, cmd ClassifyCommand) (*ClassifyOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "checks.classify",
		trace.WithAttributes(attribute.String("check.id", cmd.CheckID.String())))
	defer span.End()
	start := time.Now()

	unlock, err := s.locker.Lock(ctx, checkLockKey(cmd.CheckID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	check, err := s.store.FindByID(ctx, cmd.CheckID)
	if err != nil {
		return nil, translate(err, "check")
	}
	if check.State == models.StateClassifiedRed {
		return nil, dErrors.New(dErrors.CodeInvalidState, "check is awaiting review and cannot be reclassified")
	}

	policySnapshot := check.Policy
	if policySnapshot.SKU == "" && cmd.Policy != nil {
		policySnapshot = *cmd.Policy
	}
	policy, err := rules.ParseInstructions(policySnapshot.Instructions)
	if err != nil {
		s.fail(ctx, check, err.Error())
		return nil, err
	}

	if ok, apps := s.engine.Gate(policy, cmd.Context); !ok {
		return nil, dErrors.New(dErrors.CodePreconditionFailed, gateMessage(apps))
	}

	outcome := s.engine.Compare(comparison.Request{
		CheckType: check.Type,
		Claimed:   cmd.Claimed,
		Verified:  cmd.Verified,
		SKU:       policySnapshot.SKU,
		Policy:    policy,
		Context:   cmd.Context,
		AI:        s.fetchAI(ctx, check, cmd),
	})
	result := outcome.Result
	now := requestcontext.Now(ctx)

	target := check
	var superseded *id.CheckID
	if check.State.Closed() {
		target = check.NextVersion(id.NewCheckID(), now)
		superseded = &check.ID
	}
	next, err := review.Classify(target.State, result.Zone)
	if err != nil {
		return nil, err
	}
	target.State = next
	target.Result = &result
	target.UpdatedAt = now

	if superseded != nil {
		err = s.persistNewVersion(ctx, check, target, outcome)
	} else {
		err = s.store.RunInTx(ctx, func(ctx context.Context) error {
			if err := s.store.Update(ctx, target, target.Revision); err != nil {
				return err
			}
			return s.recordResult(ctx, target, outcome)
		})
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist classification")
		return nil, translate(err, "check")
	}

	s.cacheResult(ctx, target.ID, result)
	s.metrics.ObserveClassification(result.Zone.String(), result.RuleEvaluation.Degraded, time.Since(start))
	span.SetAttributes(
		attribute.String("check.zone", result.Zone.String()),
		attribute.Int("check.risk_score", result.Score()),
	)
	s.logger.InfoContext(ctx, "check classified",
		"check_id", target.ID,
		"case_id", target.CaseID,
		"zone", result.Zone,
		"risk_score", result.Score(),
		"state", target.State,
		"degraded", result.RuleEvaluation.Degraded,
		"request_id", requestcontext.RequestID(ctx),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &ClassifyOutcome{Check: target, Result: result, Superseded: superseded}, nil
}

// persistNewVersion stores the successor of a closed Check and swaps it into
// the Case in one transaction.
func (s *Service) persistNewVersion(ctx context.Context, old, next *models.Check, outcome comparison.Outcome) error {
	unlock, err := s.locker.Lock(ctx, caseLockKey(old.CaseID))
	if err != nil {
		return err
	}
	defer unlock()

	return s.store.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, next); err != nil {
			return err
		}
		c, err := s.store.FindCase(ctx, old.CaseID)
		if err != nil {
			return err
		}
		c.ReplaceCheck(old.ID, next.ID)
		c.UpdatedAt = next.UpdatedAt
		if err := s.store.UpdateCase(ctx, c, c.Revision); err != nil {
			return err
		}
		event := newEvent(ctx, audit.EventCheckSuperseded, old)
		event.Reason = "superseded by " + next.ID.String()
		if err := s.emit(ctx, event); err != nil {
			return err
		}
		return s.recordResult(ctx, next, outcome)
	})
}

// recordResult appends the result to history and emits its activity events.
func (s *Service) recordResult(ctx context.Context, check *models.Check, outcome comparison.Outcome) error {
	if err := s.store.AppendResult(ctx, check.ID, outcome.Result); err != nil {
		return err
	}

	action := audit.EventCheckClassified
	switch {
	case outcome.Blocked:
		action = audit.EventCheckBlocked
	case outcome.Result.Zone == cmodels.ZonePending:
		action = audit.EventCheckPending
	}
	event := newEvent(ctx, action, check)
	event.Reason = outcome.Result.Summary.Action
	if err := s.emit(ctx, event); err != nil {
		return err
	}

	if outcome.Escalated {
		escalated := newEvent(ctx, audit.EventCheckEscalated, check)
		escalated.Reason = outcome.Result.Summary.Details
		return s.emit(ctx, escalated)
	}
	return nil
}

// fail moves a Check to FAILED when its inputs can never be classified as given.
func (s *Service) fail(ctx context.Context, check *models.Check, reason string) {
	next, err := review.Transition(check.State, review.EventFail)
	if err != nil {
		return
	}
	check.State = next
	check.UpdatedAt = requestcontext.Now(ctx)
	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Update(ctx, check, check.Revision); err != nil {
			return err
		}
		event := newEvent(ctx, audit.EventCheckFailed, check)
		event.Reason = reason
		return s.emit(ctx, event)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to record check failure", "check_id", check.ID, "error", err)
		return
	}
	s.logger.WarnContext(ctx, "check failed", "check_id", check.ID, "reason", reason)
}

// fetchAI returns the AI signal, or nil when it is disabled, the breaker is
// open, or the call fails or times out.
func (s *Service) fetchAI(ctx context.Context, check *models.Check, cmd ClassifyCommand) *cmodels.AIAnalysis {
	if s.ai == nil || len(cmd.Claimed) == 0 || len(cmd.Verified) == 0 {
		return nil
	}
	if s.breaker != nil && !s.breaker.Allow() {
		s.logger.DebugContext(ctx, "AI breaker open, scoring on base score", "check_id", check.ID)
		return nil
	}

	ctx, span := s.tracer.Start(ctx, "checks.fetch_ai_signal")
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, s.aiTimeout)
	defer cancel()

	analysis, err := s.ai.Analyze(ctx, ports.AnalysisRequest{
		CheckID:   check.ID,
		CheckType: check.Type,
		Claimed:   cmd.Claimed,
		Verified:  cmd.Verified,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ai analysis failed")
		s.metrics.IncrementAIFailure()
		if s.breaker != nil {
			if _, change := s.breaker.RecordFailure(); change.Opened {
				s.metrics.SetAIBreakerOpen(true)
				s.logger.WarnContext(ctx, "AI breaker opened", "breaker", s.breaker.Name())
			}
		}
		s.logger.WarnContext(ctx, "AI analysis unavailable, scoring on base score",
			"check_id", check.ID,
			"error", err,
		)
		event := newEvent(ctx, audit.EventAIAnalysisFailed, check)
		event.Reason = err.Error()
		s.emitBestEffort(context.WithoutCancel(ctx), event)
		return nil
	}
	if s.breaker != nil {
		if _, change := s.breaker.RecordSuccess(); change.Closed {
			s.metrics.SetAIBreakerOpen(false)
			s.logger.InfoContext(ctx, "AI breaker closed", "breaker", s.breaker.Name())
		}
	}
	return analysis
}

func gateMessage(apps []cmodels.RuleApplication) string {
	var failing []string
	for _, app := range apps {
		if !app.Passed {
			failing = append(failing, fmt.Sprintf("%s (expected %s, got %s)", app.Name, app.Expected, app.Actual))
		}
	}
	return "classification gated by client policy: " + strings.Join(failing, "; ")
}
