package service

import (
	"context"
	"strings"

	"bgv/internal/checks/models"
	"bgv/internal/checks/review"
	id "bgv/pkg/domain"
	dErrors "bgv/pkg/domain-errors"
	"bgv/pkg/platform/audit"
	"bgv/pkg/requestcontext"
)

// ReviewCommand is a supervisor's decision on a RED Check.
type ReviewCommand struct {
	CheckID    id.CheckID
	Decision   models.Decision
	Notes      string
	ReviewedBy string
}

// Review applies a decision to a CLASSIFIED_RED Check. Exactly one decision
// is accepted per Check: a second attempt fails with CodeConflict and a
// decision on a Check that is not awaiting review fails with
// CodeInvalidState. Neither mutates the Check.
func (s *Service) Review(ctx context.Context, cmd ReviewCommand) (*models.Check, error) {
	unlock, err := s.locker.Lock(ctx, checkLockKey(cmd.CheckID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	check, err := s.store.FindByID(ctx, cmd.CheckID)
	if err != nil {
		return nil, translate(err, "check")
	}

	if check.Review == nil && check.State != models.StateClassifiedRed {
		err := dErrors.New(dErrors.CodeInvalidState, "only checks classified RED can be reviewed; state is "+check.State.String())
		s.rejectReview(ctx, check, cmd, err)
		return nil, err
	}
	next, err := review.Decide(check.State, cmd.Decision)
	if err != nil {
		s.rejectReview(ctx, check, cmd, err)
		return nil, err
	}

	reviewer := strings.TrimSpace(cmd.ReviewedBy)
	if reviewer == "" {
		reviewer = requestcontext.Actor(ctx)
	}
	decision := models.ReviewDecision{
		CheckID:    check.ID,
		Decision:   cmd.Decision,
		Notes:      strings.TrimSpace(cmd.Notes),
		ReviewedBy: reviewer,
		Timestamp:  requestcontext.Now(ctx),
	}
	check.State = next
	check.Review = &decision
	check.UpdatedAt = decision.Timestamp

	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Update(ctx, check, check.Revision); err != nil {
			return err
		}
		if err := s.store.AppendReview(ctx, decision); err != nil {
			return err
		}
		event := newEvent(ctx, audit.EventReviewDecided, check)
		event.Actor = reviewer
		event.Decision = string(decision.Decision)
		event.Reason = decision.Notes
		return s.emit(ctx, event)
	})
	if err != nil {
		err = translate(err, "check")
		s.rejectReview(ctx, check, cmd, err)
		return nil, err
	}

	s.metrics.IncrementReview(string(cmd.Decision), "accepted")
	s.logger.InfoContext(ctx, "review decision recorded",
		"check_id", check.ID,
		"decision", decision.Decision,
		"state", check.State,
		"reviewed_by", reviewer,
		"client_ip", requestcontext.ClientIP(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)

	if _, err := s.refreshCaseRisk(ctx, check.CaseID); err != nil {
		s.logger.ErrorContext(ctx, "failed to update case risk level",
			"case_id", check.CaseID,
			"check_id", check.ID,
			"error", err,
		)
	}
	return check, nil
}

func (s *Service) rejectReview(ctx context.Context, check *models.Check, cmd ReviewCommand, cause error) {
	s.metrics.IncrementReview(string(cmd.Decision), "rejected")
	s.logger.InfoContext(ctx, "review decision rejected",
		"check_id", check.ID,
		"state", check.State,
		"decision", cmd.Decision,
		"error", cause,
	)
	event := newEvent(ctx, audit.EventReviewRejected, check)
	event.Actor = cmd.ReviewedBy
	event.Decision = string(cmd.Decision)
	if de, ok := dErrors.As(cause); ok {
		event.Reason = string(de.Code)
	}
	s.emitBestEffort(ctx, event)
}
