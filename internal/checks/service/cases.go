package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"bgv/internal/checks/models"
	cmodels "bgv/internal/comparison/models"
	"bgv/internal/comparison/rules"
	id "bgv/pkg/domain"
	dErrors "bgv/pkg/domain-errors"
	"bgv/pkg/platform/audit"
	"bgv/pkg/requestcontext"
)

// CheckSpec describes one Check to open in a new Case.
type CheckSpec struct {
	Type        cmodels.CheckType
	CompanyName string
}

// CreateCaseCommand opens a Case for a candidate.
type CreateCaseCommand struct {
	ClientID        id.ClientID
	Employee        models.Employee
	PositionApplied string
	Checks          []CheckSpec
}

// CaseView is a Case with its current Checks in Case order.
type CaseView struct {
	Case   *models.Case    `json:"case"`
	Checks []*models.Check `json:"checks"`
}

// CreateCase opens a Case and its PENDING Checks. Every Check snapshots the
// client's policy as it stands now.
func (s *Service) CreateCase(ctx context.Context, cmd CreateCaseCommand) (*CaseView, error) {
	if len(cmd.Checks) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "a case needs at least one check")
	}
	client, err := s.clients.Get(ctx, cmd.ClientID)
	if err != nil {
		return nil, err
	}
	policy := client.Policy()
	if _, err := rules.ParseInstructions(policy.Instructions); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	c, err := models.NewCase(id.NewCaseID(), client.ID, cmd.Employee, cmd.PositionApplied, now)
	if err != nil {
		return nil, err
	}
	checks := make([]*models.Check, 0, len(cmd.Checks))
	for _, spec := range cmd.Checks {
		check, err := models.NewCheck(id.NewCheckID(), c.ID, spec.Type, spec.CompanyName, policy, now)
		if err != nil {
			return nil, err
		}
		checks = append(checks, check)
		c.CheckIDs = append(c.CheckIDs, check.ID)
	}

	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.CreateCase(ctx, c); err != nil {
			return err
		}
		for _, check := range checks {
			if err := s.store.Create(ctx, check); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, "case")
	}

	s.logger.InfoContext(ctx, "case created",
		"case_id", c.ID,
		"client_id", client.ID,
		"checks", len(checks),
		"request_id", requestcontext.RequestID(ctx),
	)
	return &CaseView{Case: c, Checks: checks}, nil
}

// CheckInput is the data for one Check in a Case-wide run.
type CheckInput struct {
	Claimed  cmodels.FieldMap
	Verified cmodels.FieldMap
	Context  rules.Context
}

// CheckRun is the outcome of one Check in a Case-wide run. Err is set when
// that Check could not be classified.
type CheckRun struct {
	CheckID id.CheckID
	Outcome *ClassifyOutcome
	Err     error
}

// CaseRun is the result of ClassifyCase.
type CaseRun struct {
	Case *models.Case
	Runs []CheckRun
}

// ClassifyCase classifies the given Checks of a Case in parallel and then
// recomputes the Case's overall risk level once. A failing Check never
// aborts its siblings.
func (s *Service) ClassifyCase(ctx context.Context, caseID id.CaseID, inputs map[id.CheckID]CheckInput) (*CaseRun, error) {
	c, err := s.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	inCase := make(map[id.CheckID]bool, len(c.CheckIDs))
	for _, checkID := range c.CheckIDs {
		inCase[checkID] = true
	}

	// Keep Case order so the response is stable.
	order := make([]id.CheckID, 0, len(inputs))
	for _, checkID := range c.CheckIDs {
		if _, ok := inputs[checkID]; ok {
			order = append(order, checkID)
		}
	}
	for checkID := range inputs {
		if !inCase[checkID] {
			order = append(order, checkID)
		}
	}

	runs := make([]CheckRun, len(order))
	var g errgroup.Group
	g.SetLimit(s.fanout)
	for i, checkID := range order {
		runs[i].CheckID = checkID
		if !inCase[checkID] {
			runs[i].Err = dErrors.New(dErrors.CodeInvalidInput, "check does not belong to this case")
			continue
		}
		in := inputs[checkID]
		g.Go(func() error {
			out, err := s.classify(ctx, ClassifyCommand{
				CheckID:  checkID,
				Claimed:  in.Claimed,
				Verified: in.Verified,
				Context:  in.Context,
			})
			runs[i].Outcome = out
			runs[i].Err = err
			if err != nil {
				s.logger.WarnContext(ctx, "check classification failed within case",
					"case_id", caseID,
					"check_id", checkID,
					"error", err,
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	updated, err := s.refreshCaseRisk(ctx, caseID)
	if err != nil {
		return nil, err
	}
	return &CaseRun{Case: updated, Runs: runs}, nil
}

// ListCaseChecks returns the current version of every Check in a Case.
func (s *Service) ListCaseChecks(ctx context.Context, caseID id.CaseID) (*CaseView, error) {
	c, err := s.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	checks, err := s.currentChecks(ctx, c)
	if err != nil {
		return nil, err
	}
	return &CaseView{Case: c, Checks: checks}, nil
}

func (s *Service) currentChecks(ctx context.Context, c *models.Case) ([]*models.Check, error) {
	all, err := s.store.ListByCase(ctx, c.ID)
	if err != nil {
		return nil, translate(err, "case")
	}
	byID := make(map[id.CheckID]*models.Check, len(all))
	for _, check := range all {
		byID[check.ID] = check
	}
	current := make([]*models.Check, 0, len(c.CheckIDs))
	for _, checkID := range c.CheckIDs {
		if check, ok := byID[checkID]; ok {
			current = append(current, check)
		}
	}
	return current, nil
}

// refreshCaseRisk recomputes overallRiskLevel as the worst effective zone of
// the Case's current Checks.
func (s *Service) refreshCaseRisk(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	unlock, err := s.locker.Lock(ctx, caseLockKey(caseID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, err := s.store.FindCase(ctx, caseID)
	if err != nil {
		return nil, translate(err, "case")
	}
	checks, err := s.currentChecks(ctx, c)
	if err != nil {
		return nil, err
	}
	zones := make([]cmodels.Zone, len(checks))
	for i, check := range checks {
		zones[i] = check.EffectiveZone()
	}
	level := models.OverallRiskLevel(zones)
	if level == c.OverallRiskLevel {
		return c, nil
	}

	previous := c.OverallRiskLevel
	c.OverallRiskLevel = level
	c.UpdatedAt = requestcontext.Now(ctx)
	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.UpdateCase(ctx, c, c.Revision); err != nil {
			return err
		}
		event := newEvent(ctx, audit.EventCaseRiskUpdated, nil)
		event.CaseID = c.ID
		event.Zone = level.String()
		event.Reason = "previously " + previous.String()
		return s.emit(ctx, event)
	})
	if err != nil {
		return nil, translate(err, "case")
	}
	s.logger.InfoContext(ctx, "case risk level updated",
		"case_id", c.ID,
		"from", previous,
		"to", level,
	)
	return c, nil
}
