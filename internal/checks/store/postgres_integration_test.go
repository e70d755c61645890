//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"bgv/internal/checks/models"
	"bgv/internal/checks/store"
	cmodels "bgv/internal/comparison/models"
	id "bgv/pkg/domain"
	"bgv/pkg/platform/sentinel"
	"bgv/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	ctx      context.Context
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx))
	s.now = time.Now().UTC().Truncate(time.Microsecond)
}

func (s *PostgresStoreSuite) newCase() *models.Case {
	c, err := models.NewCase(id.NewCaseID(), id.NewClientID(), models.Employee{Name: "Ravi Kumar"}, "Engineer", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateCase(s.ctx, c))
	return c
}

func (s *PostgresStoreSuite) newCheck(caseID id.CaseID) *models.Check {
	check, err := models.NewCheck(id.NewCheckID(), caseID, cmodels.CheckTypeEmployment, "Acme Pvt Ltd",
		models.ClientPolicy{SKU: cmodels.SKUPremium, Instructions: []string{"uan_30day_tolerance"}}, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, check))
	return check
}

func (s *PostgresStoreSuite) TestCheckRoundTrip() {
	c := s.newCase()
	check := s.newCheck(c.ID)

	found, err := s.store.FindByID(s.ctx, check.ID)
	s.Require().NoError(err)
	s.Equal(check.CaseID, found.CaseID)
	s.Equal(models.StatePending, found.State)
	s.Equal([]string{"uan_30day_tolerance"}, found.Policy.Instructions)
	s.Nil(found.Result)
	s.Nil(found.Review)
	s.Equal(uint64(1), found.Revision)

	_, err = s.store.FindByID(s.ctx, id.NewCheckID())
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.ErrorIs(s.store.Create(s.ctx, check), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestOptimisticUpdate() {
	check := s.newCheck(s.newCase().ID)
	score := 82
	check.State = models.StateClassifiedRed
	check.Result = &cmodels.ComparisonResult{Zone: cmodels.ZoneRed, RiskScore: &score, ComparedAt: s.now}

	s.Require().NoError(s.store.Update(s.ctx, check, 1))
	s.Equal(uint64(2), check.Revision)

	found, err := s.store.FindByID(s.ctx, check.ID)
	s.Require().NoError(err)
	s.Equal(models.StateClassifiedRed, found.State)
	s.Require().NotNil(found.Result)
	s.Equal(cmodels.ZoneRed, found.Result.Zone)
	s.Equal(82, found.Result.Score())

	stale := found.Clone()
	s.ErrorIs(s.store.Update(s.ctx, stale, 1), sentinel.ErrConflict)

	ghost := s.newCheck(check.CaseID)
	ghost.ID = id.NewCheckID()
	s.ErrorIs(s.store.Update(s.ctx, ghost, 1), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestConcurrentUpdatesOneWins() {
	check := s.newCheck(s.newCase().ID)

	const writers = 8
	var wg sync.WaitGroup
	var won, lost atomic.Int32
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mine := check.Clone()
			mine.State = models.StateInProgress
			err := s.store.Update(s.ctx, mine, 1)
			if err == nil {
				won.Add(1)
			} else if errors.Is(err, sentinel.ErrConflict) {
				lost.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), won.Load())
	s.Equal(int32(writers-1), lost.Load())
}

func (s *PostgresStoreSuite) TestHistoryIsAppendOnly() {
	check := s.newCheck(s.newCase().ID)
	first, second := 20, 75
	s.Require().NoError(s.store.AppendResult(s.ctx, check.ID, cmodels.ComparisonResult{Zone: cmodels.ZoneGreen, RiskScore: &first, ComparedAt: s.now}))
	s.Require().NoError(s.store.AppendResult(s.ctx, check.ID, cmodels.ComparisonResult{Zone: cmodels.ZoneRed, RiskScore: &second, ComparedAt: s.now.Add(time.Minute)}))
	s.Require().NoError(s.store.AppendReview(s.ctx, models.ReviewDecision{
		CheckID:    check.ID,
		Decision:   models.DecisionApproved,
		Notes:      "confirmed",
		ReviewedBy: "sup",
		Timestamp:  s.now.Add(2 * time.Minute),
	}))

	h, err := s.store.History(s.ctx, check.ID)
	s.Require().NoError(err)
	s.Require().Len(h.Results, 2)
	s.Equal(cmodels.ZoneGreen, h.Results[0].Zone)
	s.Equal(cmodels.ZoneRed, h.Results[1].Zone)
	s.Require().Len(h.Reviews, 1)
	s.Equal(models.DecisionApproved, h.Reviews[0].Decision)

	_, err = s.store.History(s.ctx, id.NewCheckID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestCaseLifecycle() {
	c := s.newCase()
	a := s.newCheck(c.ID)
	b := s.newCheck(c.ID)
	c.CheckIDs = []id.CheckID{a.ID, b.ID}
	c.OverallRiskLevel = cmodels.ZoneYellow
	s.Require().NoError(s.store.UpdateCase(s.ctx, c, 1))

	found, err := s.store.FindCase(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal([]id.CheckID{a.ID, b.ID}, found.CheckIDs)
	s.Equal(cmodels.ZoneYellow, found.OverallRiskLevel)
	s.Equal("Ravi Kumar", found.Employee.Name)

	s.ErrorIs(s.store.UpdateCase(s.ctx, c, 1), sentinel.ErrConflict)

	listed, err := s.store.ListByCase(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Len(listed, 2)
}

func (s *PostgresStoreSuite) TestRunInTxRollsBack() {
	c := s.newCase()
	check, err := models.NewCheck(id.NewCheckID(), c.ID, cmodels.CheckTypeCrime, "", models.ClientPolicy{SKU: cmodels.SKUBasic}, s.now)
	s.Require().NoError(err)

	boom := errors.New("emit failed")
	err = s.store.RunInTx(s.ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, check); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	_, err = s.store.FindByID(s.ctx, check.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
