//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"bgv/internal/clients/models"
	"bgv/internal/clients/store"
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
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "clients"))
}

func (s *PostgresStoreSuite) TestCreateFindUpdate() {
	now := time.Now().UTC().Truncate(time.Microsecond)
	client, err := models.NewClient(id.NewClientID(), "Initech", models.Settings{
		SKU:          cmodels.SKUEnterprise,
		Instructions: []string{"govt_org_escalate", "uan_30day_tolerance"},
	}, now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, client))
	s.ErrorIs(s.store.Create(s.ctx, client), sentinel.ErrConflict)

	found, err := s.store.FindByID(s.ctx, client.ID)
	s.Require().NoError(err)
	s.Equal("Initech", found.CompanyName)
	s.Equal(cmodels.SKUEnterprise, found.SKU)
	s.Equal(client.Instructions, found.Instructions)
	s.Equal(models.MethodUAN, found.PrimaryMethod)

	s.Require().NoError(found.Apply(models.Settings{SKU: cmodels.SKUBasic}, now.Add(time.Hour)))
	s.Require().NoError(s.store.Update(s.ctx, found))

	updated, err := s.store.FindByID(s.ctx, client.ID)
	s.Require().NoError(err)
	s.Equal(cmodels.SKUBasic, updated.SKU)
	s.Empty(updated.Instructions)

	_, err = s.store.FindByID(s.ctx, id.NewClientID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}
