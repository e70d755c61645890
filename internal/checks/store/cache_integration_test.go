//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"bgv/internal/checks/store"
	cmodels "bgv/internal/comparison/models"
	id "bgv/pkg/domain"
	"bgv/pkg/platform/sentinel"
	"bgv/pkg/testutil/containers"
)

type ResultCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *store.ResultCache
}

func TestResultCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ResultCacheSuite))
}

func (s *ResultCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.cache = store.NewResultCache(s.redis.Client, time.Minute)
}

func (s *ResultCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *ResultCacheSuite) TestRoundTrip() {
	ctx := context.Background()
	checkID := id.NewCheckID()
	score := 55
	result := cmodels.ComparisonResult{
		Zone:      cmodels.ZoneYellow,
		RiskScore: &score,
		Discrepancies: []cmodels.Discrepancy{
			{Field: cmodels.FieldTenure, Severity: cmodels.SeverityMedium, Difference: "31 days"},
		},
		ComparedAt: time.Now().UTC().Truncate(time.Second),
	}

	s.Require().NoError(s.cache.Put(ctx, checkID, result))
	got, err := s.cache.Get(ctx, checkID)
	s.Require().NoError(err)
	s.Equal(cmodels.ZoneYellow, got.Zone)
	s.Equal(55, got.Score())
	s.Require().Len(got.Discrepancies, 1)
	s.Equal(cmodels.SeverityMedium, got.Discrepancies[0].Severity)

	s.Require().NoError(s.cache.Invalidate(ctx, checkID))
	_, err = s.cache.Get(ctx, checkID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ResultCacheSuite) TestEntriesExpire() {
	ctx := context.Background()
	short := store.NewResultCache(s.redis.Client, time.Second)
	checkID := id.NewCheckID()

	s.Require().NoError(short.Put(ctx, checkID, cmodels.ComparisonResult{Zone: cmodels.ZoneGreen}))
	ttl, err := s.redis.Client.TTL(ctx, "bgv:result:"+checkID.String()).Result()
	s.Require().NoError(err)
	s.LessOrEqual(ttl, time.Second)
	s.Greater(ttl, time.Duration(0))
}
