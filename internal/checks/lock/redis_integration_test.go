//go:build integration

package lock_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"bgv/internal/checks/lock"
	dErrors "bgv/pkg/domain-errors"
	"bgv/pkg/testutil/containers"
)

type RedisLockerSuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	locker *lock.RedisLocker
}

func TestRedisLockerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLockerSuite))
}

func (s *RedisLockerSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.locker = lock.NewRedisLocker(s.redis.Client, lock.WithBackoff(5*time.Millisecond))
}

func (s *RedisLockerSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisLockerSuite) TestSerializesAcrossInstances() {
	// Two lockers share one Redis, as two replicas would.
	other := lock.NewRedisLocker(s.redis.Client, lock.WithBackoff(5*time.Millisecond))
	lockers := []*lock.RedisLocker{s.locker, other}

	var inside, overlap atomic.Int32
	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			unlock, err := lockers[i%2].Lock(ctx, "check:shared")
			s.NoError(err)
			if err != nil {
				return
			}
			if inside.Add(1) > 1 {
				overlap.Add(1)
			}
			time.Sleep(5 * time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()
	s.Zero(overlap.Load())
}

func (s *RedisLockerSuite) TestTimesOutWhileHeld() {
	unlock, err := s.locker.Lock(context.Background(), "check:busy")
	s.Require().NoError(err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = s.locker.Lock(ctx, "check:busy")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout) || dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *RedisLockerSuite) TestDistinctKeysDoNotBlock() {
	unlockA, err := s.locker.Lock(context.Background(), "check:a")
	s.Require().NoError(err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := s.locker.Lock(ctx, "check:b")
	s.Require().NoError(err)
	unlockB()
}
