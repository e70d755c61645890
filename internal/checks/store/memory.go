// Package store persists Checks, Cases and their append-only history.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"bgv/internal/checks/models"
	cmodels "bgv/internal/comparison/models"
	id "bgv/pkg/domain"
	"bgv/pkg/platform/sentinel"
)

// InMemory is a process-local store. Updates are guarded by revision: a
// write whose expected revision is stale fails with sentinel.ErrConflict.
type InMemory struct {
	mu      sync.RWMutex
	checks  map[id.CheckID]*models.Check
	cases   map[id.CaseID]*models.Case
	results map[id.CheckID][]cmodels.ComparisonResult
	reviews map[id.CheckID][]models.ReviewDecision
}

func NewInMemory() *InMemory {
	return &InMemory{
		checks:  make(map[id.CheckID]*models.Check),
		cases:   make(map[id.CaseID]*models.Case),
		results: make(map[id.CheckID][]cmodels.ComparisonResult),
		reviews: make(map[id.CheckID][]models.ReviewDecision),
	}
}

type journalKey struct{}

// journal records how to reverse each write made inside RunInTx.
type journal struct {
	undo []func()
}

// record registers an undo step when ctx carries a journal. Callers hold s.mu.
func record(ctx context.Context, undo func()) {
	if j, ok := ctx.Value(journalKey{}).(*journal); ok {
		j.undo = append(j.undo, undo)
	}
}

// RunInTx runs fn and, when fn fails, reverses every write fn made through
// this store so the batch is all-or-nothing. Isolation between concurrent
// batches on the same Check comes from the service's per-check lock.
// Nested calls join the enclosing batch.
func (s *InMemory) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(journalKey{}).(*journal); ok {
		return fn(ctx)
	}
	j := &journal{}
	if err := fn(context.WithValue(ctx, journalKey{}, j)); err != nil {
		s.mu.Lock()
		for i := len(j.undo) - 1; i >= 0; i-- {
			j.undo[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *InMemory) Create(ctx context.Context, check *models.Check) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.checks[check.ID]; exists {
		return fmt.Errorf("check %s: %w", check.ID, sentinel.ErrConflict)
	}
	check.Revision = 1
	s.checks[check.ID] = check.Clone()
	record(ctx, func() { delete(s.checks, check.ID) })
	return nil
}

func (s *InMemory) FindByID(_ context.Context, checkID id.CheckID) (*models.Check, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.checks[checkID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return c.Clone(), nil
}

// Update replaces a Check if its stored revision equals expected, then bumps
// the revision on both the stored copy and check.
func (s *InMemory) Update(ctx context.Context, check *models.Check, expected uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.checks[check.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Revision != expected {
		return fmt.Errorf("check %s at revision %d, expected %d: %w", check.ID, current.Revision, expected, sentinel.ErrConflict)
	}
	check.Revision = expected + 1
	s.checks[check.ID] = check.Clone()
	record(ctx, func() { s.checks[check.ID] = current })
	return nil
}

func (s *InMemory) ListByCase(_ context.Context, caseID id.CaseID) ([]*models.Check, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Check
	for _, c := range s.checks {
		if c.CaseID == caseID {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Version < out[j].Version
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemory) AppendResult(ctx context.Context, checkID id.CheckID, result cmodels.ComparisonResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.results[checkID])
	s.results[checkID] = append(s.results[checkID], result)
	record(ctx, func() { s.results[checkID] = s.results[checkID][:n] })
	return nil
}

func (s *InMemory) AppendReview(ctx context.Context, decision models.ReviewDecision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.reviews[decision.CheckID])
	s.reviews[decision.CheckID] = append(s.reviews[decision.CheckID], decision)
	record(ctx, func() { s.reviews[decision.CheckID] = s.reviews[decision.CheckID][:n] })
	return nil
}

func (s *InMemory) History(_ context.Context, checkID id.CheckID) (*models.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.checks[checkID]; !ok {
		return nil, sentinel.ErrNotFound
	}
	return &models.History{
		CheckID: checkID,
		Results: append([]cmodels.ComparisonResult{}, s.results[checkID]...),
		Reviews: append([]models.ReviewDecision{}, s.reviews[checkID]...),
	}, nil
}

func (s *InMemory) CreateCase(ctx context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.cases[c.ID]; exists {
		return fmt.Errorf("case %s: %w", c.ID, sentinel.ErrConflict)
	}
	c.Revision = 1
	s.cases[c.ID] = c.Clone()
	record(ctx, func() { delete(s.cases, c.ID) })
	return nil
}

func (s *InMemory) FindCase(_ context.Context, caseID id.CaseID) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[caseID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *InMemory) UpdateCase(ctx context.Context, c *models.Case, expected uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.cases[c.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Revision != expected {
		return fmt.Errorf("case %s at revision %d, expected %d: %w", c.ID, current.Revision, expected, sentinel.ErrConflict)
	}
	c.Revision = expected + 1
	s.cases[c.ID] = c.Clone()
	record(ctx, func() { s.cases[c.ID] = current })
	return nil
}
