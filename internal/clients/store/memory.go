// Package store persists onboarded clients.
package store

import (
	"context"
	"fmt"
	"sync"

	"bgv/internal/clients/models"
	id "bgv/pkg/domain"
	"bgv/pkg/platform/sentinel"
)

type InMemory struct {
	mu      sync.RWMutex
	clients map[id.ClientID]*models.Client
}

func NewInMemory() *InMemory {
	return &InMemory{clients: make(map[id.ClientID]*models.Client)}
}

func (s *InMemory) Create(_ context.Context, c *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.clients[c.ID]; exists {
		return fmt.Errorf("client %s: %w", c.ID, sentinel.ErrConflict)
	}
	s.clients[c.ID] = c.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, clientID id.ClientID) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[clientID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *InMemory) Update(_ context.Context, c *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.clients[c.ID] = c.Clone()
	return nil
}
