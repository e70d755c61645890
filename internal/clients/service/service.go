// Package service manages client onboarding policy.
package service

import (
	"context"
	"errors"
	"log/slog"

	"bgv/internal/clients/models"
	"bgv/internal/platform/metrics"
	id "bgv/pkg/domain"
	dErrors "bgv/pkg/domain-errors"
	"bgv/pkg/platform/sentinel"
	"bgv/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, client *models.Client) error
	FindByID(ctx context.Context, clientID id.ClientID) (*models.Client, error)
	Update(ctx context.Context, client *models.Client) error
}

// Service onboards clients and edits their policy.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("client store is required")
	}
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// OnboardCommand carries the fields of a new client.
type OnboardCommand struct {
	CompanyName string
	Settings    models.Settings
}

// Onboard validates the client policy and stores it. Unknown instruction ids
// fail with CodeValidation.
func (s *Service) Onboard(ctx context.Context, cmd OnboardCommand) (*models.Client, error) {
	now := requestcontext.Now(ctx)
	client, err := models.NewClient(id.NewClientID(), cmd.CompanyName, cmd.Settings, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, client); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create client")
	}

	s.logger.InfoContext(ctx, "client onboarded",
		"client_id", client.ID,
		"sku", client.SKU,
		"instructions", client.Instructions,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementClientsOnboarded()
	}
	return client, nil
}

func (s *Service) Get(ctx context.Context, clientID id.ClientID) (*models.Client, error) {
	client, err := s.store.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "client not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load client")
	}
	return client, nil
}

// UpdatePolicy replaces the client's settings. Checks created earlier keep
// the policy they were created with.
func (s *Service) UpdatePolicy(ctx context.Context, clientID id.ClientID, settings models.Settings) (*models.Client, error) {
	client, err := s.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if err := client.Apply(settings, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, client); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update client")
	}
	s.logger.InfoContext(ctx, "client policy updated",
		"client_id", client.ID,
		"sku", client.SKU,
		"instructions", client.Instructions,
	)
	return client, nil
}
