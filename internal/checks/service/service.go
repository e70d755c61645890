// Package service orchestrates Check classification and review: it fetches
// the AI signal, runs the comparison engine, drives the Check lifecycle and
// records results, review decisions and activity events.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"bgv/internal/checks/lock"
	"bgv/internal/checks/metrics"
	"bgv/internal/checks/models"
	"bgv/internal/checks/ports"
	clientmodels "bgv/internal/clients/models"
	"bgv/internal/comparison"
	cmodels "bgv/internal/comparison/models"
	id "bgv/pkg/domain"
	dErrors "bgv/pkg/domain-errors"
	"bgv/pkg/platform/audit"
	"bgv/pkg/platform/circuit"
	"bgv/pkg/platform/sentinel"
	"bgv/pkg/requestcontext"
)

const (
	defaultAITimeout   = 5 * time.Second
	defaultFanoutLimit = 8
)

// Store persists Checks, Cases and their history. Update and UpdateCase
// reject stale revisions with sentinel.ErrConflict.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error

	Create(ctx context.Context, check *models.Check) error
	FindByID(ctx context.Context, checkID id.CheckID) (*models.Check, error)
	Update(ctx context.Context, check *models.Check, expected uint64) error
	ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.Check, error)
	AppendResult(ctx context.Context, checkID id.CheckID, result cmodels.ComparisonResult) error
	AppendReview(ctx context.Context, decision models.ReviewDecision) error
	History(ctx context.Context, checkID id.CheckID) (*models.History, error)

	CreateCase(ctx context.Context, c *models.Case) error
	FindCase(ctx context.Context, caseID id.CaseID) (*models.Case, error)
	UpdateCase(ctx context.Context, c *models.Case, expected uint64) error
}

// ClientDirectory resolves onboarded clients for policy snapshots.
type ClientDirectory interface {
	Get(ctx context.Context, clientID id.ClientID) (*clientmodels.Client, error)
}

// Locker serializes mutations of one key across callers.
type Locker interface {
	Lock(ctx context.Context, key string) (lock.Unlock, error)
}

// Service classifies and reviews Checks.
type Service struct {
	engine    *comparison.Engine
	store     Store
	clients   ClientDirectory
	locker    Locker
	activity  ports.ActivityPort
	ai        ports.AIAnalyzer
	breaker   *circuit.Breaker
	cache     ports.ResultCache
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
	aiTimeout time.Duration
	fanout    int
}

type Option func(*Service)

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

func WithActivity(activity ports.ActivityPort) Option {
	return func(s *Service) {
		s.activity = activity
	}
}

// WithAI enables the AI-analysis collaborator. Calls are bounded by timeout.
func WithAI(ai ports.AIAnalyzer, timeout time.Duration) Option {
	return func(s *Service) {
		s.ai = ai
		if timeout > 0 {
			s.aiTimeout = timeout
		}
	}
}

// WithBreaker skips the AI call while the breaker is open.
func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Service) {
		s.breaker = b
	}
}

func WithCache(cache ports.ResultCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithLocker replaces the in-process keyed mutex, e.g. with a Redis lock
// shared by all instances.
func WithLocker(l Locker) Option {
	return func(s *Service) {
		s.locker = l
	}
}

// WithFanout bounds concurrent classifications within one Case.
func WithFanout(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fanout = n
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func New(engine *comparison.Engine, store Store, clients ClientDirectory, opts ...Option) (*Service, error) {
	if engine == nil {
		return nil, errors.New("comparison engine is required")
	}
	if store == nil {
		return nil, errors.New("check store is required")
	}
	if clients == nil {
		return nil, errors.New("client directory is required")
	}
	s := &Service{
		engine:    engine,
		store:     store,
		clients:   clients,
		locker:    lock.NewKeyedMutex(),
		logger:    slog.Default(),
		tracer:    otel.Tracer("bgv/checks"),
		aiTimeout: defaultAITimeout,
		fanout:    defaultFanoutLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GetCheck returns a Check with its latest result and review.
func (s *Service) GetCheck(ctx context.Context, checkID id.CheckID) (*models.Check, error) {
	check, err := s.store.FindByID(ctx, checkID)
	if err != nil {
		return nil, translate(err, "check")
	}
	return check, nil
}

// LatestResult serves the Check's current ComparisonResult, from the cache
// when possible.
func (s *Service) LatestResult(ctx context.Context, checkID id.CheckID) (*cmodels.ComparisonResult, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, checkID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "result cache read failed", "check_id", checkID, "error", err)
		}
	}
	check, err := s.GetCheck(ctx, checkID)
	if err != nil {
		return nil, err
	}
	if check.Result == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "check has not been classified")
	}
	s.cacheResult(ctx, check.ID, *check.Result)
	return check.Result, nil
}

// History returns every ComparisonResult and ReviewDecision recorded for a Check.
func (s *Service) History(ctx context.Context, checkID id.CheckID) (*models.History, error) {
	h, err := s.store.History(ctx, checkID)
	if err != nil {
		return nil, translate(err, "check")
	}
	return h, nil
}

func (s *Service) GetCase(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	c, err := s.store.FindCase(ctx, caseID)
	if err != nil {
		return nil, translate(err, "case")
	}
	return c, nil
}

func (s *Service) cacheResult(ctx context.Context, checkID id.CheckID, result cmodels.ComparisonResult) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(ctx, checkID, result); err != nil {
		s.logger.WarnContext(ctx, "result cache write failed", "check_id", checkID, "error", err)
	}
}

// emit records an activity event. Inside a transaction the error must be
// returned so the write rolls back with it.
func (s *Service) emit(ctx context.Context, event audit.Event) error {
	if s.activity == nil {
		return nil
	}
	return s.activity.Emit(ctx, event)
}

// emitBestEffort records an operational event whose loss is tolerable.
func (s *Service) emitBestEffort(ctx context.Context, event audit.Event) {
	if err := s.emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit activity event",
			"action", event.Action,
			"check_id", event.CheckID,
			"error", err,
		)
	}
}

func newEvent(ctx context.Context, action audit.AuditEvent, check *models.Check) audit.Event {
	event := audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Action:    string(action),
		Actor:     requestcontext.Actor(ctx),
		RequestID: requestcontext.RequestID(ctx),
	}
	if check != nil {
		event.CheckID = check.ID
		event.CaseID = check.CaseID
		event.Zone = check.Zone().String()
		event.RiskScore = check.RiskScore()
	}
	return event
}

// translate maps store sentinels to domain errors.
func translate(err error, what string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, what+" was modified concurrently")
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist "+what)
}

func checkLockKey(checkID id.CheckID) string { return "check:" + checkID.String() }
func caseLockKey(caseID id.CaseID) string    { return "case:" + caseID.String() }
