package audit

import (
	"context"
	"time"

	id "bgv/pkg/domain"
)

// EventCategory classifies activity events by retention and routing needs.
type EventCategory string

const (
	// CategoryCompliance covers events that change or decide a Check outcome.
	// They are retained for the life of the Case and must not be dropped.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers bookkeeping events useful for dashboards.
	CategoryOperations EventCategory = "operations"
)

// Event is one entry in the immutable activity stream. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	CheckID   id.CheckID
	CaseID    id.CaseID
	Action    string
	Zone      string
	// RiskScore is nil when no score was computed (PENDING).
	RiskScore *int
	Actor     string
	Decision  string
	Reason    string
	RequestID string
}

type AuditEvent string

const (
	EventCheckClassified  AuditEvent = "check_classified"
	EventCheckPending     AuditEvent = "check_pending"
	EventCheckBlocked     AuditEvent = "check_blocked"
	EventCheckEscalated   AuditEvent = "check_escalated"
	EventCheckSuperseded  AuditEvent = "check_superseded"
	EventCheckFailed      AuditEvent = "check_failed"
	EventReviewDecided    AuditEvent = "review_decided"
	EventReviewRejected   AuditEvent = "review_rejected"
	EventCaseRiskUpdated  AuditEvent = "case_risk_updated"
	EventAIAnalysisFailed AuditEvent = "ai_analysis_failed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventCheckClassified: CategoryCompliance,
	EventCheckBlocked:    CategoryCompliance,
	EventCheckEscalated:  CategoryCompliance,
	EventCheckSuperseded: CategoryCompliance,
	EventCheckFailed:     CategoryCompliance,
	EventReviewDecided:   CategoryCompliance,

	EventCheckPending:     CategoryOperations,
	EventReviewRejected:   CategoryOperations,
	EventCaseRiskUpdated:  CategoryOperations,
	EventAIAnalysisFailed: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists events and serves them back per Check.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByCheck(ctx context.Context, checkID id.CheckID) ([]Event, error)
}

// Sink receives a copy of every event, e.g. a message topic.
type Sink interface {
	Append(ctx context.Context, event Event) error
}
