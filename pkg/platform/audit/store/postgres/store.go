package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "bgv/pkg/domain"
	audit "bgv/pkg/platform/audit"
	txcontext "bgv/pkg/platform/tx"
)

// Store implements audit.Store using the transactional outbox pattern.
// Each event is materialized into activity_events for querying and written to
// the outbox table, from which the relay worker forwards it to sinks.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL activity store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// outboxPayload is the JSON structure forwarded to sinks.
type outboxPayload struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Timestamp string `json:"timestamp"`
	CheckID   string `json:"checkId,omitempty"`
	CaseID    string `json:"caseId,omitempty"`
	Action    string `json:"action"`
	Zone      string `json:"zone,omitempty"`
	RiskScore *int   `json:"riskScore,omitempty"`
	Actor     string `json:"actor"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// Append writes an activity event and its outbox entry.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()
	category := audit.AuditEvent(event.Action).Category()

	payload := outboxPayload{
		ID:        eventID.String(),
		Category:  string(category),
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		Action:    event.Action,
		Zone:      event.Zone,
		RiskScore: event.RiskScore,
		Actor:     event.Actor,
		Decision:  event.Decision,
		Reason:    event.Reason,
		RequestID: event.RequestID,
	}
	if !event.CheckID.IsNil() {
		payload.CheckID = event.CheckID.String()
	}
	if !event.CaseID.IsNil() {
		payload.CaseID = event.CaseID.String()
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal activity payload: %w", err)
	}

	exec := s.execer(ctx)
	_, err = exec.ExecContext(ctx, `
		INSERT INTO activity_events (
			id, category, timestamp, check_id, case_id, action,
			zone, risk_score, actor, decision, reason, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		eventID,
		string(category),
		event.Timestamp,
		nullableID(uuid.UUID(event.CheckID)),
		nullableID(uuid.UUID(event.CaseID)),
		event.Action,
		event.Zone,
		event.RiskScore,
		event.Actor,
		event.Decision,
		event.Reason,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert activity event: %w", err)
	}

	_, err = exec.ExecContext(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		uuid.New(),
		aggregateType(event),
		aggregateID(event),
		event.Action,
		payloadBytes,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// ListByCheck returns events for a Check in the order they happened.
func (s *Store) ListByCheck(ctx context.Context, checkID id.CheckID) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, timestamp, check_id, case_id, action,
			   zone, risk_score, actor, decision, reason, request_id
		FROM activity_events
		WHERE check_id = $1
		ORDER BY timestamp ASC
	`, uuid.UUID(checkID))
	if err != nil {
		return nil, fmt.Errorf("query activity events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			category  string
			event     audit.Event
			checkUUID *uuid.UUID
			caseUUID  *uuid.UUID
			riskScore sql.NullInt64
		)
		if err := rows.Scan(
			&category,
			&event.Timestamp,
			&checkUUID,
			&caseUUID,
			&event.Action,
			&event.Zone,
			&riskScore,
			&event.Actor,
			&event.Decision,
			&event.Reason,
			&event.RequestID,
		); err != nil {
			return nil, fmt.Errorf("scan activity event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		if checkUUID != nil {
			event.CheckID = id.CheckID(*checkUUID)
		}
		if caseUUID != nil {
			event.CaseID = id.CaseID(*caseUUID)
		}
		if riskScore.Valid {
			score := int(riskScore.Int64)
			event.RiskScore = &score
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity events: %w", err)
	}
	return events, nil
}

// OutboxEntry is an unpublished outbox row.
type OutboxEntry struct {
	ID      uuid.UUID
	Payload []byte
}

// FetchPending returns up to limit unpublished outbox rows, oldest first.
func (s *Store) FetchPending(ctx context.Context, limit int) ([]OutboxEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, payload
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var entries []OutboxEntry
	for rows.Next() {
		var e OutboxEntry
		if err := rows.Scan(&e.ID, &e.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MarkPublished stamps outbox rows as forwarded.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, len(ids))
	for i, entryID := range ids {
		raw[i] = entryID.String()
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE outbox SET published_at = $1 WHERE id = ANY($2::uuid[])`,
		time.Now(), pq.Array(raw),
	)
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

// DecodePayload turns an outbox payload back into an audit.Event.
func DecodePayload(b []byte) (audit.Event, error) {
	var p outboxPayload
	if err := json.Unmarshal(b, &p); err != nil {
		return audit.Event{}, fmt.Errorf("decode outbox payload: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, p.Timestamp)
	if err != nil {
		return audit.Event{}, fmt.Errorf("decode outbox timestamp: %w", err)
	}
	event := audit.Event{
		Category:  audit.EventCategory(p.Category),
		Timestamp: ts,
		Action:    p.Action,
		Zone:      p.Zone,
		RiskScore: p.RiskScore,
		Actor:     p.Actor,
		Decision:  p.Decision,
		Reason:    p.Reason,
		RequestID: p.RequestID,
	}
	if p.CheckID != "" {
		if event.CheckID, err = id.ParseCheckID(p.CheckID); err != nil {
			return audit.Event{}, err
		}
	}
	if p.CaseID != "" {
		if event.CaseID, err = id.ParseCaseID(p.CaseID); err != nil {
			return audit.Event{}, err
		}
	}
	return event, nil
}

func nullableID(u uuid.UUID) *uuid.UUID {
	if u == uuid.Nil {
		return nil
	}
	return &u
}

// aggregateType names the entity an outbox row belongs to. Case-level events
// carry no check id.
func aggregateType(event audit.Event) string {
	if event.CheckID.IsNil() {
		return "case"
	}
	return "check"
}

func aggregateID(event audit.Event) string {
	if event.CheckID.IsNil() {
		return event.CaseID.String()
	}
	return event.CheckID.String()
}
