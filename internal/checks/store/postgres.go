package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"bgv/internal/checks/models"
	cmodels "bgv/internal/comparison/models"
	id "bgv/pkg/domain"
	"bgv/pkg/platform/sentinel"
	txcontext "bgv/pkg/platform/tx"
)

// PostgresStore persists Checks, Cases and their history in PostgreSQL.
// Writes join the transaction carried by ctx, if any.
type PostgresStore struct {
	db     *sql.DB
	runner *txcontext.Runner
}

// NewPostgres constructs a PostgreSQL-backed check store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, runner: txcontext.NewRunner(db)}
}

type dbConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) conn(ctx context.Context) dbConn {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.runner.RunInTx(ctx, fn)
}

const checkColumns = `id, case_id, type, company_name, state, policy, result, review,
	version, supersedes, revision, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, check *models.Check) error {
	policy, result, review, err := encodeCheck(check)
	if err != nil {
		return err
	}
	_, err = s.conn(ctx).ExecContext(ctx, `
		INSERT INTO checks (`+checkColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1, $11, $12)
	`,
		uuid.UUID(check.ID),
		uuid.UUID(check.CaseID),
		string(check.Type),
		check.CompanyName,
		check.State.String(),
		policy,
		nullableJSON(result),
		nullableJSON(review),
		check.Version,
		nullableCheckID(check.Supersedes),
		check.CreatedAt,
		check.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("check %s: %w", check.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert check: %w", err)
	}
	check.Revision = 1
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, checkID id.CheckID) (*models.Check, error) {
	row := s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+checkColumns+` FROM checks WHERE id = $1`, uuid.UUID(checkID))
	check, err := scanCheck(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find check by id: %w", err)
	}
	return check, nil
}

// Update writes check when the stored revision equals expected.
func (s *PostgresStore) Update(ctx context.Context, check *models.Check, expected uint64) error {
	policy, result, review, err := encodeCheck(check)
	if err != nil {
		return err
	}
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE checks
		SET state = $2, policy = $3, result = $4, review = $5, company_name = $6,
			revision = revision + 1, updated_at = $7
		WHERE id = $1 AND revision = $8
	`,
		uuid.UUID(check.ID),
		check.State.String(),
		policy,
		nullableJSON(result),
		nullableJSON(review),
		check.CompanyName,
		check.UpdatedAt,
		int64(expected),
	)
	if err != nil {
		return fmt.Errorf("update check: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update check rows affected: %w", err)
	}
	if n == 0 {
		if _, findErr := s.FindByID(ctx, check.ID); errors.Is(findErr, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("check %s revision %d is stale: %w", check.ID, expected, sentinel.ErrConflict)
	}
	check.Revision = expected + 1
	return nil
}

func (s *PostgresStore) ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.Check, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT `+checkColumns+`
		FROM checks
		WHERE case_id = $1
		ORDER BY created_at ASC, version ASC
	`, uuid.UUID(caseID))
	if err != nil {
		return nil, fmt.Errorf("query checks by case: %w", err)
	}
	defer rows.Close()

	var out []*models.Check
	for rows.Next() {
		check, err := scanCheck(rows)
		if err != nil {
			return nil, fmt.Errorf("scan check: %w", err)
		}
		out = append(out, check)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checks: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) AppendResult(ctx context.Context, checkID id.CheckID, result cmodels.ComparisonResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal comparison result: %w", err)
	}
	_, err = s.conn(ctx).ExecContext(ctx, `
		INSERT INTO comparison_results (check_id, result, compared_at)
		VALUES ($1, $2, $3)
	`, uuid.UUID(checkID), payload, result.ComparedAt)
	if err != nil {
		return fmt.Errorf("insert comparison result: %w", err)
	}
	return nil
}

func (s *PostgresStore) AppendReview(ctx context.Context, decision models.ReviewDecision) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO review_decisions (check_id, decision, notes, reviewed_by, decided_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		uuid.UUID(decision.CheckID),
		string(decision.Decision),
		decision.Notes,
		decision.ReviewedBy,
		decision.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert review decision: %w", err)
	}
	return nil
}

func (s *PostgresStore) History(ctx context.Context, checkID id.CheckID) (*models.History, error) {
	if _, err := s.FindByID(ctx, checkID); err != nil {
		return nil, err
	}
	h := &models.History{
		CheckID: checkID,
		Results: []cmodels.ComparisonResult{},
		Reviews: []models.ReviewDecision{},
	}

	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT result FROM comparison_results WHERE check_id = $1 ORDER BY id ASC`, uuid.UUID(checkID))
	if err != nil {
		return nil, fmt.Errorf("query comparison results: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan comparison result: %w", err)
		}
		var result cmodels.ComparisonResult
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("unmarshal comparison result: %w", err)
		}
		h.Results = append(h.Results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comparison results: %w", err)
	}

	reviewRows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT decision, notes, reviewed_by, decided_at
		FROM review_decisions
		WHERE check_id = $1
		ORDER BY id ASC
	`, uuid.UUID(checkID))
	if err != nil {
		return nil, fmt.Errorf("query review decisions: %w", err)
	}
	defer reviewRows.Close()
	for reviewRows.Next() {
		d := models.ReviewDecision{CheckID: checkID}
		var decision string
		if err := reviewRows.Scan(&decision, &d.Notes, &d.ReviewedBy, &d.Timestamp); err != nil {
			return nil, fmt.Errorf("scan review decision: %w", err)
		}
		d.Decision = models.Decision(decision)
		h.Reviews = append(h.Reviews, d)
	}
	if err := reviewRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review decisions: %w", err)
	}
	return h, nil
}

func (s *PostgresStore) CreateCase(ctx context.Context, c *models.Case) error {
	employee, err := json.Marshal(c.Employee)
	if err != nil {
		return fmt.Errorf("marshal employee: %w", err)
	}
	_, err = s.conn(ctx).ExecContext(ctx, `
		INSERT INTO cases (id, client_id, employee, position_applied, check_ids,
			overall_risk_level, archived, revision, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8, $9)
	`,
		uuid.UUID(c.ID),
		uuid.UUID(c.ClientID),
		employee,
		c.PositionApplied,
		pq.Array(checkIDStrings(c.CheckIDs)),
		c.OverallRiskLevel.String(),
		c.Archived,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("case %s: %w", c.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert case: %w", err)
	}
	c.Revision = 1
	return nil
}

func (s *PostgresStore) FindCase(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	var (
		c        models.Case
		caseUUID uuid.UUID
		clientID uuid.UUID
		employee []byte
		checkIDs []string
		zone     string
		revision int64
	)
	err := s.conn(ctx).QueryRowContext(ctx, `
		SELECT id, client_id, employee, position_applied, check_ids,
			overall_risk_level, archived, revision, created_at, updated_at
		FROM cases WHERE id = $1
	`, uuid.UUID(caseID)).Scan(
		&caseUUID,
		&clientID,
		&employee,
		&c.PositionApplied,
		pq.Array(&checkIDs),
		&zone,
		&c.Archived,
		&revision,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find case by id: %w", err)
	}
	c.ID = id.CaseID(caseUUID)
	c.ClientID = id.ClientID(clientID)
	c.Revision = uint64(revision)
	if err := json.Unmarshal(employee, &c.Employee); err != nil {
		return nil, fmt.Errorf("unmarshal employee: %w", err)
	}
	if c.OverallRiskLevel, err = cmodels.ParseZone(zone); err != nil {
		return nil, fmt.Errorf("parse case zone: %w", err)
	}
	c.CheckIDs = make([]id.CheckID, 0, len(checkIDs))
	for _, raw := range checkIDs {
		checkID, err := id.ParseCheckID(raw)
		if err != nil {
			return nil, fmt.Errorf("parse case check id: %w", err)
		}
		c.CheckIDs = append(c.CheckIDs, checkID)
	}
	return &c, nil
}

func (s *PostgresStore) UpdateCase(ctx context.Context, c *models.Case, expected uint64) error {
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE cases
		SET check_ids = $2, overall_risk_level = $3, archived = $4,
			revision = revision + 1, updated_at = $5
		WHERE id = $1 AND revision = $6
	`,
		uuid.UUID(c.ID),
		pq.Array(checkIDStrings(c.CheckIDs)),
		c.OverallRiskLevel.String(),
		c.Archived,
		c.UpdatedAt,
		int64(expected),
	)
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update case rows affected: %w", err)
	}
	if n == 0 {
		if _, findErr := s.FindCase(ctx, c.ID); errors.Is(findErr, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("case %s revision %d is stale: %w", c.ID, expected, sentinel.ErrConflict)
	}
	c.Revision = expected + 1
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCheck(row rowScanner) (*models.Check, error) {
	var (
		c          models.Check
		checkID    uuid.UUID
		caseID     uuid.UUID
		checkType  string
		state      string
		policy     []byte
		result     []byte
		review     []byte
		supersedes uuid.NullUUID
		revision   int64
	)
	if err := row.Scan(
		&checkID,
		&caseID,
		&checkType,
		&c.CompanyName,
		&state,
		&policy,
		&result,
		&review,
		&c.Version,
		&supersedes,
		&revision,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.ID = id.CheckID(checkID)
	c.CaseID = id.CaseID(caseID)
	c.Type = cmodels.CheckType(checkType)
	c.Revision = uint64(revision)

	var err error
	if c.State, err = models.ParseCheckState(state); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(policy, &c.Policy); err != nil {
		return nil, fmt.Errorf("unmarshal policy: %w", err)
	}
	if len(result) > 0 {
		c.Result = &cmodels.ComparisonResult{}
		if err := json.Unmarshal(result, c.Result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
	}
	if len(review) > 0 {
		c.Review = &models.ReviewDecision{}
		if err := json.Unmarshal(review, c.Review); err != nil {
			return nil, fmt.Errorf("unmarshal review: %w", err)
		}
	}
	if supersedes.Valid {
		prev := id.CheckID(supersedes.UUID)
		c.Supersedes = &prev
	}
	return &c, nil
}

func encodeCheck(check *models.Check) (policy, result, review []byte, err error) {
	if policy, err = json.Marshal(check.Policy); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal policy: %w", err)
	}
	if check.Result != nil {
		if result, err = json.Marshal(check.Result); err != nil {
			return nil, nil, nil, fmt.Errorf("marshal result: %w", err)
		}
	}
	if check.Review != nil {
		if review, err = json.Marshal(check.Review); err != nil {
			return nil, nil, nil, fmt.Errorf("marshal review: %w", err)
		}
	}
	return policy, result, review, nil
}

// nullableJSON maps an absent document to SQL NULL.
func nullableJSON(b []byte) any {
	if b == nil {
		return nil
	}
	return b
}

func nullableCheckID(checkID *id.CheckID) *uuid.UUID {
	if checkID == nil {
		return nil
	}
	u := uuid.UUID(*checkID)
	return &u
}

func checkIDStrings(ids []id.CheckID) []string {
	out := make([]string, len(ids))
	for i, checkID := range ids {
		out[i] = checkID.String()
	}
	return out
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
