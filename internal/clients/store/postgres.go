package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"bgv/internal/clients/models"
	cmodels "bgv/internal/comparison/models"
	id "bgv/pkg/domain"
	"bgv/pkg/platform/sentinel"
)

// PostgresStore persists clients in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed client store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, c *models.Client) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, sku, primary_method, fallback_method, instructions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		uuid.UUID(c.ID),
		c.CompanyName,
		string(c.SKU),
		string(c.PrimaryMethod),
		string(c.FallbackMethod),
		pq.Array(c.Instructions),
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("client %s: %w", c.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, clientID id.ClientID) (*models.Client, error) {
	var (
		c        models.Client
		rawID    uuid.UUID
		sku      string
		primary  string
		fallback string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, sku, primary_method, fallback_method, instructions, created_at, updated_at
		FROM clients WHERE id = $1
	`, uuid.UUID(clientID)).Scan(
		&rawID,
		&c.CompanyName,
		&sku,
		&primary,
		&fallback,
		pq.Array(&c.Instructions),
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find client by id: %w", err)
	}
	c.ID = id.ClientID(rawID)
	c.SKU = cmodels.SKU(sku)
	c.PrimaryMethod = models.VerificationMethod(primary)
	c.FallbackMethod = models.VerificationMethod(fallback)
	if c.Instructions == nil {
		c.Instructions = []string{}
	}
	return &c, nil
}

func (s *PostgresStore) Update(ctx context.Context, c *models.Client) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE clients
		SET sku = $2, primary_method = $3, fallback_method = $4, instructions = $5, updated_at = $6
		WHERE id = $1
	`,
		uuid.UUID(c.ID),
		string(c.SKU),
		string(c.PrimaryMethod),
		string(c.FallbackMethod),
		pq.Array(c.Instructions),
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("update client rows affected: %w", err)
	} else if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
