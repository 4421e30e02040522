package vatrate

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// DBTX is the subset of pgxpool.Pool and pgx.Tx used by PGStore.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore reads and writes the vat_rates table.
type PGStore struct {
	db DBTX
}

// NewPGStore constructs a PGStore.
func NewPGStore(db DBTX) *PGStore {
	return &PGStore{db: db}
}

const selectColumns = `id, tenant_id, code, description, percentage::text, nature, created_at`

const listRates = `SELECT ` + selectColumns + ` FROM vat_rates WHERE tenant_id = $1 ORDER BY code`

const listRatesByIDs = `SELECT ` + selectColumns + ` FROM vat_rates WHERE tenant_id = $1 AND id = ANY($2::uuid[]) ORDER BY code`

const insertRate = `INSERT INTO vat_rates (id, tenant_id, code, description, percentage, nature)
VALUES ($1, $2, $3, $4, $5::numeric, NULLIF($6, ''))
RETURNING ` + selectColumns

// List returns the tenant's rates ordered by code.
func (s *PGStore) List(ctx context.Context, tenantID uuid.UUID) ([]Rate, error) {
	rows, err := s.db.Query(ctx, listRates, pgUUID(tenantID))
	if err != nil {
		return nil, fmt.Errorf("list vat rates: %w", err)
	}
	return collect(rows)
}

// ListByIDs returns the tenant's rates whose identifiers appear in ids.
func (s *PGStore) ListByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Rate, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	params := make([]pgtype.UUID, len(ids))
	for i, id := range ids {
		params[i] = pgUUID(id)
	}
	rows, err := s.db.Query(ctx, listRatesByIDs, pgUUID(tenantID), params)
	if err != nil {
		return nil, fmt.Errorf("list vat rates by id: %w", err)
	}
	return collect(rows)
}

// Create inserts rate and returns the stored row.
func (s *PGStore) Create(ctx context.Context, rate Rate) (Rate, error) {
	if rate.ID == uuid.Nil {
		rate.ID = uuid.New()
	}
	row := s.db.QueryRow(ctx, insertRate,
		pgUUID(rate.ID),
		pgUUID(rate.TenantID),
		rate.Code,
		rate.Description,
		rate.Percentage.String(),
		rate.Nature,
	)
	stored, err := scan(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Rate{}, ErrDuplicateCode
		}
		return Rate{}, fmt.Errorf("insert vat rate: %w", err)
	}
	return stored, nil
}

func collect(rows pgx.Rows) ([]Rate, error) {
	defer rows.Close()
	var out []Rate
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scan(row pgx.Row) (Rate, error) {
	var (
		id, tenantID pgtype.UUID
		pct          string
		nature       pgtype.Text
		createdAt    pgtype.Timestamptz
		r            Rate
	)
	if err := row.Scan(&id, &tenantID, &r.Code, &r.Description, &pct, &nature, &createdAt); err != nil {
		return Rate{}, err
	}
	parsed, err := decimal.NewFromString(pct)
	if err != nil {
		return Rate{}, fmt.Errorf("parse percentage %q: %w", pct, err)
	}
	r.ID = uuid.UUID(id.Bytes)
	r.TenantID = uuid.UUID(tenantID.Bytes)
	r.Percentage = parsed
	if nature.Valid {
		r.Nature = nature.String
	}
	if createdAt.Valid {
		r.CreatedAt = createdAt.Time
	}
	return r, nil
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}
