package verification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"missedcall/pkg/utils"
)

var (
	ErrNotFound        = errors.New("verification: no valid code")
	ErrAlreadyConsumed = errors.New("verification: code already consumed")
)

// Repository persists verification codes.
type Repository interface {
	Insert(ctx context.Context, v Verification) error
	// LatestValid returns the newest unconsumed row for (tenant, phone, code) unexpired at now.
	LatestValid(ctx context.Context, tenantID, phone, code string, now time.Time) (Verification, error)
	// Consume flips consumed exactly once; a second call returns ErrAlreadyConsumed.
	Consume(ctx context.Context, id string, at time.Time) error
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Insert(ctx context.Context, v Verification) error {
	const q = `
INSERT INTO phone_verifications (id, tenant_id, phone, code, expires_at, consumed, created_at)
VALUES ($1,$2,$3,$4,$5,false,$6)
`
	if _, err := utils.Conn(ctx, r.db).ExecContext(ctx, q, v.ID, v.TenantID, v.Phone, v.Code, v.ExpiresAt, v.CreatedAt); err != nil {
		return fmt.Errorf("verification: insert: %w", err)
	}
	return nil
}

func (r *PostgresRepo) LatestValid(ctx context.Context, tenantID, phone, code string, now time.Time) (Verification, error) {
	const q = `
SELECT id, tenant_id, phone, code, expires_at, consumed, consumed_at, created_at
FROM phone_verifications
WHERE tenant_id = $1 AND phone = $2 AND code = $3
  AND consumed = false AND expires_at > $4
ORDER BY created_at DESC
LIMIT 1
`
	var (
		v          Verification
		consumedAt sql.NullTime
	)
	err := utils.Conn(ctx, r.db).QueryRowContext(ctx, q, tenantID, phone, code, now).Scan(
		&v.ID, &v.TenantID, &v.Phone, &v.Code, &v.ExpiresAt, &v.Consumed, &consumedAt, &v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Verification{}, ErrNotFound
		}
		return Verification{}, fmt.Errorf("verification: lookup: %w", err)
	}
	if consumedAt.Valid {
		t := consumedAt.Time
		v.ConsumedAt = &t
	}
	return v, nil
}

func (r *PostgresRepo) Consume(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE phone_verifications SET consumed = true, consumed_at = $2 WHERE id = $1 AND consumed = false`
	res, err := utils.Conn(ctx, r.db).ExecContext(ctx, q, id, at)
	if err != nil {
		return fmt.Errorf("verification: consume: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyConsumed
	}
	return nil
}
