package calls

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"missedcall/pkg/utils"
)

var ErrNotFound = errors.New("calls: not found")

// Repository persists calls.
type Repository interface {
	Create(ctx context.Context, c Call) error
	FindByID(ctx context.Context, id string) (Call, error)
	// SetIVRResponse records the gather outcome only if none is recorded yet.
	// applied is false when the call already had an outcome.
	SetIVRResponse(ctx context.Context, id string, outcome IVROutcome, digit string, at time.Time) (applied bool, err error)
	SetCallbackHandled(ctx context.Context, tenantID, id string, handled bool, by string, at time.Time) (Call, error)
	List(ctx context.Context, f ListFilter) ([]Call, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const callColumns = `id, tenant_id, provider_call_id, from_number, to_number, status, ivr_response, digit,
       callback_handled, callback_handled_at, callback_handled_by, created_at, updated_at`

func (r *PostgresRepo) Create(ctx context.Context, c Call) error {
	const q = `
INSERT INTO calls (id, tenant_id, provider_call_id, from_number, to_number, status, created_at, updated_at)
VALUES ($1,$2,NULLIF($3,''),$4,$5,$6,$7,$7)
`
	_, err := utils.Conn(ctx, r.db).ExecContext(ctx, q, c.ID, c.TenantID, c.ProviderCallID, c.From, c.To, string(c.Status), c.CreatedAt)
	if err != nil {
		return fmt.Errorf("calls: create: %w", err)
	}
	return nil
}

func (r *PostgresRepo) FindByID(ctx context.Context, id string) (Call, error) {
	row := utils.Conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+callColumns+` FROM calls WHERE id = $1`, id)
	c, err := scanCall(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Call{}, ErrNotFound
		}
		return Call{}, fmt.Errorf("calls: find: %w", err)
	}
	return c, nil
}

func (r *PostgresRepo) SetIVRResponse(ctx context.Context, id string, outcome IVROutcome, digit string, at time.Time) (bool, error) {
	const q = `
UPDATE calls
SET ivr_response = $2, digit = NULLIF($3, ''), updated_at = $4
WHERE id = $1 AND ivr_response IS NULL
`
	res, err := utils.Conn(ctx, r.db).ExecContext(ctx, q, id, string(outcome), digit, at)
	if err != nil {
		return false, fmt.Errorf("calls: set ivr response: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *PostgresRepo) SetCallbackHandled(ctx context.Context, tenantID, id string, handled bool, by string, at time.Time) (Call, error) {
	q := `
UPDATE calls
SET callback_handled = true, callback_handled_at = $3, callback_handled_by = $4, updated_at = $3
WHERE tenant_id = $1 AND id = $2
RETURNING ` + callColumns
	args := []any{tenantID, id, at, by}
	if !handled {
		q = `
UPDATE calls
SET callback_handled = false, callback_handled_at = NULL, callback_handled_by = NULL, updated_at = $3
WHERE tenant_id = $1 AND id = $2
RETURNING ` + callColumns
		args = args[:3]
	}
	c, err := scanCall(utils.Conn(ctx, r.db).QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Call{}, ErrNotFound
		}
		return Call{}, fmt.Errorf("calls: set callback handled: %w", err)
	}
	return c, nil
}

func (r *PostgresRepo) List(ctx context.Context, f ListFilter) ([]Call, error) {
	var (
		where = []string{"tenant_id = $1"}
		args  = []any{f.TenantID}
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if !f.Since.IsZero() {
		add("created_at >= $%d", f.Since)
	}
	if !f.Until.IsZero() {
		add("created_at < $%d", f.Until)
	}
	switch f.Outcome {
	case "":
	case IVRNoResponse:
		where = append(where, "ivr_response IS NULL")
	default:
		add("ivr_response = $%d", string(f.Outcome))
	}
	if f.Handled != nil {
		add("callback_handled = $%d", *f.Handled)
	}
	args = append(args, f.limit())
	q := fmt.Sprintf(`SELECT %s FROM calls WHERE %s ORDER BY created_at DESC LIMIT $%d`,
		callColumns, strings.Join(where, " AND "), len(args))

	rows, err := utils.Conn(ctx, r.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("calls: list: %w", err)
	}
	defer rows.Close()

	var out []Call
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCall(s scanner) (Call, error) {
	var (
		c                 Call
		providerID, digit sql.NullString
		ivr, handledBy    sql.NullString
		handledAt         sql.NullTime
	)
	err := s.Scan(
		&c.ID,
		&c.TenantID,
		&providerID,
		&c.From,
		&c.To,
		&c.Status,
		&ivr,
		&digit,
		&c.CallbackHandled,
		&handledAt,
		&handledBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return Call{}, err
	}
	c.ProviderCallID = providerID.String
	c.Digit = digit.String
	c.CallbackHandledBy = handledBy.String
	if ivr.Valid {
		o := IVROutcome(ivr.String)
		c.IVRResponse = &o
	}
	if handledAt.Valid {
		t := handledAt.Time
		c.CallbackHandledAt = &t
	}
	return c, nil
}
