package reporting

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"missedcall/internal/booking"
	"missedcall/internal/calls"
	"missedcall/pkg/utils"
)

// Repository abstracts data access for reporting.
// Every method must filter by tenant.
type Repository interface {
	ListCalls(ctx context.Context, tenantID string, from, to time.Time) ([]calls.Call, error)
	ListAppointmentsCreated(ctx context.Context, tenantID string, from, to time.Time) ([]booking.Appointment, error)
}

// PostgresRepo reads only the columns the summaries need.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) ListCalls(ctx context.Context, tenantID string, from, to time.Time) ([]calls.Call, error) {
	const q = `
SELECT id, status, ivr_response, callback_handled, created_at
FROM calls
WHERE tenant_id = $1 AND created_at >= $2 AND created_at < $3
`
	rows, err := utils.Conn(ctx, r.db).QueryContext(ctx, q, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("reporting: list calls: %w", err)
	}
	defer rows.Close()

	var out []calls.Call
	for rows.Next() {
		var (
			c   = calls.Call{TenantID: tenantID}
			ivr sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Status, &ivr, &c.CallbackHandled, &c.CreatedAt); err != nil {
			return nil, err
		}
		if ivr.Valid {
			o := calls.IVROutcome(ivr.String)
			c.IVRResponse = &o
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListAppointmentsCreated(ctx context.Context, tenantID string, from, to time.Time) ([]booking.Appointment, error) {
	const q = `
SELECT id, status, source, total_price_minor, created_at
FROM appointments
WHERE tenant_id = $1 AND created_at >= $2 AND created_at < $3
`
	rows, err := utils.Conn(ctx, r.db).QueryContext(ctx, q, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("reporting: list appointments: %w", err)
	}
	defer rows.Close()

	var out []booking.Appointment
	for rows.Next() {
		a := booking.Appointment{TenantID: tenantID}
		if err := rows.Scan(&a.ID, &a.Status, &a.Source, &a.TotalPriceMinor, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
