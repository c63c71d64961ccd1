package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"missedcall/internal/availability"
	"missedcall/pkg/utils"

	"github.com/lib/pq"
)

var (
	ErrNotFound = errors.New("booking: appointment not found")
	// ErrDuplicateSlot is returned when the active-slot unique index rejects an insert.
	ErrDuplicateSlot = errors.New("booking: slot already taken")
	// ErrStatusChanged means the appointment left the expected status before the update landed.
	ErrStatusChanged = errors.New("booking: status changed concurrently")
)

// Repository persists appointments. It also serves availability.AppointmentReader.
type Repository interface {
	AppointmentsOn(ctx context.Context, tenantID, date string) ([]availability.Appointment, error)
	ListByDate(ctx context.Context, tenantID, date string) ([]Appointment, error)
	// FindOverlapping returns active appointments on date intersecting [start, end).
	FindOverlapping(ctx context.Context, tenantID, date, start, end string) ([]Appointment, error)
	Insert(ctx context.Context, a Appointment) error
	FindByID(ctx context.Context, tenantID, id string) (Appointment, error)
	UpdateStatus(ctx context.Context, tenantID, id string, from, to Status, at time.Time) (Appointment, error)
	UpdateNotes(ctx context.Context, tenantID, id, notes string, at time.Time) (Appointment, error)
}

// Transactor runs the check-then-insert part of a booking atomically.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PostgresTransactor runs fn in a SERIALIZABLE transaction, retrying serialization failures.
type PostgresTransactor struct {
	db       *sql.DB
	attempts int
}

func NewPostgresTransactor(db *sql.DB, attempts int) *PostgresTransactor {
	return &PostgresTransactor{db: db, attempts: attempts}
}

func (t *PostgresTransactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return utils.WithSerializableTx(ctx, t.db, t.attempts, func(ctx context.Context, _ *sql.Tx) error {
		return fn(ctx)
	})
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const appointmentColumns = `id, tenant_id, service_id, service_option_id, quantity, selected_sub_option_ids,
	total_price_minor, to_char(appointment_date, 'YYYY-MM-DD'), start_time, end_time, status,
	customer_name, customer_phone, COALESCE(customer_email, ''), COALESCE(notes, ''), source, created_at, updated_at`

func (r *PostgresRepo) AppointmentsOn(ctx context.Context, tenantID, date string) ([]availability.Appointment, error) {
	const q = `
SELECT id, start_time, end_time, status
FROM appointments
WHERE tenant_id = $1 AND appointment_date = $2::date
ORDER BY start_time
`
	rows, err := utils.Conn(ctx, r.db).QueryContext(ctx, q, tenantID, date)
	if err != nil {
		return nil, fmt.Errorf("booking: appointments on: %w", err)
	}
	defer rows.Close()

	var out []availability.Appointment
	for rows.Next() {
		var a availability.Appointment
		if err := rows.Scan(&a.ID, &a.StartTime, &a.EndTime, &a.Status); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListByDate(ctx context.Context, tenantID, date string) ([]Appointment, error) {
	q := `SELECT ` + appointmentColumns + `
FROM appointments
WHERE tenant_id = $1 AND appointment_date = $2::date
ORDER BY start_time, created_at
`
	return r.query(ctx, q, tenantID, date)
}

func (r *PostgresRepo) FindOverlapping(ctx context.Context, tenantID, date, start, end string) ([]Appointment, error) {
	// HH:MM is fixed width, so text comparison orders like time.
	q := `SELECT ` + appointmentColumns + `
FROM appointments
WHERE tenant_id = $1 AND appointment_date = $2::date
  AND status NOT IN ('CANCELLED', 'NO_SHOW')
  AND start_time < $4 AND end_time > $3
ORDER BY start_time
`
	return r.query(ctx, q, tenantID, date, start, end)
}

func (r *PostgresRepo) Insert(ctx context.Context, a Appointment) error {
	const q = `
INSERT INTO appointments (
	id, tenant_id, service_id, service_option_id, quantity, selected_sub_option_ids,
	total_price_minor, appointment_date, start_time, end_time, status,
	customer_name, customer_phone, customer_email, notes, source, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8::date,$9,$10,$11,$12,$13,NULLIF($14,''),NULLIF($15,''),$16,$17,$18)
`
	subs := a.SubOptionIDs
	if subs == nil {
		subs = []int64{}
	}
	_, err := utils.Conn(ctx, r.db).ExecContext(ctx, q,
		a.ID, a.TenantID, a.ServiceID, a.ServiceOptionID, a.Quantity, pq.Array(subs),
		a.TotalPriceMinor, a.Date, a.StartTime, a.EndTime, string(a.Status),
		a.CustomerName, a.CustomerPhone, a.CustomerEmail, a.Notes, string(a.Source), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if utils.IsUniqueViolation(err) {
			return ErrDuplicateSlot
		}
		return fmt.Errorf("booking: insert: %w", err)
	}
	return nil
}

func (r *PostgresRepo) FindByID(ctx context.Context, tenantID, id string) (Appointment, error) {
	q := `SELECT ` + appointmentColumns + ` FROM appointments WHERE tenant_id = $1 AND id = $2`
	return r.one(ctx, q, tenantID, id)
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, tenantID, id string, from, to Status, at time.Time) (Appointment, error) {
	q := `UPDATE appointments SET status = $4, updated_at = $5
WHERE tenant_id = $1 AND id = $2 AND status = $3
RETURNING ` + appointmentColumns
	a, err := r.one(ctx, q, tenantID, id, string(from), string(to), at)
	if errors.Is(err, ErrNotFound) {
		return Appointment{}, ErrStatusChanged
	}
	if err != nil && utils.IsUniqueViolation(err) {
		return Appointment{}, ErrDuplicateSlot
	}
	return a, err
}

func (r *PostgresRepo) UpdateNotes(ctx context.Context, tenantID, id, notes string, at time.Time) (Appointment, error) {
	q := `UPDATE appointments SET notes = NULLIF($3, ''), updated_at = $4
WHERE tenant_id = $1 AND id = $2
RETURNING ` + appointmentColumns
	return r.one(ctx, q, tenantID, id, notes, at)
}

func (r *PostgresRepo) one(ctx context.Context, q string, args ...any) (Appointment, error) {
	a, err := scanAppointment(utils.Conn(ctx, r.db).QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Appointment{}, ErrNotFound
		}
		return Appointment{}, fmt.Errorf("booking: query: %w", err)
	}
	return a, nil
}

func (r *PostgresRepo) query(ctx context.Context, q string, args ...any) ([]Appointment, error) {
	rows, err := utils.Conn(ctx, r.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("booking: query: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (Appointment, error) {
	var (
		a      Appointment
		option sql.NullInt64
		subs   pq.Int64Array
		status string
		source string
	)
	err := row.Scan(
		&a.ID, &a.TenantID, &a.ServiceID, &option, &a.Quantity, &subs,
		&a.TotalPriceMinor, &a.Date, &a.StartTime, &a.EndTime, &status,
		&a.CustomerName, &a.CustomerPhone, &a.CustomerEmail, &a.Notes, &source, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return Appointment{}, err
	}
	if option.Valid {
		v := option.Int64
		a.ServiceOptionID = &v
	}
	a.SubOptionIDs = []int64(subs)
	a.Status = Status(status)
	a.Source = Source(source)
	return a, nil
}
