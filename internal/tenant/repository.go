package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"missedcall/pkg/utils"
)

var ErrNotFound = errors.New("tenant: not found")

// Repository is the persistence contract for tenants and their business hours.
type Repository interface {
	FindByID(ctx context.Context, id string) (Tenant, error)
	FindBySlug(ctx context.Context, slug string) (Tenant, error)
	FindByPhoneNumber(ctx context.Context, phone string) (Tenant, error)
	// FindByGatewayAccount returns a tenant sending on its own Twilio account sid.
	FindByGatewayAccount(ctx context.Context, accountSID string) (Tenant, error)

	// UpdateIVRGreeting replaces the greeting text and drops audio rendered from the old text.
	UpdateIVRGreeting(ctx context.Context, tenantID, text string) error
	// SetIVRAudioURL records audio rendered from greeting. It reports false, and
	// changes nothing, when the tenant's greeting is no longer that text.
	SetIVRAudioURL(ctx context.Context, tenantID, greeting, url string) (bool, error)

	BusinessHours(ctx context.Context, tenantID string, wd time.Weekday) (BusinessHours, bool, error)
	ListBusinessHours(ctx context.Context, tenantID string) ([]BusinessHours, error)
	UpsertBusinessHours(ctx context.Context, tenantID string, week []BusinessHours) error
}

type PostgresRepo struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db, clock: time.Now}
}

const tenantColumns = `id, slug, name, status, phone_number, twilio_account_sid, twilio_auth_token,
       ivr_greeting_text, ivr_audio_url, created_at, updated_at`

func (r *PostgresRepo) FindByID(ctx context.Context, id string) (Tenant, error) {
	return r.findOne(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
}

func (r *PostgresRepo) FindBySlug(ctx context.Context, slug string) (Tenant, error) {
	return r.findOne(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE slug = $1`, slug)
}

func (r *PostgresRepo) FindByPhoneNumber(ctx context.Context, phone string) (Tenant, error) {
	return r.findOne(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE phone_number = $1`, phone)
}

func (r *PostgresRepo) FindByGatewayAccount(ctx context.Context, accountSID string) (Tenant, error) {
	return r.findOne(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE twilio_account_sid = $1 ORDER BY created_at LIMIT 1`, accountSID)
}

func (r *PostgresRepo) findOne(ctx context.Context, q string, arg any) (Tenant, error) {
	var (
		t                    Tenant
		sid, token           sql.NullString
		greeting, audio, num sql.NullString
	)
	err := utils.Conn(ctx, r.db).QueryRowContext(ctx, q, arg).Scan(
		&t.ID,
		&t.Slug,
		&t.Name,
		&t.Status,
		&num,
		&sid,
		&token,
		&greeting,
		&audio,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Tenant{}, ErrNotFound
		}
		return Tenant{}, fmt.Errorf("tenant: lookup: %w", err)
	}
	t.PhoneNumber = num.String
	t.TwilioAccountSID = sid.String
	t.TwilioAuthToken = token.String
	t.IVRGreetingText = greeting.String
	t.IVRAudioURL = audio.String
	return t, nil
}

func (r *PostgresRepo) UpdateIVRGreeting(ctx context.Context, tenantID, text string) error {
	const q = `UPDATE tenants SET ivr_greeting_text = NULLIF($2, ''), ivr_audio_url = NULL, updated_at = $3 WHERE id = $1`
	return r.execOne(ctx, q, tenantID, text, r.clock().UTC())
}

func (r *PostgresRepo) SetIVRAudioURL(ctx context.Context, tenantID, greeting, url string) (bool, error) {
	const q = `UPDATE tenants SET ivr_audio_url = $2, updated_at = $3 WHERE id = $1 AND ivr_greeting_text = $4`
	res, err := utils.Conn(ctx, r.db).ExecContext(ctx, q, tenantID, url, r.clock().UTC(), greeting)
	if err != nil {
		return false, fmt.Errorf("tenant: set audio url: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PostgresRepo) execOne(ctx context.Context, q string, args ...any) error {
	res, err := utils.Conn(ctx, r.db).ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("tenant: update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) BusinessHours(ctx context.Context, tenantID string, wd time.Weekday) (BusinessHours, bool, error) {
	const q = `
SELECT tenant_id, weekday, is_open, open_time, close_time
FROM business_hours
WHERE tenant_id = $1 AND weekday = $2
`
	var h BusinessHours
	var weekday int
	err := utils.Conn(ctx, r.db).QueryRowContext(ctx, q, tenantID, int(wd)).Scan(
		&h.TenantID, &weekday, &h.IsOpen, &h.OpenTime, &h.CloseTime,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BusinessHours{}, false, nil
		}
		return BusinessHours{}, false, fmt.Errorf("tenant: business hours: %w", err)
	}
	h.Weekday = time.Weekday(weekday)
	return h, true, nil
}

func (r *PostgresRepo) ListBusinessHours(ctx context.Context, tenantID string) ([]BusinessHours, error) {
	const q = `
SELECT tenant_id, weekday, is_open, open_time, close_time
FROM business_hours
WHERE tenant_id = $1
ORDER BY weekday
`
	rows, err := utils.Conn(ctx, r.db).QueryContext(ctx, q, tenantID)
	if err != nil {
		return nil, fmt.Errorf("tenant: list business hours: %w", err)
	}
	defer rows.Close()

	var out []BusinessHours
	for rows.Next() {
		var h BusinessHours
		var weekday int
		if err := rows.Scan(&h.TenantID, &weekday, &h.IsOpen, &h.OpenTime, &h.CloseTime); err != nil {
			return nil, err
		}
		h.Weekday = time.Weekday(weekday)
		out = append(out, h)
	}
	return out, rows.Err()
}

// UpsertBusinessHours writes all seven rows in one transaction.
func (r *PostgresRepo) UpsertBusinessHours(ctx context.Context, tenantID string, week []BusinessHours) error {
	if err := ValidateWeek(week); err != nil {
		return err
	}
	const q = `
INSERT INTO business_hours (tenant_id, weekday, is_open, open_time, close_time)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (tenant_id, weekday)
DO UPDATE SET is_open = EXCLUDED.is_open,
              open_time = EXCLUDED.open_time,
              close_time = EXCLUDED.close_time
`
	return utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		for _, h := range week {
			if _, err := tx.ExecContext(ctx, q, tenantID, int(h.Weekday), h.IsOpen, h.OpenTime, h.CloseTime); err != nil {
				return fmt.Errorf("tenant: upsert business hours: %w", err)
			}
		}
		return nil
	})
}
