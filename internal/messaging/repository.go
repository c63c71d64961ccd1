package messaging

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"missedcall/pkg/utils"
)

// Repository persists SmsLog rows.
type Repository interface {
	Insert(ctx context.Context, row SmsLog) error
	// UpdateStatusByMessageID updates every row with messageID and returns how many changed.
	UpdateStatusByMessageID(ctx context.Context, messageID string, status DeliveryStatus, errorCode string, deliveredAt *time.Time) (int64, error)
	ListByCall(ctx context.Context, tenantID, callID string) ([]SmsLog, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Insert(ctx context.Context, row SmsLog) error {
	const q = `
INSERT INTO sms_logs (id, tenant_id, call_id, type, to_number, from_number, body, status,
                      message_id, error_code, error_message, sent_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NULLIF($9,''),NULLIF($10,''),NULLIF($11,''),$12)
`
	_, err := utils.Conn(ctx, r.db).ExecContext(ctx, q,
		row.ID,
		row.TenantID,
		row.CallID,
		string(row.Type),
		row.To,
		row.From,
		row.Body,
		string(row.Status),
		row.MessageID,
		row.ErrorCode,
		row.ErrorMessage,
		row.SentAt,
	)
	if err != nil {
		return fmt.Errorf("messaging: insert sms log: %w", err)
	}
	return nil
}

func (r *PostgresRepo) UpdateStatusByMessageID(ctx context.Context, messageID string, status DeliveryStatus, errorCode string, deliveredAt *time.Time) (int64, error) {
	const q = `
UPDATE sms_logs
SET status = $2,
    error_code = COALESCE(NULLIF($3, ''), error_code),
    delivered_at = COALESCE($4, delivered_at)
WHERE message_id = $1
  AND (CASE status WHEN 'QUEUED' THEN 1 WHEN 'SENT' THEN 2 ELSE 3 END) <= $5
`
	res, err := utils.Conn(ctx, r.db).ExecContext(ctx, q, messageID, string(status), errorCode, deliveredAt, status.rank())
	if err != nil {
		return 0, fmt.Errorf("messaging: update status: %w", err)
	}
	return res.RowsAffected()
}

func (r *PostgresRepo) ListByCall(ctx context.Context, tenantID, callID string) ([]SmsLog, error) {
	const q = `
SELECT id, tenant_id, call_id, type, to_number, from_number, body, status,
       COALESCE(message_id, ''), COALESCE(error_code, ''), COALESCE(error_message, ''), sent_at, delivered_at
FROM sms_logs
WHERE tenant_id = $1 AND call_id = $2
ORDER BY sent_at
`
	rows, err := utils.Conn(ctx, r.db).QueryContext(ctx, q, tenantID, callID)
	if err != nil {
		return nil, fmt.Errorf("messaging: list by call: %w", err)
	}
	defer rows.Close()

	var out []SmsLog
	for rows.Next() {
		var (
			l           SmsLog
			callIDCol   sql.NullString
			deliveredAt sql.NullTime
		)
		if err := rows.Scan(&l.ID, &l.TenantID, &callIDCol, &l.Type, &l.To, &l.From, &l.Body, &l.Status,
			&l.MessageID, &l.ErrorCode, &l.ErrorMessage, &l.SentAt, &deliveredAt); err != nil {
			return nil, err
		}
		if callIDCol.Valid {
			l.CallID = &callIDCol.String
		}
		if deliveredAt.Valid {
			t := deliveredAt.Time
			l.DeliveredAt = &t
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
