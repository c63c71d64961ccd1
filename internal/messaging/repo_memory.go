package messaging

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory SmsLog store useful for tests.
type MemoryRepo struct {
	mu   sync.Mutex
	rows []SmsLog
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Insert(ctx context.Context, row SmsLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, row)
	return nil
}

func (r *MemoryRepo) UpdateStatusByMessageID(ctx context.Context, messageID string, status DeliveryStatus, errorCode string, deliveredAt *time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.rows {
		row := &r.rows[i]
		if row.MessageID == "" || row.MessageID != messageID || row.Status.rank() > status.rank() {
			continue
		}
		row.Status = status
		if errorCode != "" {
			row.ErrorCode = errorCode
		}
		if deliveredAt != nil {
			t := *deliveredAt
			row.DeliveredAt = &t
		}
		n++
	}
	return n, nil
}

func (r *MemoryRepo) ListByCall(ctx context.Context, tenantID, callID string) ([]SmsLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []SmsLog
	for _, row := range r.rows {
		if row.TenantID == tenantID && row.CallID != nil && *row.CallID == callID {
			out = append(out, row)
		}
	}
	return out, nil
}

// All returns a copy of every stored row.
func (r *MemoryRepo) All() []SmsLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SmsLog, len(r.rows))
	copy(out, r.rows)
	return out
}
