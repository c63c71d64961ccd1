package verification

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory verification store useful for tests.
type MemoryRepo struct {
	mu   sync.Mutex
	rows []Verification
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Insert(ctx context.Context, v Verification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, v)
	return nil
}

func (r *MemoryRepo) LatestValid(ctx context.Context, tenantID, phone, code string, now time.Time) (Verification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.rows) - 1; i >= 0; i-- {
		v := r.rows[i]
		if v.TenantID == tenantID && v.Phone == phone && v.Code == code && v.ValidAt(now) {
			return v, nil
		}
	}
	return Verification{}, ErrNotFound
}

func (r *MemoryRepo) Consume(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID != id {
			continue
		}
		if r.rows[i].Consumed {
			return ErrAlreadyConsumed
		}
		r.rows[i].Consumed = true
		r.rows[i].ConsumedAt = &at
		return nil
	}
	return ErrAlreadyConsumed
}

// All returns a copy of every stored row.
func (r *MemoryRepo) All() []Verification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Verification, len(r.rows))
	copy(out, r.rows)
	return out
}
