package reporting

import (
	"context"
	"errors"
	"sync"
	"time"

	"missedcall/internal/booking"
	"missedcall/internal/calls"
)

// MemoryRepo is a simple in-memory reporting repository for tests.
// It enforces tenant isolation on reads.
type MemoryRepo struct {
	mu sync.Mutex

	Calls        []calls.Call
	Appointments []booking.Appointment
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

func (r *MemoryRepo) ListCalls(ctx context.Context, tenantID string, from, to time.Time) ([]calls.Call, error) {
	if tenantID == "" {
		return nil, errors.New("tenant_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]calls.Call, 0)
	for _, c := range r.Calls {
		if c.TenantID == tenantID && inRange(c.CreatedAt, from, to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemoryRepo) ListAppointmentsCreated(ctx context.Context, tenantID string, from, to time.Time) ([]booking.Appointment, error) {
	if tenantID == "" {
		return nil, errors.New("tenant_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]booking.Appointment, 0)
	for _, a := range r.Appointments {
		if a.TenantID == tenantID && inRange(a.CreatedAt, from, to) {
			out = append(out, a)
		}
	}
	return out, nil
}
