package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"missedcall/internal/availability"
)

// MemoryRepo is an in-memory appointment store useful for tests. It enforces
// the same one-active-appointment-per-start rule as the Postgres partial index.
type MemoryRepo struct {
	mu    sync.RWMutex
	appts []Appointment
}

func NewMemoryRepo(appts ...Appointment) *MemoryRepo {
	return &MemoryRepo{appts: appts}
}

func (r *MemoryRepo) AppointmentsOn(ctx context.Context, tenantID, date string) ([]availability.Appointment, error) {
	list, _ := r.ListByDate(ctx, tenantID, date)
	out := make([]availability.Appointment, 0, len(list))
	for _, a := range list {
		out = append(out, a.availability())
	}
	return out, nil
}

func (r *MemoryRepo) ListByDate(ctx context.Context, tenantID, date string) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Appointment
	for _, a := range r.appts {
		if a.TenantID == tenantID && a.Date == date {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (r *MemoryRepo) FindOverlapping(ctx context.Context, tenantID, date, start, end string) ([]Appointment, error) {
	list, _ := r.ListByDate(ctx, tenantID, date)
	var out []Appointment
	for _, a := range list {
		if a.Status.Active() && a.StartTime < end && a.EndTime > start {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *MemoryRepo) Insert(ctx context.Context, a Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.appts {
		if b.TenantID == a.TenantID && b.Date == a.Date && b.StartTime == a.StartTime && b.Status.Active() && a.Status.Active() {
			return ErrDuplicateSlot
		}
	}
	r.appts = append(r.appts, a)
	return nil
}

func (r *MemoryRepo) FindByID(ctx context.Context, tenantID, id string) (Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.appts {
		if a.TenantID == tenantID && a.ID == id {
			return a, nil
		}
	}
	return Appointment{}, ErrNotFound
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, tenantID, id string, from, to Status, at time.Time) (Appointment, error) {
	return r.update(tenantID, id, func(a *Appointment) error {
		if a.Status != from {
			return ErrStatusChanged
		}
		a.Status = to
		a.UpdatedAt = at
		return nil
	})
}

func (r *MemoryRepo) UpdateNotes(ctx context.Context, tenantID, id, notes string, at time.Time) (Appointment, error) {
	return r.update(tenantID, id, func(a *Appointment) error {
		a.Notes = notes
		a.UpdatedAt = at
		return nil
	})
}

func (r *MemoryRepo) update(tenantID, id string, fn func(*Appointment) error) (Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.appts {
		if r.appts[i].TenantID == tenantID && r.appts[i].ID == id {
			if err := fn(&r.appts[i]); err != nil {
				return Appointment{}, err
			}
			return r.appts[i], nil
		}
	}
	return Appointment{}, ErrNotFound
}

// MemoryTransactor serializes units of work with a mutex.
type MemoryTransactor struct {
	mu sync.Mutex
}

func (t *MemoryTransactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}
