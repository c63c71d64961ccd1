package audit

import (
	"context"
	"sync"
)

// MemoryRepo keeps events in append order. Tests only.
type MemoryRepo struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Append(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of everything appended so far.
func (r *MemoryRepo) Events() []Event {
	return r.filter(func(Event) bool { return true })
}

// ForTenant returns the events recorded against tenantID.
func (r *MemoryRepo) ForTenant(tenantID string) []Event {
	return r.filter(func(e Event) bool { return e.TenantID == tenantID })
}

// CountByType tallies tenantID's events per type.
func (r *MemoryRepo) CountByType(tenantID string) map[EventType]int {
	out := make(map[EventType]int)
	for _, e := range r.ForTenant(tenantID) {
		out[e.Type]++
	}
	return out
}

func (r *MemoryRepo) filter(keep func(Event) bool) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, 0, len(r.events))
	for _, e := range r.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
