package tenant

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory tenant store useful for tests.
type MemoryRepo struct {
	mu      sync.RWMutex
	tenants map[string]Tenant
	hours   map[string]map[time.Weekday]BusinessHours
}

func NewMemoryRepo(tenants ...Tenant) *MemoryRepo {
	r := &MemoryRepo{
		tenants: make(map[string]Tenant),
		hours:   make(map[string]map[time.Weekday]BusinessHours),
	}
	for _, t := range tenants {
		r.tenants[t.ID] = t
	}
	return r
}

func (r *MemoryRepo) Put(t Tenant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants[t.ID] = t
}

func (r *MemoryRepo) FindByID(ctx context.Context, id string) (Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tenants[id]
	if !ok {
		return Tenant{}, ErrNotFound
	}
	return t, nil
}

func (r *MemoryRepo) FindBySlug(ctx context.Context, slug string) (Tenant, error) {
	return r.find(func(t Tenant) bool { return t.Slug == slug })
}

func (r *MemoryRepo) FindByPhoneNumber(ctx context.Context, phone string) (Tenant, error) {
	return r.find(func(t Tenant) bool { return t.PhoneNumber != "" && t.PhoneNumber == phone })
}

func (r *MemoryRepo) FindByGatewayAccount(ctx context.Context, accountSID string) (Tenant, error) {
	return r.find(func(t Tenant) bool { return accountSID != "" && t.TwilioAccountSID == accountSID })
}

func (r *MemoryRepo) find(match func(Tenant) bool) (Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tenants {
		if match(t) {
			return t, nil
		}
	}
	return Tenant{}, ErrNotFound
}

func (r *MemoryRepo) UpdateIVRGreeting(ctx context.Context, tenantID, text string) error {
	return r.update(tenantID, func(t *Tenant) { t.IVRGreetingText = text; t.IVRAudioURL = "" })
}

func (r *MemoryRepo) SetIVRAudioURL(ctx context.Context, tenantID, greeting, url string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[tenantID]
	if !ok || t.IVRGreetingText != greeting {
		return false, nil
	}
	t.IVRAudioURL = url
	r.tenants[tenantID] = t
	return true, nil
}

func (r *MemoryRepo) update(id string, fn func(*Tenant)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return ErrNotFound
	}
	fn(&t)
	r.tenants[id] = t
	return nil
}

func (r *MemoryRepo) BusinessHours(ctx context.Context, tenantID string, wd time.Weekday) (BusinessHours, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.hours[tenantID][wd]
	return h, ok, nil
}

func (r *MemoryRepo) ListBusinessHours(ctx context.Context, tenantID string) ([]BusinessHours, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]BusinessHours, 0, 7)
	for _, h := range r.hours[tenantID] {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Weekday < out[j].Weekday })
	return out, nil
}

func (r *MemoryRepo) UpsertBusinessHours(ctx context.Context, tenantID string, week []BusinessHours) error {
	if err := ValidateWeek(week); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m := make(map[time.Weekday]BusinessHours, 7)
	for _, h := range week {
		h.TenantID = tenantID
		m[h.Weekday] = h
	}
	r.hours[tenantID] = m
	return nil
}

// SetHours is a test helper that writes a single weekday.
func (r *MemoryRepo) SetHours(h BusinessHours) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hours[h.TenantID] == nil {
		r.hours[h.TenantID] = make(map[time.Weekday]BusinessHours)
	}
	r.hours[h.TenantID][h.Weekday] = h
}
