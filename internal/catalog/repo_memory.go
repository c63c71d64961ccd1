package catalog

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory catalog useful for tests.
// Inactive services and options are stored but filtered on read.
type MemoryRepo struct {
	mu       sync.RWMutex
	services []Service
}

func NewMemoryRepo(services ...Service) *MemoryRepo {
	return &MemoryRepo{services: services}
}

func (r *MemoryRepo) Add(s Service) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services = append(r.services, s)
}

func (r *MemoryRepo) FindActiveService(ctx context.Context, tenantID string, serviceID int64) (Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.services {
		if s.TenantID == tenantID && s.ID == serviceID && s.Active {
			return activeOnly(s), nil
		}
	}
	return Service{}, ErrNotFound
}

func (r *MemoryRepo) ListActiveServices(ctx context.Context, tenantID string) ([]Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Service
	for _, s := range r.services {
		if s.TenantID == tenantID && s.Active {
			out = append(out, activeOnly(s))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func activeOnly(s Service) Service {
	opts := make([]ServiceOption, 0, len(s.Options))
	for _, o := range s.Options {
		if o.Active {
			opts = append(opts, o)
		}
	}
	s.Options = opts
	return s
}
