package calls

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory call store useful for tests.
type MemoryRepo struct {
	mu    sync.Mutex
	calls map[string]Call
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{calls: make(map[string]Call)}
}

func (r *MemoryRepo) Create(ctx context.Context, c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	r.calls[c.ID] = c
	return nil
}

func (r *MemoryRepo) FindByID(ctx context.Context, id string) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[id]
	if !ok {
		return Call{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) SetIVRResponse(ctx context.Context, id string, outcome IVROutcome, digit string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[id]
	if !ok || c.IVRResponse != nil {
		return false, nil
	}
	c.IVRResponse = &outcome
	c.Digit = digit
	c.UpdatedAt = at
	r.calls[id] = c
	return true, nil
}

func (r *MemoryRepo) SetCallbackHandled(ctx context.Context, tenantID, id string, handled bool, by string, at time.Time) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[id]
	if !ok || c.TenantID != tenantID {
		return Call{}, ErrNotFound
	}
	c.CallbackHandled = handled
	if handled {
		c.CallbackHandledAt = &at
		c.CallbackHandledBy = by
	} else {
		c.CallbackHandledAt = nil
		c.CallbackHandledBy = ""
	}
	c.UpdatedAt = at
	r.calls[id] = c
	return c, nil
}

func (r *MemoryRepo) List(ctx context.Context, f ListFilter) ([]Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Call
	for _, c := range r.calls {
		if f.match(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > f.limit() {
		out = out[:f.limit()]
	}
	return out, nil
}
