package tenant

import (
	"context"
	"errors"
	"strings"

	"missedcall/internal/apperr"

	"github.com/gosimple/slug"
)

// errUnknownTenant is the one answer the public gets for a missing, suspended or
// disabled tenant, so tenant existence is never revealed.
var errUnknownTenant = apperr.New(apperr.KindNotFound, "business not found")

// Resolver looks tenants up for public and webhook traffic.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// ActiveBySlug returns the tenant for slug if it is ACTIVE; a uniform NOT_FOUND otherwise.
// Anything that is not already a canonical slug is unknown without a lookup.
func (r *Resolver) ActiveBySlug(ctx context.Context, s string) (Tenant, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if !slug.IsSlug(s) {
		return Tenant{}, errUnknownTenant
	}
	return r.active(r.repo.FindBySlug(ctx, s))
}

// ActiveByPhoneNumber resolves the tenant owning a dialed number.
func (r *Resolver) ActiveByPhoneNumber(ctx context.Context, number string) (Tenant, error) {
	if strings.TrimSpace(number) == "" {
		return Tenant{}, errUnknownTenant
	}
	return r.active(r.repo.FindByPhoneNumber(ctx, number))
}

func (r *Resolver) active(t Tenant, err error) (Tenant, error) {
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Tenant{}, errUnknownTenant
		}
		return Tenant{}, err
	}
	if !t.Active() {
		return Tenant{}, errUnknownTenant
	}
	return t, nil
}
