// Package gatewaycreds holds the platform-level SMS/voice gateway credentials
// behind a short-lived cache so webhooks do not hit the database per call.
package gatewaycreds

import (
	"context"
	"errors"
	"sync"
	"time"
)

const DefaultTTL = 60 * time.Second

// Credentials are the account credentials and sender number for the gateway.
type Credentials struct {
	AccountSID string `json:"account_sid"`
	AuthToken  string `json:"-"`
	FromNumber string `json:"from_number"`
}

func (c Credentials) Complete() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.FromNumber != ""
}

var ErrNotConfigured = errors.New("gatewaycreds: credentials not configured")

// Loader fetches the current credentials from their source of truth.
type Loader func(ctx context.Context) (Credentials, error)

// Cache serves Credentials no older than TTL.
//
// Readers may race a refresh; the last successful load wins. Invalidate drops
// the cached value before returning, so the next Get always reloads, and a
// load that started before Invalidate is never cached.
type Cache struct {
	Loader Loader
	TTL    time.Duration
	Now    func() time.Time

	mu       sync.RWMutex
	value    Credentials
	loadedAt time.Time
	valid    bool
	gen      uint64
}

func NewCache(loader Loader, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{Loader: loader, TTL: ttl, Now: time.Now}
}

func (c *Cache) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Cache) ttl() time.Duration {
	if c.TTL <= 0 {
		return DefaultTTL
	}
	return c.TTL
}

// Get returns cached credentials or loads fresh ones.
func (c *Cache) Get(ctx context.Context) (Credentials, error) {
	c.mu.RLock()
	if c.valid && c.now().Sub(c.loadedAt) < c.ttl() {
		v := c.value
		c.mu.RUnlock()
		return v, nil
	}
	gen := c.gen
	c.mu.RUnlock()

	if c.Loader == nil {
		return Credentials{}, ErrNotConfigured
	}
	v, err := c.Loader(ctx)
	if err != nil {
		return Credentials{}, err
	}

	c.mu.Lock()
	if c.gen == gen {
		c.value = v
		c.loadedAt = c.now()
		c.valid = true
	}
	c.mu.Unlock()
	return v, nil
}

// Invalidate forgets the cached value.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.value = Credentials{}
	c.valid = false
	c.gen++
	c.mu.Unlock()
}
