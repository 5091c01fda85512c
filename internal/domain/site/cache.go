package site

import (
	"context"
	"sync"
	"time"
)

// CachedProvider wraps a Provider with a TTL cache so hot paths (every quote
// needs the shipping cost) do not hit the shop API per request. A stale
// value is served when a refresh fails and a previous fetch succeeded.
type CachedProvider struct {
	inner Provider
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	cached  *Config
	fetched time.Time
}

var _ Provider = (*CachedProvider)(nil)

// NewCachedProvider wraps inner with a ttl-bounded cache.
func NewCachedProvider(inner Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{inner: inner, ttl: ttl, now: time.Now}
}

// SiteConfig returns the cached configuration, refreshing it upstream once
// the TTL has elapsed.
func (p *CachedProvider) SiteConfig(ctx context.Context) (*Config, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != nil && p.now().Sub(p.fetched) < p.ttl {
		cfg := *p.cached
		return &cfg, nil
	}

	cfg, err := p.inner.SiteConfig(ctx)
	if err != nil {
		if p.cached != nil {
			stale := *p.cached
			return &stale, nil
		}
		return nil, err
	}

	p.cached = cfg
	p.fetched = p.now()
	out := *cfg
	return &out, nil
}
