package site

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	cfg   Config
	err   error
	calls int
}

func (p *countingProvider) SiteConfig(context.Context) (*Config, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	cfg := p.cfg
	return &cfg, nil
}

func TestCachedProvider_ServesWithinTTL(t *testing.T) {
	inner := &countingProvider{cfg: Config{ShippingCost: decimal.NewFromInt(500)}}
	p := NewCachedProvider(inner, time.Minute)

	clock := time.Unix(1000, 0)
	p.now = func() time.Time { return clock }

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		cfg, err := p.SiteConfig(ctx)
		require.NoError(t, err)
		assert.True(t, cfg.ShippingCost.Equal(decimal.NewFromInt(500)))
	}
	assert.Equal(t, 1, inner.calls)

	clock = clock.Add(2 * time.Minute)
	_, err := p.SiteConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls, "expired entry triggers a refresh")
}

func TestCachedProvider_ServesStaleOnRefreshFailure(t *testing.T) {
	inner := &countingProvider{cfg: Config{WhatsAppPhone: "+549110000"}}
	p := NewCachedProvider(inner, time.Minute)

	clock := time.Unix(1000, 0)
	p.now = func() time.Time { return clock }

	ctx := context.Background()
	_, err := p.SiteConfig(ctx)
	require.NoError(t, err)

	inner.err = errors.New("upstream down")
	clock = clock.Add(2 * time.Minute)

	cfg, err := p.SiteConfig(ctx)
	require.NoError(t, err, "stale value is served when refresh fails")
	assert.Equal(t, "+549110000", cfg.WhatsAppPhone)
}

func TestCachedProvider_FirstFetchFailurePropagates(t *testing.T) {
	inner := &countingProvider{err: errors.New("upstream down")}
	p := NewCachedProvider(inner, time.Minute)

	_, err := p.SiteConfig(context.Background())
	assert.Error(t, err)
}
