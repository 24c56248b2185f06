package production

import (
	"context"
	"fmt"
	"time"

	"github.com/mfreitag/solarledger/internal/cache"
	"github.com/mfreitag/solarledger/internal/metrics"
	"github.com/mfreitag/solarledger/pkg/providers"
	"github.com/mfreitag/solarledger/pkg/providers/tariffproviders"
)

type tariffQuery struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Rates resolves the tariff snapshot for a location. Providers are
// tried in configuration order; the first success wins and is cached
// in the long tier, so offline fallbacks only run when the live
// sources are down.
func (e *Engine) Rates(ctx context.Context, lat, lon float64) (*tariffproviders.Rates, error) {
	if len(e.tariff) == 0 {
		return nil, fmt.Errorf("%w: no tariff providers configured", providers.ErrProviderNotFound)
	}

	key := cache.Key("tariff", tariffQuery{Lat: lat, Lon: lon})
	var cached tariffproviders.Rates
	if e.cache != nil && e.cache.Get(ctx, key, cache.TierLong, &cached) {
		return &cached, nil
	}

	return e.fetchRates(ctx, key, lat, lon)
}

// RefreshRates drops any cached tariff snapshot for the location and
// fetches a fresh one. Used by the scheduled refresh worker.
func (e *Engine) RefreshRates(ctx context.Context, lat, lon float64) (*tariffproviders.Rates, error) {
	if len(e.tariff) == 0 {
		return nil, fmt.Errorf("%w: no tariff providers configured", providers.ErrProviderNotFound)
	}
	key := cache.Key("tariff", tariffQuery{Lat: lat, Lon: lon})
	if e.cache != nil {
		e.cache.Invalidate(ctx, key)
	}
	return e.fetchRates(ctx, key, lat, lon)
}

func (e *Engine) fetchRates(ctx context.Context, key string, lat, lon float64) (*tariffproviders.Rates, error) {
	var lastErr error
	for _, p := range e.tariff {
		started := time.Now()
		rates, err := p.Rates(ctx, lat, lon)
		metrics.ObserveProviderCall(p.Key(), started, err)
		if err != nil {
			e.log.Warn().Err(err).Str("provider", p.Key()).Msg("tariff lookup failed")
			lastErr = err
			continue
		}
		if e.cache != nil {
			if cerr := e.cache.Set(ctx, key, cache.TierLong, rates); cerr != nil {
				e.log.Warn().Err(cerr).Msg("failed to cache tariff snapshot")
			}
		}
		return rates, nil
	}
	return nil, fmt.Errorf("all tariff providers failed: %w", lastErr)
}
