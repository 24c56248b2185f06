// Package production orchestrates the upstream data providers: it fans
// a system spec out to every solar estimator, resolves a location's
// utility tariff through the configured provider chain, and feeds both
// into the financial projection engine. Responses are cached by request
// payload so repeated lookups never hit the upstreams.
package production

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/mfreitag/solarledger/internal/cache"
	"github.com/mfreitag/solarledger/internal/finance"
	"github.com/mfreitag/solarledger/internal/metrics"
	"github.com/mfreitag/solarledger/pkg/providers/solarproviders"
	"github.com/mfreitag/solarledger/pkg/providers/tariffproviders"
)

// Engine runs production estimates and tariff lookups against the
// configured providers. Every solar provider is consulted per estimate;
// the tariff chain is ordered and the first success wins.
type Engine struct {
	solar  []solarproviders.SolarProvider
	tariff []tariffproviders.TariffProvider
	cache  *cache.Cache
	log    zerolog.Logger
}

func NewEngine(solar []solarproviders.SolarProvider, tariff []tariffproviders.TariffProvider, c *cache.Cache, log zerolog.Logger) *Engine {
	return &Engine{
		solar:  solar,
		tariff: tariff,
		cache:  c,
		log:    log.With().Str("component", "production").Logger(),
	}
}

// Comparison summarizes agreement between sources when at least two
// estimators succeed. PercentDifference is the spread of the annual
// figures relative to the smallest one.
type Comparison struct {
	Sources           []string `json:"sources"`
	AverageAnnualKWh  float64  `json:"average_annual_kwh"`
	MinAnnualKWh      float64  `json:"min_annual_kwh"`
	MaxAnnualKWh      float64  `json:"max_annual_kwh"`
	PercentDifference float64  `json:"percent_difference"`
}

// Report is the combined production estimate for one spec. Estimates
// holds one entry per provider that succeeded; Errors records the
// providers that did not.
type Report struct {
	Spec       solarproviders.SystemSpec           `json:"system_spec"`
	Estimates  map[string]*solarproviders.Estimate `json:"estimates"`
	Errors     map[string]string                   `json:"errors,omitempty"`
	Comparison *Comparison                         `json:"comparison,omitempty"`
	FetchedAt  time.Time                           `json:"fetched_at"`
}

// BestAnnualKWh picks the figure the financial projection should use:
// the cross-source average when a comparison exists, otherwise the
// single successful estimate.
func (r *Report) BestAnnualKWh() float64 {
	if r.Comparison != nil {
		return r.Comparison.AverageAnnualKWh
	}
	for _, est := range r.Estimates {
		return est.AnnualProductionKWh
	}
	return 0
}

// EstimateProduction queries every configured solar provider for the
// spec. Individual provider failures are recorded and tolerated; the
// call fails only when no provider returns an estimate.
func (e *Engine) EstimateProduction(ctx context.Context, spec solarproviders.SystemSpec) (*Report, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", finance.ErrInvalidInput, err)
	}

	key := cache.Key("production", spec)
	var cached Report
	if e.cache != nil && e.cache.Get(ctx, key, cache.TierMedium, &cached) {
		return &cached, nil
	}

	report := &Report{
		Spec:      spec,
		Estimates: map[string]*solarproviders.Estimate{},
		Errors:    map[string]string{},
		FetchedAt: time.Now().UTC(),
	}

	for _, p := range e.solar {
		started := time.Now()
		est, err := p.Estimate(ctx, spec)
		metrics.ObserveProviderCall(p.Key(), started, err)
		if err != nil {
			e.log.Warn().Err(err).Str("provider", p.Key()).Msg("production estimate failed")
			report.Errors[p.Key()] = err.Error()
			continue
		}
		report.Estimates[p.Key()] = est
	}

	if len(report.Estimates) == 0 {
		return nil, fmt.Errorf("%w: all %d providers failed", finance.ErrNoProductionData, len(e.solar))
	}
	report.Comparison = compare(report.Estimates)

	if e.cache != nil {
		if err := e.cache.Set(ctx, key, cache.TierMedium, report); err != nil {
			e.log.Warn().Err(err).Msg("failed to cache production report")
		}
	}
	return report, nil
}

// compare builds the cross-source summary; nil when fewer than two
// sources agree to be compared.
func compare(estimates map[string]*solarproviders.Estimate) *Comparison {
	if len(estimates) < 2 {
		return nil
	}
	cmp := &Comparison{
		MinAnnualKWh: math.Inf(1),
		MaxAnnualKWh: math.Inf(-1),
	}
	var sum float64
	for key, est := range estimates {
		cmp.Sources = append(cmp.Sources, key)
		sum += est.AnnualProductionKWh
		cmp.MinAnnualKWh = math.Min(cmp.MinAnnualKWh, est.AnnualProductionKWh)
		cmp.MaxAnnualKWh = math.Max(cmp.MaxAnnualKWh, est.AnnualProductionKWh)
	}
	sort.Strings(cmp.Sources)
	cmp.AverageAnnualKWh = sum / float64(len(estimates))
	if cmp.MinAnnualKWh > 0 {
		cmp.PercentDifference = (cmp.MaxAnnualKWh - cmp.MinAnnualKWh) / cmp.MinAnnualKWh * 100
	}
	return cmp
}
