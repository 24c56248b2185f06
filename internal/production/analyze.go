package production

import (
	"context"
	"fmt"

	"github.com/mfreitag/solarledger/internal/cache"
	"github.com/mfreitag/solarledger/internal/finance"
	"github.com/mfreitag/solarledger/internal/metrics"
	"github.com/mfreitag/solarledger/internal/sensitivity"
	"github.com/mfreitag/solarledger/pkg/providers/solarproviders"
	"github.com/mfreitag/solarledger/pkg/providers/tariffproviders"
)

// AnalysisRequest is one end-to-end analysis. A zero ElectricityRate
// triggers a tariff lookup; a zero AnnualProductionKWh triggers a
// production estimate. Sensitivity expansion runs only when asked for
// explicitly and never recursively from within a sweep.
type AnalysisRequest struct {
	Spec                solarproviders.SystemSpec `json:"system_spec"`
	Params              finance.Parameters        `json:"params"`
	ElectricityRate     float64                   `json:"electricity_rate,omitempty"`
	AnnualProductionKWh float64                   `json:"annual_production_kwh,omitempty"`
	IncludeSensitivity  bool                      `json:"include_sensitivity,omitempty"`
}

// Analysis is the combined result: the production report and tariff
// snapshot that fed the projection (nil when the caller supplied the
// figure directly), the projection itself, and the optional tornado
// ranking.
type Analysis struct {
	Production          *Report                    `json:"production,omitempty"`
	Tariff              *tariffproviders.Rates     `json:"tariff,omitempty"`
	ElectricityRate     float64                    `json:"electricity_rate"`
	AnnualProductionKWh float64                    `json:"annual_production_kwh"`
	Financials          *finance.Result            `json:"financials"`
	Sensitivity         *sensitivity.TornadoResult `json:"sensitivity,omitempty"`
}

// AnalyzeSystem resolves production and tariff data for the spec and
// runs the financial projection over them.
func (e *Engine) AnalyzeSystem(ctx context.Context, req AnalysisRequest) (*Analysis, error) {
	out := &Analysis{
		ElectricityRate:     req.ElectricityRate,
		AnnualProductionKWh: req.AnnualProductionKWh,
	}

	if out.AnnualProductionKWh <= 0 {
		report, err := e.EstimateProduction(ctx, req.Spec)
		if err != nil {
			return nil, err
		}
		out.Production = report
		out.AnnualProductionKWh = report.BestAnnualKWh()
	}

	if out.ElectricityRate <= 0 {
		rates, err := e.Rates(ctx, req.Spec.Latitude, req.Spec.Longitude)
		if err != nil {
			return nil, fmt.Errorf("resolve electricity rate: %w", err)
		}
		out.Tariff = rates
		out.ElectricityRate = rates.ResidentialRate
	}

	key := cache.Key("analysis", struct {
		Spec       solarproviders.SystemSpec `json:"spec"`
		Params     finance.Parameters        `json:"params"`
		Rate       float64                   `json:"rate"`
		Production float64                   `json:"production"`
	}{req.Spec, req.Params, out.ElectricityRate, out.AnnualProductionKWh})

	var cached finance.Result
	if e.cache != nil && e.cache.Get(ctx, key, cache.TierShort, &cached) {
		out.Financials = &cached
	} else {
		res, err := finance.ProjectFinancials(req.Spec.CapacityKW, out.AnnualProductionKWh, out.ElectricityRate, req.Params)
		if err != nil {
			return nil, err
		}
		out.Financials = res
		if e.cache != nil {
			if cerr := e.cache.Set(ctx, key, cache.TierShort, res); cerr != nil {
				e.log.Warn().Err(cerr).Msg("failed to cache analysis")
			}
		}
	}
	metrics.AnalysesTotal.WithLabelValues("single").Inc()

	if req.IncludeSensitivity {
		analyzer := sensitivity.NewAnalyzer(e.log)
		tornado, err := analyzer.RankTornado(sensitivity.Input{
			CapacityKW:          req.Spec.CapacityKW,
			AnnualProductionKWh: out.AnnualProductionKWh,
			ElectricityRate:     out.ElectricityRate,
			Params:              req.Params,
		}, nil)
		if err != nil {
			return nil, err
		}
		out.Sensitivity = tornado
		metrics.AnalysesTotal.WithLabelValues("tornado").Inc()
	}
	return out, nil
}
