package sensitivity

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/mfreitag/solarledger/internal/finance"
)

// Input bundles one financial analysis configuration. The engine copies
// it per variation; the caller's value is never modified.
type Input struct {
	CapacityKW          float64            `json:"capacity_kw"`
	AnnualProductionKWh float64            `json:"annual_production_kwh"`
	ElectricityRate     float64            `json:"electricity_rate"`
	Params              finance.Parameters `json:"params"`
}

// Analyzer runs parameter sweeps, tornado rankings and scenario
// comparisons over the financial projection engine. Projections run
// standalone here: nested sensitivity expansion is never triggered from
// within a sweep.
type Analyzer struct {
	log zerolog.Logger
}

func NewAnalyzer(log zerolog.Logger) *Analyzer {
	return &Analyzer{log: log.With().Str("component", "sensitivity").Logger()}
}

// SweepResult holds one single-parameter sweep. Metric series are
// positionally aligned with VariationLabels; a nil entry marks a
// variation whose projection failed.
type SweepResult struct {
	Parameter       string                        `json:"parameter"`
	BaseValue       float64                       `json:"base_value"`
	VariationLabels []string                      `json:"variation_values"`
	Metrics         map[finance.Metric][]*float64 `json:"metrics"`
	PercentChanges  map[finance.Metric][]*float64 `json:"percent_changes"`
}

// applyVariation derives the varied input for one sweep step.
// electricity_rate and annual_production scale the analysis inputs
// directly; everything else goes through the parameter table.
func applyVariation(in Input, param string, variation float64) (Input, error) {
	out := in
	switch param {
	case ParamElectricityRate:
		out.ElectricityRate = in.ElectricityRate * (1 + variation/100)
	case ParamAnnualProduction:
		out.AnnualProductionKWh = in.AnnualProductionKWh * (1 + variation/100)
	default:
		base, ok := in.Params.Value(param)
		if !ok {
			return in, fmt.Errorf("%w: unknown parameter %q", finance.ErrInvalidInput, param)
		}
		value := base + variation
		if IsRelative(param) {
			value = base * (1 + variation/100)
		}
		p, err := in.Params.With(param, value)
		if err != nil {
			return in, err
		}
		out.Params = p
	}
	return out, nil
}

func baseValueOf(in Input, param string) float64 {
	switch param {
	case ParamElectricityRate:
		return in.ElectricityRate
	case ParamAnnualProduction:
		return in.AnnualProductionKWh
	default:
		v, _ := in.Params.Value(param)
		return v
	}
}

func (a *Analyzer) project(in Input) (*finance.Result, error) {
	return finance.ProjectFinancials(in.CapacityKW, in.AnnualProductionKWh, in.ElectricityRate, in.Params)
}

// SweepParameter evaluates every variation of one parameter and reports
// each metric's percent change against the zero-variation entry. When
// the range has no zero, the middle entry is the baseline; that
// fallback keeps custom ranges comparable but makes the reported deltas
// relative to an arbitrary midpoint, so zero-anchored ranges are
// preferred.
func (a *Analyzer) SweepParameter(in Input, param string, variations []float64) (*SweepResult, error) {
	if len(variations) == 0 {
		variations = DefaultRange(param)
	}
	if _, err := applyVariation(in, param, variations[0]); err != nil {
		return nil, err
	}

	relative := IsRelative(param)
	res := &SweepResult{
		Parameter:       param,
		BaseValue:       baseValueOf(in, param),
		VariationLabels: make([]string, 0, len(variations)),
		Metrics:         map[finance.Metric][]*float64{},
		PercentChanges:  map[finance.Metric][]*float64{},
	}
	metrics := finance.TrackedMetrics()

	for _, variation := range variations {
		res.VariationLabels = append(res.VariationLabels, variationLabel(variation, relative))

		varied, err := applyVariation(in, param, variation)
		if err == nil {
			var run *finance.Result
			run, err = a.project(varied)
			if err == nil {
				for _, m := range metrics {
					v, _ := m.Extract(run)
					res.Metrics[m] = append(res.Metrics[m], ptr(v))
				}
				continue
			}
		}
		// isolate the failed variation, keep the batch going
		a.log.Warn().Err(err).Str("parameter", param).Float64("variation", variation).
			Msg("sweep variation failed")
		for _, m := range metrics {
			res.Metrics[m] = append(res.Metrics[m], nil)
		}
	}

	baselineIdx := len(variations) / 2
	for i, v := range variations {
		if v == 0 {
			baselineIdx = i
			break
		}
	}

	for _, m := range metrics {
		series := res.Metrics[m]
		baseline := series[baselineIdx]
		if baseline == nil || *baseline == 0 {
			res.PercentChanges[m] = make([]*float64, len(series))
			continue
		}
		changes := make([]*float64, len(series))
		for i, v := range series {
			if v != nil {
				changes[i] = ptr((*v - *baseline) / math.Abs(*baseline) * 100)
			}
		}
		res.PercentChanges[m] = changes
	}
	return res, nil
}

func ptr(v float64) *float64 { return &v }
