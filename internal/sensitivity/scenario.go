package sensitivity

import (
	"math"

	"github.com/mfreitag/solarledger/internal/finance"
)

// ScenarioComparison compares named override bundles against one shared
// baseline. The base case lives in its own field rather than being
// appended to the scenario list, so percent changes always divide by
// the real baseline regardless of iteration order.
type ScenarioComparison struct {
	Names          []string                               `json:"scenarios"`
	BaseCase       map[finance.Metric]*float64            `json:"base_case"`
	Metrics        map[string]map[finance.Metric]*float64 `json:"metrics"`
	PercentChanges map[string]map[finance.Metric]*float64 `json:"percent_changes"`
	Parameters     map[string]finance.Parameters          `json:"parameters"`
}

// CompareScenarios evaluates each override bundle atop a deep-copied
// baseline. One failing scenario never aborts the batch: its metrics
// stay nil and the rest complete.
func (a *Analyzer) CompareScenarios(in Input, scenarios map[string]map[string]float64) (*ScenarioComparison, error) {
	metrics := finance.TrackedMetrics()

	res := &ScenarioComparison{
		Names:          make([]string, 0, len(scenarios)),
		BaseCase:       map[finance.Metric]*float64{},
		Metrics:        map[string]map[finance.Metric]*float64{},
		PercentChanges: map[string]map[finance.Metric]*float64{},
		Parameters:     map[string]finance.Parameters{},
	}

	baseline, err := a.project(in)
	if err != nil {
		return nil, err
	}
	for _, m := range metrics {
		v, _ := m.Extract(baseline)
		res.BaseCase[m] = ptr(v)
	}

	for name, overrides := range scenarios {
		res.Names = append(res.Names, name)
		res.Metrics[name] = map[finance.Metric]*float64{}
		res.PercentChanges[name] = map[finance.Metric]*float64{}

		varied, err := a.applyOverrides(in, overrides)
		if err != nil {
			a.log.Warn().Err(err).Str("scenario", name).Msg("scenario overrides rejected")
			continue
		}
		res.Parameters[name] = varied.Params

		run, err := a.project(varied)
		if err != nil {
			a.log.Warn().Err(err).Str("scenario", name).Msg("scenario evaluation failed")
			continue
		}
		for _, m := range metrics {
			v, _ := m.Extract(run)
			res.Metrics[name][m] = ptr(v)
			if base := res.BaseCase[m]; base != nil && *base != 0 {
				res.PercentChanges[name][m] = ptr((v - *base) / math.Abs(*base) * 100)
			}
		}
	}
	return res, nil
}

// CustomScenarioResult is the base/custom/percent-change triple for one
// user-defined override bundle.
type CustomScenarioResult struct {
	BaseCase       map[finance.Metric]*float64 `json:"base_case"`
	Custom         map[finance.Metric]*float64 `json:"custom_scenario"`
	PercentChanges map[finance.Metric]*float64 `json:"percent_changes"`
	BaseParams     finance.Parameters          `json:"base_parameters"`
	CustomParams   finance.Parameters          `json:"custom_parameters"`
}

// CustomScenario evaluates one override bundle against the baseline.
// Unknown override names fail the call up front; a projection failure
// of the custom case leaves its metrics nil, mirroring batch semantics.
func (a *Analyzer) CustomScenario(in Input, overrides map[string]float64) (*CustomScenarioResult, error) {
	metrics := finance.TrackedMetrics()

	custom, err := a.applyOverrides(in, overrides)
	if err != nil {
		return nil, err
	}

	baseline, err := a.project(in)
	if err != nil {
		return nil, err
	}

	res := &CustomScenarioResult{
		BaseCase:       map[finance.Metric]*float64{},
		Custom:         map[finance.Metric]*float64{},
		PercentChanges: map[finance.Metric]*float64{},
		BaseParams:     in.Params,
		CustomParams:   custom.Params,
	}
	for _, m := range metrics {
		v, _ := m.Extract(baseline)
		res.BaseCase[m] = ptr(v)
	}

	run, err := a.project(custom)
	if err != nil {
		a.log.Warn().Err(err).Msg("custom scenario evaluation failed")
		return res, nil
	}
	for _, m := range metrics {
		v, _ := m.Extract(run)
		res.Custom[m] = ptr(v)
		if base := res.BaseCase[m]; base != nil && *base != 0 {
			res.PercentChanges[m] = ptr((v - *base) / math.Abs(*base) * 100)
		}
	}
	return res, nil
}

// applyOverrides maps one override bundle onto a copied input. The
// electricity_rate and annual_production keys scale the analysis inputs
// absolutely (they carry the new value, not a delta); everything else
// goes through the parameter table.
func (a *Analyzer) applyOverrides(in Input, overrides map[string]float64) (Input, error) {
	out := in
	params := in.Params
	for name, value := range overrides {
		switch name {
		case ParamElectricityRate:
			out.ElectricityRate = value
		case ParamAnnualProduction:
			out.AnnualProductionKWh = value
		default:
			p, err := params.With(name, value)
			if err != nil {
				return in, err
			}
			params = p
		}
	}
	out.Params = params
	return out, nil
}
