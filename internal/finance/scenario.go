package finance

import "fmt"

// ScenarioOutcome condenses one scenario run to its headline metrics.
type ScenarioOutcome struct {
	PaybackYears    float64 `json:"payback_years"`
	ROIPercent      float64 `json:"roi_percent"`
	NPV             float64 `json:"npv"`
	IRRPercent      float64 `json:"irr_percent"`
	LCOEPerKWh      float64 `json:"lcoe_per_kwh"`
	LifetimeSavings float64 `json:"lifetime_savings"`
}

func outcomeOf(r *Result) ScenarioOutcome {
	return ScenarioOutcome{
		PaybackYears:    r.Metrics.PaybackPeriodYears,
		ROIPercent:      r.Metrics.ROIPercent,
		NPV:             r.Metrics.NPV,
		IRRPercent:      r.Metrics.IRRPercent,
		LCOEPerKWh:      r.Metrics.LCOEPerKWh,
		LifetimeSavings: r.Metrics.TotalLifetimeSavings,
	}
}

// ScenarioAnalysisResult holds the built-in scenario bundle runs plus
// the condensed comparison table.
type ScenarioAnalysisResult struct {
	Scenarios  map[string]*Result         `json:"scenarios"`
	Comparison map[string]ScenarioOutcome `json:"comparison"`
}

// ScenarioAnalysis evaluates the standard what-if bundles against one
// configuration: base case, optimistic and pessimistic market shifts,
// heavy financing, and outright cash purchase. Each bundle derives its
// own Parameters copy; base is never modified.
func ScenarioAnalysis(capacityKW, annualProductionKWh, electricityRate float64, base Parameters) (*ScenarioAnalysisResult, error) {
	type run struct {
		production float64
		rate       float64
		params     Parameters
	}

	optimistic := base
	optimistic.SystemCostPerWatt = base.SystemCostPerWatt * 0.9
	optimistic.ElectricityInflationPercent = base.ElectricityInflationPercent + 1.0
	optimistic.PanelDegradationPercent = base.PanelDegradationPercent * 0.8

	pessimistic := base
	pessimistic.SystemCostPerWatt = base.SystemCostPerWatt * 1.1
	pessimistic.ElectricityInflationPercent = base.ElectricityInflationPercent - 0.5
	pessimistic.PanelDegradationPercent = base.PanelDegradationPercent * 1.2
	pessimistic.MaintenanceCostPerKWYear = base.MaintenanceCostPerKWYear * 1.2

	highFinancing := base
	highFinancing.LoanAmountPercent = 80
	highFinancing.LoanRatePercent = 7.0
	highFinancing.LoanTermYears = 15

	cashPurchase := base
	cashPurchase.LoanAmountPercent = 0

	runs := map[string]run{
		"base_case":      {annualProductionKWh, electricityRate, base},
		"optimistic":     {annualProductionKWh * 1.1, electricityRate * 1.1, optimistic},
		"pessimistic":    {annualProductionKWh * 0.9, electricityRate * 0.9, pessimistic},
		"high_financing": {annualProductionKWh, electricityRate, highFinancing},
		"cash_purchase":  {annualProductionKWh, electricityRate, cashPurchase},
	}

	out := &ScenarioAnalysisResult{
		Scenarios:  make(map[string]*Result, len(runs)),
		Comparison: make(map[string]ScenarioOutcome, len(runs)),
	}
	for name, r := range runs {
		res, err := ProjectFinancials(capacityKW, r.production, r.rate, r.params)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", name, err)
		}
		out.Scenarios[name] = res
		out.Comparison[name] = outcomeOf(res)
	}
	return out, nil
}
