package finance

import (
	"fmt"
	"math"
)

// Parameters holds every assumption the projection engine uses.
//
// Unit conventions, enforced at this boundary and nowhere else:
//   - fields ending in Percent are whole percents (30 means 30%)
//   - dollar fields are USD
//   - SRECPrice is $/MWh
//
// Parameters is a value type. Deriving a variant never touches the
// receiver: With and Merge return copies, so many scenarios can be
// derived from one baseline without corrupting each other.
type Parameters struct {
	// System cost
	SystemCostPerWatt float64 `json:"system_cost_per_watt" yaml:"system_cost_per_watt"`

	// Incentives and rebates
	FederalITCPercent     float64 `json:"federal_itc_percent" yaml:"federal_itc_percent"`
	StateIncentivePercent float64 `json:"state_incentive_percent" yaml:"state_incentive_percent"`
	UtilityRebatePerWatt  float64 `json:"utility_rebate_per_watt" yaml:"utility_rebate_per_watt"`
	SRECPrice             float64 `json:"srec_price" yaml:"srec_price"`
	SRECYears             int     `json:"srec_years" yaml:"srec_years"`

	// Loan
	LoanAmountPercent float64 `json:"loan_amount_percent" yaml:"loan_amount_percent"`
	LoanTermYears     int     `json:"loan_term_years" yaml:"loan_term_years"`
	LoanRatePercent   float64 `json:"loan_rate_percent" yaml:"loan_rate_percent"`
	LoanFeesPercent   float64 `json:"loan_fees_percent" yaml:"loan_fees_percent"`

	// Operation
	AnalysisPeriodYears            int     `json:"analysis_period_years" yaml:"analysis_period_years"`
	PanelDegradationPercent        float64 `json:"panel_degradation_percent" yaml:"panel_degradation_percent"`
	MaintenanceCostPerKWYear       float64 `json:"maintenance_cost_per_kw_year" yaml:"maintenance_cost_per_kw_year"`
	InsuranceCostPercent           float64 `json:"insurance_cost_percent" yaml:"insurance_cost_percent"`
	InverterReplacementYear        int     `json:"inverter_replacement_year" yaml:"inverter_replacement_year"`
	InverterReplacementCostPercent float64 `json:"inverter_replacement_cost_percent" yaml:"inverter_replacement_cost_percent"`

	// Economy
	ElectricityInflationPercent float64 `json:"electricity_inflation_percent" yaml:"electricity_inflation_percent"`
	GeneralInflationPercent     float64 `json:"general_inflation_percent" yaml:"general_inflation_percent"`
	DiscountRatePercent         float64 `json:"discount_rate_percent" yaml:"discount_rate_percent"`
}

// DefaultParameters returns the documented defaults for a 2023-era US
// residential installation. Callers override any subset via Merge.
func DefaultParameters() Parameters {
	return Parameters{
		SystemCostPerWatt: 2.80,

		FederalITCPercent:     30,
		StateIncentivePercent: 0,
		UtilityRebatePerWatt:  0,
		SRECPrice:             0,
		SRECYears:             0,

		LoanAmountPercent: 0, // cash purchase
		LoanTermYears:     20,
		LoanRatePercent:   5.5,
		LoanFeesPercent:   1.0,

		AnalysisPeriodYears:            25,
		PanelDegradationPercent:        0.5,
		MaintenanceCostPerKWYear:       20,
		InsuranceCostPercent:           0.5,
		InverterReplacementYear:        15,
		InverterReplacementCostPercent: 8,

		ElectricityInflationPercent: 3.0,
		GeneralInflationPercent:     2.5,
		DiscountRatePercent:         6.0,
	}
}

// paramField is one entry in the fixed accessor table. Name-based access
// (sweeps, scenario overrides) goes through this table only; there is no
// reflection and no structural probing.
type paramField struct {
	get func(Parameters) float64
	set func(*Parameters, float64)
}

var paramFields = map[string]paramField{
	"system_cost_per_watt": {
		get: func(p Parameters) float64 { return p.SystemCostPerWatt },
		set: func(p *Parameters, v float64) { p.SystemCostPerWatt = v },
	},
	"federal_itc_percent": {
		get: func(p Parameters) float64 { return p.FederalITCPercent },
		set: func(p *Parameters, v float64) { p.FederalITCPercent = v },
	},
	"state_incentive_percent": {
		get: func(p Parameters) float64 { return p.StateIncentivePercent },
		set: func(p *Parameters, v float64) { p.StateIncentivePercent = v },
	},
	"utility_rebate_per_watt": {
		get: func(p Parameters) float64 { return p.UtilityRebatePerWatt },
		set: func(p *Parameters, v float64) { p.UtilityRebatePerWatt = v },
	},
	"srec_price": {
		get: func(p Parameters) float64 { return p.SRECPrice },
		set: func(p *Parameters, v float64) { p.SRECPrice = v },
	},
	"srec_years": {
		get: func(p Parameters) float64 { return float64(p.SRECYears) },
		set: func(p *Parameters, v float64) { p.SRECYears = int(math.Round(v)) },
	},
	"loan_amount_percent": {
		get: func(p Parameters) float64 { return p.LoanAmountPercent },
		set: func(p *Parameters, v float64) { p.LoanAmountPercent = v },
	},
	"loan_term_years": {
		get: func(p Parameters) float64 { return float64(p.LoanTermYears) },
		set: func(p *Parameters, v float64) { p.LoanTermYears = int(math.Round(v)) },
	},
	"loan_rate_percent": {
		get: func(p Parameters) float64 { return p.LoanRatePercent },
		set: func(p *Parameters, v float64) { p.LoanRatePercent = v },
	},
	"loan_fees_percent": {
		get: func(p Parameters) float64 { return p.LoanFeesPercent },
		set: func(p *Parameters, v float64) { p.LoanFeesPercent = v },
	},
	"analysis_period_years": {
		get: func(p Parameters) float64 { return float64(p.AnalysisPeriodYears) },
		set: func(p *Parameters, v float64) { p.AnalysisPeriodYears = int(math.Round(v)) },
	},
	"panel_degradation_percent": {
		get: func(p Parameters) float64 { return p.PanelDegradationPercent },
		set: func(p *Parameters, v float64) { p.PanelDegradationPercent = v },
	},
	"maintenance_cost_per_kw_year": {
		get: func(p Parameters) float64 { return p.MaintenanceCostPerKWYear },
		set: func(p *Parameters, v float64) { p.MaintenanceCostPerKWYear = v },
	},
	"insurance_cost_percent": {
		get: func(p Parameters) float64 { return p.InsuranceCostPercent },
		set: func(p *Parameters, v float64) { p.InsuranceCostPercent = v },
	},
	"inverter_replacement_year": {
		get: func(p Parameters) float64 { return float64(p.InverterReplacementYear) },
		set: func(p *Parameters, v float64) { p.InverterReplacementYear = int(math.Round(v)) },
	},
	"inverter_replacement_cost_percent": {
		get: func(p Parameters) float64 { return p.InverterReplacementCostPercent },
		set: func(p *Parameters, v float64) { p.InverterReplacementCostPercent = v },
	},
	"electricity_inflation_percent": {
		get: func(p Parameters) float64 { return p.ElectricityInflationPercent },
		set: func(p *Parameters, v float64) { p.ElectricityInflationPercent = v },
	},
	"general_inflation_percent": {
		get: func(p Parameters) float64 { return p.GeneralInflationPercent },
		set: func(p *Parameters, v float64) { p.GeneralInflationPercent = v },
	},
	"discount_rate_percent": {
		get: func(p Parameters) float64 { return p.DiscountRatePercent },
		set: func(p *Parameters, v float64) { p.DiscountRatePercent = v },
	},
}

// ParameterNames returns every name accepted by Value, With and Merge.
func ParameterNames() []string {
	names := make([]string, 0, len(paramFields))
	for name := range paramFields {
		names = append(names, name)
	}
	return names
}

// Value looks up a parameter by its wire name.
func (p Parameters) Value(name string) (float64, bool) {
	f, ok := paramFields[name]
	if !ok {
		return 0, false
	}
	return f.get(p), true
}

// With returns a copy of p with one named parameter replaced. The
// receiver is never modified. Unknown names are an error, never a
// silent no-op.
func (p Parameters) With(name string, value float64) (Parameters, error) {
	f, ok := paramFields[name]
	if !ok {
		return p, fmt.Errorf("%w: unknown parameter %q", ErrInvalidInput, name)
	}
	out := p
	f.set(&out, value)
	return out, nil
}

// Merge returns a copy of p with every override applied. Any unknown
// name fails the whole merge.
func (p Parameters) Merge(overrides map[string]float64) (Parameters, error) {
	out := p
	for name, value := range overrides {
		f, ok := paramFields[name]
		if !ok {
			return p, fmt.Errorf("%w: unknown parameter %q", ErrInvalidInput, name)
		}
		f.set(&out, value)
	}
	return out, nil
}

// Validate checks the subset of constraints the projection engine
// depends on. It is called once at the top of ProjectFinancials.
func (p Parameters) Validate() error {
	if p.SystemCostPerWatt <= 0 {
		return fmt.Errorf("%w: system_cost_per_watt must be > 0, got %v", ErrInvalidInput, p.SystemCostPerWatt)
	}
	if p.AnalysisPeriodYears <= 0 {
		return fmt.Errorf("%w: analysis_period_years must be > 0, got %d", ErrInvalidInput, p.AnalysisPeriodYears)
	}
	if p.LoanAmountPercent < 0 || p.LoanAmountPercent > 100 {
		return fmt.Errorf("%w: loan_amount_percent must be in [0,100], got %v", ErrInvalidInput, p.LoanAmountPercent)
	}
	if p.LoanAmountPercent > 0 && p.LoanTermYears <= 0 {
		return fmt.Errorf("%w: loan_term_years must be > 0 when financing, got %d", ErrInvalidInput, p.LoanTermYears)
	}
	if p.LoanRatePercent < 0 {
		return fmt.Errorf("%w: loan_rate_percent must be >= 0, got %v", ErrInvalidInput, p.LoanRatePercent)
	}
	if p.LoanFeesPercent < 0 {
		return fmt.Errorf("%w: loan_fees_percent must be >= 0, got %v", ErrInvalidInput, p.LoanFeesPercent)
	}
	return nil
}
