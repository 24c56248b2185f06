package sensitivity

import "fmt"

// Swept parameter names. The first three scale the analysis inputs
// themselves and vary by relative percent; the rest are rate-like
// assumptions varied by absolute percentage points.
const (
	ParamSystemCostPerWatt    = "system_cost_per_watt"
	ParamElectricityRate      = "electricity_rate"
	ParamAnnualProduction     = "annual_production"
	ParamElectricityInflation = "electricity_inflation_percent"
	ParamPanelDegradation     = "panel_degradation_percent"
	ParamDiscountRate         = "discount_rate_percent"
	ParamLoanRate             = "loan_rate_percent"
)

var defaultRanges = map[string][]float64{
	ParamSystemCostPerWatt:    {-20, -10, 0, 10, 20},
	ParamElectricityRate:      {-20, -10, 0, 10, 20},
	ParamAnnualProduction:     {-20, -10, 0, 10, 20},
	ParamElectricityInflation: {-2, -1, 0, 1, 2},
	ParamPanelDegradation:     {-0.2, -0.1, 0, 0.1, 0.2},
	ParamDiscountRate:         {-2, -1, 0, 1, 2},
	ParamLoanRate:             {-2, -1, 0, 1, 2},
}

var relativeParams = map[string]bool{
	ParamSystemCostPerWatt: true,
	ParamElectricityRate:   true,
	ParamAnnualProduction:  true,
}

// DefaultParameterNames returns the standard sweep set in stable order.
func DefaultParameterNames() []string {
	return []string{
		ParamSystemCostPerWatt,
		ParamElectricityRate,
		ParamAnnualProduction,
		ParamElectricityInflation,
		ParamPanelDegradation,
		ParamDiscountRate,
		ParamLoanRate,
	}
}

// DefaultRange returns the variation list used when the caller supplies
// none. Unknown parameters fall back to the generic relative range.
func DefaultRange(param string) []float64 {
	if r, ok := defaultRanges[param]; ok {
		out := make([]float64, len(r))
		copy(out, r)
		return out
	}
	return []float64{-20, -10, 0, 10, 20}
}

// IsRelative reports whether a parameter varies by relative percent
// rather than absolute percentage points.
func IsRelative(param string) bool {
	return relativeParams[param]
}

func variationLabel(v float64, relative bool) string {
	if relative {
		return fmt.Sprintf("%+g%%", v)
	}
	return fmt.Sprintf("%+g", v)
}
