package finance

import "fmt"

// Metric identifies one tracked investment metric. The set is closed:
// extraction goes through the fixed accessor table below, never through
// structural probing of the result.
type Metric string

const (
	MetricPaybackYears    Metric = "payback_period_years"
	MetricROIPercent      Metric = "roi_percent"
	MetricNPV             Metric = "npv"
	MetricIRRPercent      Metric = "irr_percent"
	MetricLCOEPerKWh      Metric = "lcoe_per_kwh"
	MetricLifetimeSavings Metric = "lifetime_savings"
)

var metricAccessors = map[Metric]func(*Result) float64{
	MetricPaybackYears:    func(r *Result) float64 { return r.Metrics.PaybackPeriodYears },
	MetricROIPercent:      func(r *Result) float64 { return r.Metrics.ROIPercent },
	MetricNPV:             func(r *Result) float64 { return r.Metrics.NPV },
	MetricIRRPercent:      func(r *Result) float64 { return r.Metrics.IRRPercent },
	MetricLCOEPerKWh:      func(r *Result) float64 { return r.Metrics.LCOEPerKWh },
	MetricLifetimeSavings: func(r *Result) float64 { return r.Metrics.TotalLifetimeSavings },
}

// TrackedMetrics returns the metrics reported by sensitivity and
// scenario analyses, in stable display order.
func TrackedMetrics() []Metric {
	return []Metric{
		MetricPaybackYears,
		MetricROIPercent,
		MetricNPV,
		MetricIRRPercent,
		MetricLCOEPerKWh,
		MetricLifetimeSavings,
	}
}

// Extract reads one metric from a result.
func (m Metric) Extract(r *Result) (float64, error) {
	acc, ok := metricAccessors[m]
	if !ok {
		return 0, fmt.Errorf("%w: unknown metric %q", ErrInvalidInput, string(m))
	}
	return acc(r), nil
}

// LowerIsBetter reports whether an increase in the metric is a
// worsening. Payback and LCOE read in the opposite sense of the
// value metrics.
func (m Metric) LowerIsBetter() bool {
	return m == MetricPaybackYears || m == MetricLCOEPerKWh
}
