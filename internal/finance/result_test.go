package finance

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flatParams is a deliberately inert assumption set: no incentives, no
// degradation, no inflation, no running costs, no loan. Net cash flow
// is then constant year over year, which makes payback arithmetic
// exact.
func flatParams(costPerWatt float64, years int) Parameters {
	p := DefaultParameters()
	p.SystemCostPerWatt = costPerWatt
	p.FederalITCPercent = 0
	p.LoanAmountPercent = 0
	p.AnalysisPeriodYears = years
	p.PanelDegradationPercent = 0
	p.MaintenanceCostPerKWYear = 0
	p.InsuranceCostPercent = 0
	p.InverterReplacementYear = 0
	p.ElectricityInflationPercent = 0
	p.GeneralInflationPercent = 0
	return p
}

func TestProjectFinancialsEndToEnd(t *testing.T) {
	p := DefaultParameters()
	p.SystemCostPerWatt = 2.80
	p.FederalITCPercent = 30
	p.LoanAmountPercent = 70
	p.LoanTermYears = 20
	p.LoanRatePercent = 5.5
	p.AnalysisPeriodYears = 25

	res, err := ProjectFinancials(10, 15000, 0.12, p)
	require.NoError(t, err)

	assert.InDelta(t, 28000.0, res.Costs.SystemCost, 1e-9)
	assert.InDelta(t, 8400.0, res.Costs.Incentives.FederalITC, 1e-9)
	assert.InDelta(t, 19600.0, res.Costs.NetSystemCost, 1e-9)
	assert.InDelta(t, 1800.0, res.Metrics.FirstYearSavings, 1e-9)
	assert.InDelta(t, 19600.0, res.Loan.LoanAmount, 1e-9)
	assert.Len(t, res.YearlyCashFlows, 25)
}

func TestLedgerLengthAndCumulativeInvariant(t *testing.T) {
	p := DefaultParameters()
	p.LoanAmountPercent = 50
	p.SRECPrice = 40
	p.SRECYears = 10

	res, err := ProjectFinancials(8, 11000, 0.14, p)
	require.NoError(t, err)
	require.Len(t, res.YearlyCashFlows, p.AnalysisPeriodYears)

	initial := -res.Costs.NetSystemCost + res.Costs.Incentives.TotalIncentives
	sum := initial
	for _, row := range res.YearlyCashFlows {
		sum += row.NetCashFlow
	}
	last := res.YearlyCashFlows[len(res.YearlyCashFlows)-1]
	assert.InDelta(t, sum, last.CumulativeCashFlow, 1e-6)
}

func TestPaybackExactYearBoundary(t *testing.T) {
	// net cost 10000, constant net savings 2000/yr: cumulative hits
	// exactly 0 at the end of year 5
	p := flatParams(10.0, 10) // 1 kW * 1000 W * $10/W = $10000
	res, err := ProjectFinancials(1, 10000, 0.20, p)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, res.Metrics.PaybackPeriodYears, 1e-9)
}

func TestPaybackFractionalInterpolation(t *testing.T) {
	// net cost 21000, constant net savings 4000/yr: cumulative is
	// -1000 after year 5 and +3000 after year 6
	p := flatParams(2.10, 10) // 10 kW => $21000
	res, err := ProjectFinancials(10, 10000, 0.40, p)
	require.NoError(t, err)
	assert.InDelta(t, 5.25, res.Metrics.PaybackPeriodYears, 0.01)
}

func TestPaybackNeverReachedSentinel(t *testing.T) {
	p := flatParams(10.0, 5)
	// savings of 100/yr never recover 10000
	res, err := ProjectFinancials(1, 1000, 0.10, p)
	require.NoError(t, err)
	assert.Equal(t, float64(p.AnalysisPeriodYears), res.Metrics.PaybackPeriodYears)
}

func TestSRECRevenueWindow(t *testing.T) {
	p := flatParams(3.0, 10)
	p.SRECPrice = 50
	p.SRECYears = 3

	res, err := ProjectFinancials(5, 7000, 0.15, p)
	require.NoError(t, err)

	for _, row := range res.YearlyCashFlows {
		if row.Year <= 3 {
			assert.InDelta(t, 7000.0/1000*50, row.SRECRevenue, 1e-9, "year %d", row.Year)
		} else {
			assert.Zero(t, row.SRECRevenue, "year %d", row.Year)
		}
	}
}

func TestInverterReplacementAppliesOnce(t *testing.T) {
	p := flatParams(2.5, 20)
	p.InverterReplacementYear = 12
	p.InverterReplacementCostPercent = 8

	res, err := ProjectFinancials(10, 14000, 0.13, p)
	require.NoError(t, err)

	var hits int
	for _, row := range res.YearlyCashFlows {
		if row.InverterReplacement != 0 {
			hits++
			assert.Equal(t, 12, row.Year)
			assert.InDelta(t, 25000*0.08, row.InverterReplacement, 1e-9)
		}
	}
	assert.Equal(t, 1, hits)
}

func TestDegradationAndInflationCompound(t *testing.T) {
	p := flatParams(2.8, 5)
	p.PanelDegradationPercent = 0.5
	p.ElectricityInflationPercent = 3.0

	res, err := ProjectFinancials(10, 15000, 0.12, p)
	require.NoError(t, err)

	y3 := res.YearlyCashFlows[2]
	assert.InDelta(t, 15000*0.995*0.995, y3.ProductionKWh, 1e-6)
	assert.InDelta(t, 0.12*1.03*1.03, y3.ElectricityRate, 1e-9)
	assert.InDelta(t, y3.ProductionKWh*y3.ElectricityRate, y3.EnergySavings, 1e-9)
}

func TestLoanPaymentStopsAfterTerm(t *testing.T) {
	p := flatParams(2.8, 25)
	p.LoanAmountPercent = 70
	p.LoanTermYears = 10
	p.LoanRatePercent = 5.5
	p.LoanFeesPercent = 1.0

	res, err := ProjectFinancials(10, 15000, 0.12, p)
	require.NoError(t, err)

	for _, row := range res.YearlyCashFlows {
		if row.Year <= 10 {
			assert.InDelta(t, res.Loan.AnnualPayment, row.LoanPayment, 1e-9, "year %d", row.Year)
		} else {
			assert.Zero(t, row.LoanPayment, "year %d", row.Year)
		}
	}
}

func TestProjectFinancialsRejectsBadInput(t *testing.T) {
	p := DefaultParameters()

	for name, call := range map[string]func() error{
		"zero capacity": func() error {
			_, err := ProjectFinancials(0, 15000, 0.12, p)
			return err
		},
		"negative production": func() error {
			_, err := ProjectFinancials(10, -1, 0.12, p)
			return err
		},
		"zero rate": func() error {
			_, err := ProjectFinancials(10, 15000, 0, p)
			return err
		},
		"zero horizon": func() error {
			bad := p
			bad.AnalysisPeriodYears = 0
			_, err := ProjectFinancials(10, 15000, 0.12, bad)
			return err
		},
	} {
		err := call()
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, ErrInvalidInput), name)
	}
}

func TestMetricAccessors(t *testing.T) {
	p := DefaultParameters()
	res, err := ProjectFinancials(10, 15000, 0.12, p)
	require.NoError(t, err)

	for _, m := range TrackedMetrics() {
		_, err := m.Extract(res)
		assert.NoError(t, err, string(m))
	}

	v, err := MetricNPV.Extract(res)
	require.NoError(t, err)
	assert.Equal(t, res.Metrics.NPV, v)

	_, err = Metric("bogus").Extract(res)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	assert.True(t, MetricPaybackYears.LowerIsBetter())
	assert.True(t, MetricLCOEPerKWh.LowerIsBetter())
	assert.False(t, MetricNPV.LowerIsBetter())
	assert.False(t, MetricIRRPercent.LowerIsBetter())
}
