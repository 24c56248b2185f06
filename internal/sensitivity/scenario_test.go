package sensitivity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfreitag/solarledger/internal/finance"
)

func TestCompareScenarios(t *testing.T) {
	a := testAnalyzer()
	in := testInput()

	res, err := a.CompareScenarios(in, map[string]map[string]float64{
		"cheap_system": {"system_cost_per_watt": 2.10},
		"high_rates":   {"electricity_rate": 0.18, "electricity_inflation_percent": 4.0},
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"cheap_system", "high_rates"}, res.Names)
	for _, m := range finance.TrackedMetrics() {
		require.NotNil(t, res.BaseCase[m])
	}

	cheap := res.Metrics["cheap_system"]
	require.NotNil(t, cheap[finance.MetricPaybackYears])
	base := res.BaseCase[finance.MetricPaybackYears]
	assert.Less(t, *cheap[finance.MetricPaybackYears], *base)

	// percent change sign follows the raw delta
	pc := res.PercentChanges["cheap_system"][finance.MetricPaybackYears]
	require.NotNil(t, pc)
	assert.Negative(t, *pc)

	// scenario parameter snapshots carry the overrides
	assert.Equal(t, 2.10, res.Parameters["cheap_system"].SystemCostPerWatt)
}

func TestCompareScenariosIsolation(t *testing.T) {
	a := testAnalyzer()
	in := testInput()
	before := in

	res, err := a.CompareScenarios(in, map[string]map[string]float64{
		"a": {"system_cost_per_watt": 1.90},
		"b": {"loan_rate_percent": 9.0},
	})
	require.NoError(t, err)

	// shared baseline object untouched
	assert.Equal(t, before, in)

	// sibling scenarios never see each other's overrides
	assert.Equal(t, 1.90, res.Parameters["a"].SystemCostPerWatt)
	assert.Equal(t, in.Params.LoanRatePercent, res.Parameters["a"].LoanRatePercent)
	assert.Equal(t, 9.0, res.Parameters["b"].LoanRatePercent)
	assert.Equal(t, in.Params.SystemCostPerWatt, res.Parameters["b"].SystemCostPerWatt)
}

func TestCompareScenariosBatchFailureIsolation(t *testing.T) {
	a := testAnalyzer()

	res, err := a.CompareScenarios(testInput(), map[string]map[string]float64{
		"broken": {"analysis_period_years": 0},
		"fine":   {"system_cost_per_watt": 2.50},
	})
	require.NoError(t, err)

	// broken scenario carries nil metrics, the healthy one completed
	assert.Nil(t, res.Metrics["broken"][finance.MetricNPV])
	assert.NotNil(t, res.Metrics["fine"][finance.MetricNPV])
}

func TestCustomScenario(t *testing.T) {
	a := testAnalyzer()

	res, err := a.CustomScenario(testInput(), map[string]float64{
		"system_cost_per_watt": 2.65,
		"loan_rate_percent":    4.5,
	})
	require.NoError(t, err)

	assert.Equal(t, 2.80, res.BaseParams.SystemCostPerWatt)
	assert.Equal(t, 2.65, res.CustomParams.SystemCostPerWatt)
	assert.Equal(t, 4.5, res.CustomParams.LoanRatePercent)

	for _, m := range finance.TrackedMetrics() {
		require.NotNil(t, res.BaseCase[m], string(m))
		require.NotNil(t, res.Custom[m], string(m))
	}

	// cheaper financing improves NPV
	assert.Greater(t, *res.Custom[finance.MetricNPV], *res.BaseCase[finance.MetricNPV])

	pc := res.PercentChanges[finance.MetricNPV]
	require.NotNil(t, pc)
	assert.Positive(t, *pc)
}

func TestCustomScenarioUnknownOverride(t *testing.T) {
	a := testAnalyzer()
	_, err := a.CustomScenario(testInput(), map[string]float64{"bogus": 1})
	require.Error(t, err)
}
