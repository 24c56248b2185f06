package sensitivity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfreitag/solarledger/internal/finance"
)

func TestRankTornadoDefaults(t *testing.T) {
	a := testAnalyzer()
	res, err := a.RankTornado(testInput(), nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultParameterNames(), res.Parameters)
	for _, m := range finance.TrackedMetrics() {
		require.NotNil(t, res.BaseCase[m], string(m))
	}

	for _, m := range finance.TrackedMetrics() {
		entries := res.Tornado[m]
		require.NotEmpty(t, entries, string(m))

		// sorted by descending |high - low|
		for i := 1; i < len(entries); i++ {
			assert.GreaterOrEqual(t,
				tornadoMagnitude(entries[i-1]), tornadoMagnitude(entries[i]),
				"%s: entry %d out of order", m, i)
		}
	}
}

func TestRankTornadoInvertsLowerIsBetterMetrics(t *testing.T) {
	a := testAnalyzer()
	res, err := a.RankTornado(testInput(), []string{ParamSystemCostPerWatt})
	require.NoError(t, err)

	// value metrics keep low <= high
	for _, m := range []finance.Metric{finance.MetricNPV, finance.MetricROIPercent} {
		for _, e := range res.Tornado[m] {
			require.NotNil(t, e.Low)
			require.NotNil(t, e.High)
			assert.LessOrEqual(t, *e.Low, *e.High, string(m))
		}
	}

	// payback and LCOE swap sides
	for _, m := range []finance.Metric{finance.MetricPaybackYears, finance.MetricLCOEPerKWh} {
		for _, e := range res.Tornado[m] {
			require.NotNil(t, e.Low)
			require.NotNil(t, e.High)
			assert.GreaterOrEqual(t, *e.Low, *e.High, string(m))
		}
	}
}

func TestRankTornadoSharesOneBaseline(t *testing.T) {
	a := testAnalyzer()
	in := testInput()

	res, err := a.RankTornado(in, []string{ParamSystemCostPerWatt, ParamElectricityRate})
	require.NoError(t, err)

	direct, err := finance.ProjectFinancials(in.CapacityKW, in.AnnualProductionKWh, in.ElectricityRate, in.Params)
	require.NoError(t, err)

	base := res.BaseCase[finance.MetricNPV]
	require.NotNil(t, base)
	assert.InDelta(t, direct.Metrics.NPV, *base, 1e-9)

	// a percent change recomputed from the shared baseline matches
	for _, e := range res.Tornado[finance.MetricNPV] {
		require.NotNil(t, e.MinValue)
		want := (*e.MinValue - *base) / math.Abs(*base) * 100
		got := math.Min(*e.Low, *e.High)
		assert.InDelta(t, math.Min(want, (*e.MaxValue-*base)/math.Abs(*base)*100), got, 1e-9)
	}
}

func TestRankTornadoVariationLabels(t *testing.T) {
	a := testAnalyzer()
	res, err := a.RankTornado(testInput(), []string{ParamSystemCostPerWatt, ParamDiscountRate})
	require.NoError(t, err)

	for _, e := range res.Tornado[finance.MetricNPV] {
		switch e.Parameter {
		case ParamSystemCostPerWatt:
			assert.Equal(t, "-20%", e.MinVariation)
			assert.Equal(t, "+20%", e.MaxVariation)
		case ParamDiscountRate:
			assert.Equal(t, "-2", e.MinVariation)
			assert.Equal(t, "+2", e.MaxVariation)
		}
	}
}
