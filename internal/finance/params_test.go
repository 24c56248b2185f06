package finance

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParameters(t *testing.T) {
	p := DefaultParameters()
	assert.Equal(t, 2.80, p.SystemCostPerWatt)
	assert.Equal(t, 30.0, p.FederalITCPercent)
	assert.Equal(t, 0.0, p.LoanAmountPercent)
	assert.Equal(t, 25, p.AnalysisPeriodYears)
	assert.Equal(t, 0.5, p.PanelDegradationPercent)
	assert.Equal(t, 6.0, p.DiscountRatePercent)
	assert.NoError(t, p.Validate())
}

func TestWithReturnsCopy(t *testing.T) {
	base := DefaultParameters()
	mod, err := base.With("system_cost_per_watt", 3.50)
	require.NoError(t, err)

	assert.Equal(t, 3.50, mod.SystemCostPerWatt)
	assert.Equal(t, 2.80, base.SystemCostPerWatt, "receiver must not change")
}

func TestWithUnknownName(t *testing.T) {
	base := DefaultParameters()
	_, err := base.With("no_such_param", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestMergeOverrides(t *testing.T) {
	base := DefaultParameters()
	merged, err := base.Merge(map[string]float64{
		"loan_amount_percent": 80,
		"loan_term_years":     15,
		"loan_rate_percent":   7.0,
	})
	require.NoError(t, err)

	assert.Equal(t, 80.0, merged.LoanAmountPercent)
	assert.Equal(t, 15, merged.LoanTermYears)
	assert.Equal(t, 7.0, merged.LoanRatePercent)
	assert.Equal(t, 0.0, base.LoanAmountPercent)
	assert.Equal(t, 20, base.LoanTermYears)
}

func TestMergeUnknownNameFailsWhole(t *testing.T) {
	base := DefaultParameters()
	_, err := base.Merge(map[string]float64{
		"loan_amount_percent": 80,
		"bogus":               1,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestValueRoundTripsEveryName(t *testing.T) {
	base := DefaultParameters()
	for _, name := range ParameterNames() {
		v, ok := base.Value(name)
		require.True(t, ok, name)

		mod, err := base.With(name, v+1)
		require.NoError(t, err, name)
		got, ok := mod.Value(name)
		require.True(t, ok, name)
		assert.InDelta(t, v+1, got, 1e-9, name)
	}
}

func TestValidateRejectsBadLoanShape(t *testing.T) {
	p := DefaultParameters()
	p.LoanAmountPercent = 120
	assert.Error(t, p.Validate())

	p = DefaultParameters()
	p.LoanAmountPercent = 50
	p.LoanTermYears = 0
	assert.Error(t, p.Validate())

	p = DefaultParameters()
	p.LoanRatePercent = -1
	assert.Error(t, p.Validate())
}
