package finance

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmortizeCashPurchase(t *testing.T) {
	sched, err := Amortize(28000, 0, 20, 5.5, 1.0)
	require.NoError(t, err)

	assert.Zero(t, sched.LoanAmount)
	assert.Zero(t, sched.MonthlyPayment)
	assert.Zero(t, sched.AnnualPayment)
	assert.Zero(t, sched.TotalInterest)
	assert.Zero(t, sched.LoanFees)
	assert.Equal(t, 28000.0, sched.DownPayment)
	assert.Empty(t, sched.PaymentSchedule)
}

func TestAmortizeStandardLoan(t *testing.T) {
	sched, err := Amortize(28000, 70, 20, 5.5, 1.0)
	require.NoError(t, err)

	assert.InDelta(t, 19600.0, sched.LoanAmount, 1e-9)
	assert.InDelta(t, 196.0, sched.LoanFees, 1e-9)
	assert.InDelta(t, 19796.0, sched.FinancedAmount, 1e-9)
	assert.InDelta(t, 8400.0, sched.DownPayment, 1e-9)

	// closed-form annuity payment
	r := 5.5 / 100 / 12
	n := 240.0
	pow := math.Pow(1+r, n)
	want := 19796.0 * (r * pow) / (pow - 1)
	assert.InDelta(t, want, sched.MonthlyPayment, 0.01)
	assert.InDelta(t, sched.MonthlyPayment*12, sched.AnnualPayment, 1e-9)

	require.Len(t, sched.PaymentSchedule, 240)
	last := sched.PaymentSchedule[239]
	assert.InDelta(t, 0.0, last.RemainingBalance, 0.01)
	assert.GreaterOrEqual(t, last.RemainingBalance, 0.0)

	// principal+interest recombine into the fixed payment
	for _, p := range sched.PaymentSchedule[:12] {
		assert.InDelta(t, sched.MonthlyPayment, p.Principal+p.Interest, 1e-9)
	}
}

func TestAmortizeZeroRate(t *testing.T) {
	sched, err := Amortize(12000, 100, 10, 0, 0)
	require.NoError(t, err)

	assert.InDelta(t, 12000.0/120, sched.MonthlyPayment, 1e-9)
	assert.InDelta(t, 0.0, sched.TotalInterest, 1e-9)
}

func TestAmortizeInvalidTerm(t *testing.T) {
	_, err := Amortize(28000, 70, 0, 5.5, 1.0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestAmortizeInvalidCost(t *testing.T) {
	_, err := Amortize(0, 70, 20, 5.5, 1.0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestPaymentDateRollsYears(t *testing.T) {
	sched, err := Amortize(10000, 100, 2, 4.0, 0)
	require.NoError(t, err)
	require.Len(t, sched.PaymentSchedule, 24)

	seen := map[string]int{}
	for _, p := range sched.PaymentSchedule {
		assert.Regexp(t, `^\d{4}-\d{2}$`, p.Date)
		seen[p.Date]++
	}
	// 24 consecutive months never repeat a label
	assert.Len(t, seen, 24)
}
