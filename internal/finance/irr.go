package finance

import "math"

const (
	irrInitialGuess  = 0.10
	irrTolerance     = 1e-4
	irrRateTolerance = 1e-6
	irrMaxIterations = 100
	irrOverflowLimit = 1e100
)

// IRR finds the internal rate of return of a signed cash-flow sequence
// (index 0 is the initial outlay) using damped Newton iteration. The
// result is a decimal fraction, 0.08 for 8%.
//
// If every flow shares one sign there is no guaranteed real root and
// IRR returns 0.0. On non-convergence after the iteration cap it
// returns the best estimate reached; that is a low-confidence value,
// not an error.
func IRR(cashFlows []float64) float64 {
	if len(cashFlows) < 2 {
		return 0.0
	}
	if !hasSignChange(cashFlows) {
		return 0.0
	}

	rate := irrInitialGuess
	for i := 0; i < irrMaxIterations; i++ {
		npv := npvAt(cashFlows, rate)
		if math.Abs(npv) < irrTolerance {
			return rate
		}

		dnpv := 0.0
		for t := 1; t < len(cashFlows); t++ {
			denom := math.Pow(1+rate, float64(t+1))
			if t > 100 || denom > irrOverflowLimit || math.IsInf(denom, 0) || math.IsNaN(denom) {
				continue
			}
			dnpv -= float64(t) * cashFlows[t] / denom
		}

		// Near-zero derivative: nudge rather than divide.
		if math.Abs(dnpv) < 1e-10 {
			rate += 0.01
			continue
		}

		next := rate - npv/dnpv
		if next <= -1 || next > 1 {
			next = math.Max(math.Min(next, 0.5), -0.5)
		}
		if math.Abs(next-rate) < irrRateTolerance {
			return next
		}
		rate = next
	}
	return rate
}

// npvAt evaluates Σ CF_t/(1+rate)^t, treating terms whose discount
// factor would overflow as zero.
func npvAt(cashFlows []float64, rate float64) float64 {
	npv := 0.0
	for t, cf := range cashFlows {
		if t == 0 {
			npv += cf
			continue
		}
		denom := math.Pow(1+rate, float64(t))
		if t > 100 || denom > irrOverflowLimit || math.IsInf(denom, 0) || math.IsNaN(denom) {
			continue
		}
		npv += cf / denom
	}
	return npv
}

func hasSignChange(cashFlows []float64) bool {
	var pos, neg bool
	for _, cf := range cashFlows {
		if cf > 0 {
			pos = true
		}
		if cf < 0 {
			neg = true
		}
	}
	return pos && neg
}
