package finance

import (
	"fmt"
	"math"
	"time"
)

// LoanPayment is one row of an amortization schedule.
type LoanPayment struct {
	PaymentNumber    int     `json:"payment_number"`
	Date             string  `json:"date"` // YYYY-MM
	PaymentAmount    float64 `json:"payment_amount"`
	Principal        float64 `json:"principal"`
	Interest         float64 `json:"interest"`
	RemainingBalance float64 `json:"remaining_balance"`
}

// LoanSchedule describes a fixed-payment loan in full. A zero-valued
// schedule with DownPayment == system cost represents a cash purchase.
type LoanSchedule struct {
	LoanAmount      float64       `json:"loan_amount"`
	FinancedAmount  float64       `json:"financed_amount"`
	DownPayment     float64       `json:"down_payment"`
	MonthlyPayment  float64       `json:"monthly_payment"`
	AnnualPayment   float64       `json:"annual_payment"`
	TotalPayments   float64       `json:"total_payments"`
	TotalInterest   float64       `json:"total_interest"`
	LoanFees        float64       `json:"loan_fees"`
	PaymentSchedule []LoanPayment `json:"payment_schedule"`
}

// Amortize builds the payment schedule for financing loanAmountPercent
// of systemCost over termYears at ratePercent annual interest, with
// origination fees rolled into the financed principal.
//
// loanAmountPercent <= 0 is the cash-purchase case and returns a zero
// schedule, not an error. termYears <= 0 with a positive loan amount is
// a contract violation.
func Amortize(systemCost, loanAmountPercent float64, termYears int, ratePercent, feesPercent float64) (LoanSchedule, error) {
	if systemCost <= 0 {
		return LoanSchedule{}, fmt.Errorf("%w: system cost must be > 0, got %v", ErrInvalidInput, systemCost)
	}
	if ratePercent < 0 {
		return LoanSchedule{}, fmt.Errorf("%w: loan rate must be >= 0, got %v", ErrInvalidInput, ratePercent)
	}
	if feesPercent < 0 {
		return LoanSchedule{}, fmt.Errorf("%w: loan fees must be >= 0, got %v", ErrInvalidInput, feesPercent)
	}

	loanAmount := systemCost * (loanAmountPercent / 100)
	if loanAmount <= 0 {
		return LoanSchedule{
			DownPayment:     systemCost,
			PaymentSchedule: []LoanPayment{},
		}, nil
	}
	if termYears <= 0 {
		return LoanSchedule{}, fmt.Errorf("%w: loan term must be > 0 years when financing, got %d", ErrInvalidInput, termYears)
	}

	loanFees := loanAmount * (feesPercent / 100)
	financed := loanAmount + loanFees
	downPayment := systemCost - loanAmount

	monthlyRate := ratePercent / 100 / 12
	numPayments := termYears * 12

	var monthlyPayment float64
	if monthlyRate == 0 {
		monthlyPayment = financed / float64(numPayments)
	} else {
		pow := math.Pow(1+monthlyRate, float64(numPayments))
		monthlyPayment = financed * (monthlyRate * pow) / (pow - 1)
	}

	balance := financed
	totalInterest := 0.0
	schedule := make([]LoanPayment, 0, numPayments)
	start := time.Now()

	for n := 1; n <= numPayments; n++ {
		interest := balance * monthlyRate
		principal := monthlyPayment - interest
		balance -= principal
		totalInterest += interest

		schedule = append(schedule, LoanPayment{
			PaymentNumber: n,
			Date:          paymentDate(start, n),
			PaymentAmount: monthlyPayment,
			Principal:     principal,
			Interest:      interest,
			// clamp: the final payment can drift a fraction of a
			// cent negative in float arithmetic
			RemainingBalance: math.Max(0, balance),
		})
	}

	return LoanSchedule{
		LoanAmount:      loanAmount,
		FinancedAmount:  financed,
		DownPayment:     downPayment,
		MonthlyPayment:  monthlyPayment,
		AnnualPayment:   monthlyPayment * 12,
		TotalPayments:   monthlyPayment * float64(numPayments),
		TotalInterest:   totalInterest,
		LoanFees:        loanFees,
		PaymentSchedule: schedule,
	}, nil
}

// paymentDate labels payment n with its YYYY-MM month, payments
// starting the month after origination.
func paymentDate(from time.Time, paymentNumber int) string {
	year := from.Year() + (int(from.Month())-1+paymentNumber)/12
	month := (int(from.Month())-1+paymentNumber)%12 + 1
	return fmt.Sprintf("%d-%02d", year, month)
}
