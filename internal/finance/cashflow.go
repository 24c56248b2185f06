package finance

import "math"

// YearCashFlow is one row of the cash-flow ledger. Every summary metric
// is derived from the ledger; nothing recomputes these numbers ad hoc.
type YearCashFlow struct {
	Year                int     `json:"year"`
	ProductionKWh       float64 `json:"production_kwh"`
	ElectricityRate     float64 `json:"electricity_rate"`
	EnergySavings       float64 `json:"energy_savings"`
	SRECRevenue         float64 `json:"srec_revenue"`
	MaintenanceCost     float64 `json:"maintenance_cost"`
	InsuranceCost       float64 `json:"insurance_cost"`
	InverterReplacement float64 `json:"inverter_replacement"`
	LoanPayment         float64 `json:"loan_payment"`
	NetCashFlow         float64 `json:"net_cash_flow"`
	CumulativeCashFlow  float64 `json:"cumulative_cash_flow"`
	DiscountedCashFlow  float64 `json:"discounted_cash_flow"`
}

// ledger carries the projection loop's outputs into the aggregator.
type ledger struct {
	rows          []YearCashFlow
	cashFlows     []float64 // index 0 is the initial outlay, for IRR
	npv           float64
	paybackYears  float64
	paybackLanded bool
}

// projectLedger runs the year-by-year simulation. Degradation and
// inflation compound multiplicatively; incentives are taken once up
// front; the inverter replacement lands exactly once, as a percent of
// the original (gross) system cost.
func projectLedger(capacityKW, annualProductionKWh, electricityRate float64,
	p Parameters, systemCost, netSystemCost, totalIncentives float64, loan LoanSchedule) ledger {

	years := p.AnalysisPeriodYears

	degradation := p.PanelDegradationPercent / 100
	elecInflation := p.ElectricityInflationPercent / 100
	genInflation := p.GeneralInflationPercent / 100
	discountRate := p.DiscountRatePercent / 100

	maintenanceBase := capacityKW * p.MaintenanceCostPerKWYear
	insuranceBase := systemCost * (p.InsuranceCostPercent / 100)

	initial := -netSystemCost + totalIncentives

	led := ledger{
		rows:         make([]YearCashFlow, 0, years),
		cashFlows:    make([]float64, 0, years+1),
		npv:          initial,
		paybackYears: float64(years), // sentinel: never recovered within horizon
	}
	led.cashFlows = append(led.cashFlows, initial)

	cumulative := initial
	for year := 1; year <= years; year++ {
		compound := float64(year - 1)

		production := annualProductionKWh * math.Pow(1-degradation, compound)
		rate := electricityRate * math.Pow(1+elecInflation, compound)
		savings := production * rate

		srec := 0.0
		if year <= p.SRECYears {
			srec = production / 1000 * p.SRECPrice // SRECs price per MWh
		}

		maintenance := maintenanceBase * math.Pow(1+genInflation, compound)
		insurance := insuranceBase * math.Pow(1+genInflation, compound)

		inverter := 0.0
		if year == p.InverterReplacementYear {
			inverter = systemCost * (p.InverterReplacementCostPercent / 100)
		}

		loanPayment := 0.0
		if year <= p.LoanTermYears {
			loanPayment = loan.AnnualPayment
		}

		net := savings + srec - maintenance - insurance - inverter - loanPayment
		cumulative += net

		if !led.paybackLanded && cumulative >= 0 {
			prev := cumulative - net
			led.paybackYears = float64(year-1) + (0-prev)/(cumulative-prev)
			led.paybackLanded = true
		}

		discounted := net / math.Pow(1+discountRate, float64(year))
		led.npv += discounted
		led.cashFlows = append(led.cashFlows, net)

		led.rows = append(led.rows, YearCashFlow{
			Year:                year,
			ProductionKWh:       production,
			ElectricityRate:     rate,
			EnergySavings:       savings,
			SRECRevenue:         srec,
			MaintenanceCost:     maintenance,
			InsuranceCost:       insurance,
			InverterReplacement: inverter,
			LoanPayment:         loanPayment,
			NetCashFlow:         net,
			CumulativeCashFlow:  cumulative,
			DiscountedCashFlow:  discounted,
		})
	}
	return led
}
