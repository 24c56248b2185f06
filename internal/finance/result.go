package finance

import "fmt"

// SystemDetails echoes the analyzed installation's inputs.
type SystemDetails struct {
	CapacityKW                 float64 `json:"capacity_kw"`
	AnnualProductionKWhInitial float64 `json:"annual_production_kwh_initial"`
	ElectricityRateInitial     float64 `json:"electricity_rate_initial"`
}

// Incentives is the up-front incentive breakdown.
type Incentives struct {
	FederalITC      float64 `json:"federal_itc"`
	StateIncentive  float64 `json:"state_incentive"`
	UtilityRebate   float64 `json:"utility_rebate"`
	TotalIncentives float64 `json:"total_incentives"`
}

// CostBreakdown covers gross and net system cost plus first-year O&M.
type CostBreakdown struct {
	SystemCost               float64    `json:"system_cost"`
	CostPerWatt              float64    `json:"cost_per_watt"`
	Incentives               Incentives `json:"incentives"`
	NetSystemCost            float64    `json:"net_system_cost"`
	AnnualMaintenanceInitial float64    `json:"annual_maintenance_initial"`
	AnnualInsuranceInitial   float64    `json:"annual_insurance_initial"`
}

// Metrics holds the scalar investment metrics. ROIPercent and
// IRRPercent are already scaled to percent; that conversion happens
// here and nowhere else.
type Metrics struct {
	PaybackPeriodYears   float64 `json:"payback_period_years"`
	ROIPercent           float64 `json:"roi_percent"`
	NPV                  float64 `json:"npv"`
	IRRPercent           float64 `json:"irr_percent"`
	LCOEPerKWh           float64 `json:"lcoe_per_kwh"`
	FirstYearSavings     float64 `json:"first_year_savings"`
	TotalLifetimeSavings float64 `json:"total_lifetime_savings"`
	TotalLifetimeRevenue float64 `json:"total_lifetime_revenue"`
	TotalLifetimeCosts   float64 `json:"total_lifetime_costs"`
	LifetimeROIPercent   float64 `json:"lifetime_roi"`
}

// Result is the complete financial analysis of one configuration.
// Invariant: len(YearlyCashFlows) == Parameters.AnalysisPeriodYears.
type Result struct {
	SystemDetails   SystemDetails  `json:"system_details"`
	Costs           CostBreakdown  `json:"costs"`
	Loan            LoanSchedule   `json:"loan"`
	Metrics         Metrics        `json:"financial_metrics"`
	YearlyCashFlows []YearCashFlow `json:"yearly_cash_flows"`
}

// ProjectFinancials runs the full projection for one configuration:
// cost and incentive breakdown, amortization, the year-by-year ledger,
// and the derived metrics. Pure computation, no shared state; safe to
// call concurrently.
func ProjectFinancials(capacityKW, annualProductionKWh, electricityRate float64, params Parameters) (*Result, error) {
	if capacityKW <= 0 {
		return nil, fmt.Errorf("%w: capacity must be > 0 kW, got %v", ErrInvalidInput, capacityKW)
	}
	if annualProductionKWh <= 0 {
		return nil, fmt.Errorf("%w: annual production must be > 0 kWh, got %v", ErrInvalidInput, annualProductionKWh)
	}
	if electricityRate <= 0 {
		return nil, fmt.Errorf("%w: electricity rate must be > 0 $/kWh, got %v", ErrInvalidInput, electricityRate)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	capacityW := capacityKW * 1000
	systemCost := capacityW * params.SystemCostPerWatt

	federalITC := systemCost * (params.FederalITCPercent / 100)
	stateIncentive := systemCost * (params.StateIncentivePercent / 100)
	utilityRebate := capacityW * params.UtilityRebatePerWatt
	totalIncentives := federalITC + stateIncentive + utilityRebate
	netSystemCost := systemCost - totalIncentives

	loan, err := Amortize(systemCost, params.LoanAmountPercent, params.LoanTermYears,
		params.LoanRatePercent, params.LoanFeesPercent)
	if err != nil {
		return nil, err
	}

	led := projectLedger(capacityKW, annualProductionKWh, electricityRate,
		params, systemCost, netSystemCost, totalIncentives, loan)

	irr := IRR(led.cashFlows)

	var totalProduction, totalOM, totalReturns, totalSavings, totalNet float64
	for _, row := range led.rows {
		totalProduction += row.ProductionKWh
		totalOM += row.MaintenanceCost + row.InsuranceCost + row.InverterReplacement
		totalReturns += row.EnergySavings + row.SRECRevenue
		totalSavings += row.EnergySavings
		totalNet += row.NetCashFlow
	}
	totalCosts := netSystemCost + totalOM

	return &Result{
		SystemDetails: SystemDetails{
			CapacityKW:                 capacityKW,
			AnnualProductionKWhInitial: annualProductionKWh,
			ElectricityRateInitial:     electricityRate,
		},
		Costs: CostBreakdown{
			SystemCost:  systemCost,
			CostPerWatt: params.SystemCostPerWatt,
			Incentives: Incentives{
				FederalITC:      federalITC,
				StateIncentive:  stateIncentive,
				UtilityRebate:   utilityRebate,
				TotalIncentives: totalIncentives,
			},
			NetSystemCost:            netSystemCost,
			AnnualMaintenanceInitial: capacityKW * params.MaintenanceCostPerKWYear,
			AnnualInsuranceInitial:   systemCost * (params.InsuranceCostPercent / 100),
		},
		Loan: loan,
		Metrics: Metrics{
			PaybackPeriodYears:   led.paybackYears,
			ROIPercent:           (totalReturns - totalCosts) / netSystemCost * 100,
			NPV:                  led.npv,
			IRRPercent:           irr * 100,
			LCOEPerKWh:           totalCosts / totalProduction,
			FirstYearSavings:     led.rows[0].EnergySavings,
			TotalLifetimeSavings: totalSavings,
			TotalLifetimeRevenue: totalReturns,
			TotalLifetimeCosts:   totalOM,
			LifetimeROIPercent:   totalNet / netSystemCost * 100,
		},
		YearlyCashFlows: led.rows,
	}, nil
}
