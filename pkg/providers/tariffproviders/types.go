package tariffproviders

import "time"

// Rates is a point-in-time snapshot of a location's electricity
// tariffs in $/kWh. Callers inflate it over an analysis horizon; the
// snapshot itself is never mutated.
type Rates struct {
	Utility         string    `json:"utility"`
	ResidentialRate float64   `json:"residential_rate"`
	CommercialRate  float64   `json:"commercial_rate"`
	IndustrialRate  float64   `json:"industrial_rate"`
	Source          string    `json:"source"`
	FetchedAt       time.Time `json:"fetched_at"`
}
