package solarproviders

import "fmt"

// Module types, matching the PVWatts encoding.
const (
	ModuleStandard = 1
	ModulePremium  = 2
	ModuleThinFilm = 3
)

// Array types, matching the PVWatts encoding.
const (
	ArrayFixedOpenRack    = 1
	ArrayFixedRoofMount   = 2
	ArrayOneAxisTracking  = 3
	ArrayOneAxisBacktrack = 4
	ArrayTwoAxisTracking  = 5
)

// SystemSpec describes one installation to estimate. Values are
// immutable after construction; NewSystemSpec applies the documented
// defaults for everything the caller leaves zero.
type SystemSpec struct {
	Latitude       float64 `json:"lat"`
	Longitude      float64 `json:"lon"`
	CapacityKW     float64 `json:"capacity_kw"`
	ModuleType     int     `json:"module_type"`
	ArrayType      int     `json:"array_type"`
	TiltDegrees    float64 `json:"tilt_degrees"`
	AzimuthDegrees float64 `json:"azimuth_degrees"`
	LossesPercent  float64 `json:"losses_percent"`
}

// NewSystemSpec fills in the standard residential defaults: 4 kW,
// standard modules on a fixed roof mount, 20 degree tilt, south facing,
// 14% losses.
func NewSystemSpec(lat, lon float64) SystemSpec {
	return SystemSpec{
		Latitude:       lat,
		Longitude:      lon,
		CapacityKW:     4,
		ModuleType:     ModuleStandard,
		ArrayType:      ArrayFixedRoofMount,
		TiltDegrees:    20,
		AzimuthDegrees: 180,
		LossesPercent:  14,
	}
}

// Validate checks the ranges the estimators depend on.
func (s SystemSpec) Validate() error {
	if s.Latitude < -90 || s.Latitude > 90 {
		return fmt.Errorf("latitude out of range: %v", s.Latitude)
	}
	if s.Longitude < -180 || s.Longitude > 180 {
		return fmt.Errorf("longitude out of range: %v", s.Longitude)
	}
	if s.CapacityKW <= 0 {
		return fmt.Errorf("capacity must be > 0 kW, got %v", s.CapacityKW)
	}
	if s.ModuleType < ModuleStandard || s.ModuleType > ModuleThinFilm {
		return fmt.Errorf("unknown module type %d", s.ModuleType)
	}
	if s.ArrayType < ArrayFixedOpenRack || s.ArrayType > ArrayTwoAxisTracking {
		return fmt.Errorf("unknown array type %d", s.ArrayType)
	}
	if s.LossesPercent < 0 || s.LossesPercent >= 100 {
		return fmt.Errorf("losses must be in [0,100), got %v", s.LossesPercent)
	}
	return nil
}

// Efficiency returns the nominal module efficiency for the spec's
// module type.
func (s SystemSpec) Efficiency() float64 {
	switch s.ModuleType {
	case ModulePremium:
		return 0.19
	case ModuleThinFilm:
		return 0.10
	default:
		return 0.15
	}
}

// ArrayFactor returns the production multiplier for tracking arrays
// relative to a fixed mount.
func (s SystemSpec) ArrayFactor() float64 {
	switch s.ArrayType {
	case ArrayOneAxisTracking:
		return 1.2
	case ArrayOneAxisBacktrack:
		return 1.15
	case ArrayTwoAxisTracking:
		return 1.3
	default:
		return 1.0
	}
}

// PerformanceRatio derives the system performance ratio from the loss
// percentage.
func (s SystemSpec) PerformanceRatio() float64 {
	return (100 - s.LossesPercent) / 100
}

// MonthlyProduction is one month of an estimate.
type MonthlyProduction struct {
	Month         string  `json:"month"`
	MonthNum      int     `json:"month_num"`
	ProductionKWh float64 `json:"production_kwh"`
}

// Estimate is one provider's production figure for a spec.
type Estimate struct {
	Source                string              `json:"source"`
	AnnualProductionKWh   float64             `json:"annual_production_kwh"`
	MonthlyProductionKWh  []MonthlyProduction `json:"monthly_production_kwh"`
	CapacityFactorPercent float64             `json:"capacity_factor_percent,omitempty"`
	ProductionPerKW       float64             `json:"production_per_kw"`
}
