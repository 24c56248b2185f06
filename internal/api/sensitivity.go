package api

import (
	"fmt"
	"net/http"

	"github.com/mfreitag/solarledger/internal/finance"
	"github.com/mfreitag/solarledger/internal/sensitivity"
)

// sensitivityBase is the shared prefix of every sensitivity request:
// the resolved analysis inputs plus the usual params/overrides pair.
// Sensitivity runs on figures the caller already has; it never reaches
// out to the production or tariff providers.
type sensitivityBase struct {
	CapacityKW          float64             `json:"capacity_kw"`
	AnnualProductionKWh float64             `json:"annual_production_kwh"`
	ElectricityRate     float64             `json:"electricity_rate"`
	Params              *finance.Parameters `json:"params,omitempty"`
	ParamOverrides      map[string]float64  `json:"param_overrides,omitempty"`
}

func (b sensitivityBase) input() (sensitivity.Input, error) {
	params, err := resolveParams(b.Params, b.ParamOverrides)
	if err != nil {
		return sensitivity.Input{}, err
	}
	return sensitivity.Input{
		CapacityKW:          b.CapacityKW,
		AnnualProductionKWh: b.AnnualProductionKWh,
		ElectricityRate:     b.ElectricityRate,
		Params:              params,
	}, nil
}

type sweepRequest struct {
	sensitivityBase
	Parameter  string    `json:"parameter"`
	Variations []float64 `json:"variations,omitempty"`
}

// POST /api/v1/sensitivity/sweep
func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req sweepRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "/api/v1/sensitivity/sweep", fmt.Errorf("%w: %v", finance.ErrInvalidInput, err))
		return
	}
	if req.Parameter == "" {
		writeError(w, "/api/v1/sensitivity/sweep", fmt.Errorf("%w: parameter is required", finance.ErrInvalidInput))
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, "/api/v1/sensitivity/sweep", err)
		return
	}
	result, err := s.analyzer.SweepParameter(in, req.Parameter, req.Variations)
	if err != nil {
		writeError(w, "/api/v1/sensitivity/sweep", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type tornadoRequest struct {
	sensitivityBase
	Parameters []string `json:"parameters,omitempty"`
}

// POST /api/v1/sensitivity/tornado
func (s *Server) handleTornado(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req tornadoRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "/api/v1/sensitivity/tornado", fmt.Errorf("%w: %v", finance.ErrInvalidInput, err))
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, "/api/v1/sensitivity/tornado", err)
		return
	}
	result, err := s.analyzer.RankTornado(in, req.Parameters)
	if err != nil {
		writeError(w, "/api/v1/sensitivity/tornado", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type scenariosRequest struct {
	sensitivityBase
	// Named override bundles. Empty means the built-in what-if bundles
	// (optimistic, pessimistic, high financing, cash purchase).
	Scenarios map[string]map[string]float64 `json:"scenarios,omitempty"`
}

// POST /api/v1/sensitivity/scenarios
func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req scenariosRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "/api/v1/sensitivity/scenarios", fmt.Errorf("%w: %v", finance.ErrInvalidInput, err))
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, "/api/v1/sensitivity/scenarios", err)
		return
	}

	if len(req.Scenarios) == 0 {
		result, err := finance.ScenarioAnalysis(in.CapacityKW, in.AnnualProductionKWh, in.ElectricityRate, in.Params)
		if err != nil {
			writeError(w, "/api/v1/sensitivity/scenarios", err)
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}

	result, err := s.analyzer.CompareScenarios(in, req.Scenarios)
	if err != nil {
		writeError(w, "/api/v1/sensitivity/scenarios", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type customScenarioRequest struct {
	sensitivityBase
	Overrides map[string]float64 `json:"overrides"`
}

// POST /api/v1/sensitivity/custom
func (s *Server) handleCustomScenario(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req customScenarioRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "/api/v1/sensitivity/custom", fmt.Errorf("%w: %v", finance.ErrInvalidInput, err))
		return
	}
	if len(req.Overrides) == 0 {
		writeError(w, "/api/v1/sensitivity/custom", fmt.Errorf("%w: overrides are required", finance.ErrInvalidInput))
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, "/api/v1/sensitivity/custom", err)
		return
	}
	result, err := s.analyzer.CustomScenario(in, req.Overrides)
	if err != nil {
		writeError(w, "/api/v1/sensitivity/custom", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
