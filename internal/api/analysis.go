package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/mfreitag/solarledger/internal/finance"
	"github.com/mfreitag/solarledger/internal/production"
	"github.com/mfreitag/solarledger/pkg/providers/solarproviders"
	"github.com/mfreitag/solarledger/pkg/providers/tariffproviders"
)

// resolveParams turns the optional params/overrides pair every analysis
// request carries into a concrete parameter set.
func resolveParams(params *finance.Parameters, overrides map[string]float64) (finance.Parameters, error) {
	base := finance.DefaultParameters()
	if params != nil {
		base = *params
	}
	if len(overrides) == 0 {
		return base, nil
	}
	return base.Merge(overrides)
}

func parseCoordinates(r *http.Request) (float64, float64, error) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: invalid lat", finance.ErrInvalidInput)
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: invalid lon", finance.ErrInvalidInput)
	}
	return lat, lon, nil
}

// GET /api/v1/utility-rates?lat=..&lon=..
func (s *Server) handleUtilityRates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	lat, lon, err := parseCoordinates(r)
	if err != nil {
		writeError(w, "/api/v1/utility-rates", err)
		return
	}
	rates, err := s.engine.Rates(r.Context(), lat, lon)
	if err != nil {
		writeError(w, "/api/v1/utility-rates", err)
		return
	}
	writeJSON(w, http.StatusOK, rates)
}

// POST /api/v1/utility-rates/refresh?lat=..&lon=..
func (s *Server) handleUtilityRatesRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	lat, lon, err := parseCoordinates(r)
	if err != nil {
		writeError(w, "/api/v1/utility-rates/refresh", err)
		return
	}
	rates, err := s.engine.RefreshRates(r.Context(), lat, lon)
	if err != nil {
		writeError(w, "/api/v1/utility-rates/refresh", err)
		return
	}
	writeJSON(w, http.StatusOK, rates)
}

type productionRequest struct {
	Spec solarproviders.SystemSpec `json:"system_spec"`
}

// POST /api/v1/production
func (s *Server) handleProduction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req productionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "/api/v1/production", fmt.Errorf("%w: %v", finance.ErrInvalidInput, err))
		return
	}
	report, err := s.engine.EstimateProduction(r.Context(), req.Spec)
	if err != nil {
		writeError(w, "/api/v1/production", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type financialsRequest struct {
	CapacityKW          float64             `json:"capacity_kw"`
	AnnualProductionKWh float64             `json:"annual_production_kwh"`
	ElectricityRate     float64             `json:"electricity_rate"`
	Params              *finance.Parameters `json:"params,omitempty"`
	ParamOverrides      map[string]float64  `json:"param_overrides,omitempty"`
}

// POST /api/v1/financials runs the projection over caller-supplied
// figures, no provider lookups involved.
func (s *Server) handleFinancials(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req financialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "/api/v1/financials", fmt.Errorf("%w: %v", finance.ErrInvalidInput, err))
		return
	}
	params, err := resolveParams(req.Params, req.ParamOverrides)
	if err != nil {
		writeError(w, "/api/v1/financials", err)
		return
	}
	result, err := finance.ProjectFinancials(req.CapacityKW, req.AnnualProductionKWh, req.ElectricityRate, params)
	if err != nil {
		writeError(w, "/api/v1/financials", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type analyzeRequest struct {
	Spec                solarproviders.SystemSpec `json:"system_spec"`
	Params              *finance.Parameters       `json:"params,omitempty"`
	ParamOverrides      map[string]float64        `json:"param_overrides,omitempty"`
	ElectricityRate     float64                   `json:"electricity_rate,omitempty"`
	AnnualProductionKWh float64                   `json:"annual_production_kwh,omitempty"`
	IncludeSensitivity  bool                      `json:"include_sensitivity,omitempty"`
}

// POST /api/v1/analyze is the end-to-end path: production estimate,
// tariff lookup, projection, optional tornado ranking.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req analyzeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "/api/v1/analyze", fmt.Errorf("%w: %v", finance.ErrInvalidInput, err))
		return
	}
	params, err := resolveParams(req.Params, req.ParamOverrides)
	if err != nil {
		writeError(w, "/api/v1/analyze", err)
		return
	}
	analysis, err := s.engine.AnalyzeSystem(r.Context(), production.AnalysisRequest{
		Spec:                req.Spec,
		Params:              params,
		ElectricityRate:     req.ElectricityRate,
		AnnualProductionKWh: req.AnnualProductionKWh,
		IncludeSensitivity:  req.IncludeSensitivity,
	})
	if err != nil {
		writeError(w, "/api/v1/analyze", err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

type providerInfo struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// GET /api/v1/providers lists every registered provider.
func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	var out []providerInfo
	for _, key := range solarproviders.List() {
		p, _ := solarproviders.Get(key)
		out = append(out, providerInfo{Key: p.Key(), Name: p.Name(), Type: string(p.Type())})
	}
	for _, key := range tariffproviders.List() {
		p, _ := tariffproviders.Get(key)
		out = append(out, providerInfo{Key: p.Key(), Name: p.Name(), Type: string(p.Type())})
	}
	writeJSON(w, http.StatusOK, out)
}

type parametersResponse struct {
	Defaults finance.Parameters `json:"defaults"`
	Names    []string           `json:"names"`
}

// GET /api/v1/parameters exposes the default assumptions and the wire
// names accepted by overrides, sweeps and scenarios.
func (s *Server) handleParameters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, parametersResponse{
		Defaults: finance.DefaultParameters(),
		Names:    finance.ParameterNames(),
	})
}
