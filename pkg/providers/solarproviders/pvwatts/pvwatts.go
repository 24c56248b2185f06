// Package pvwatts estimates production through NREL's PVWatts API.
package pvwatts

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/mfreitag/solarledger/pkg/providers"
	"github.com/mfreitag/solarledger/pkg/providers/shared"
	"github.com/mfreitag/solarledger/pkg/providers/solarproviders"
)

const defaultBaseURL = "https://developer.nrel.gov/api/pvwatts/v6.json"

var monthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

type Provider struct {
	apiKey  string
	baseURL string
	client  *shared.Client
}

// Config holds the PVWatts client settings. NREL developer keys are
// quota limited per hour, hence the limiter settings on the shared
// client.
type Config struct {
	APIKey          string
	BaseURL         string
	Timeout         time.Duration
	RequestsPerHour int
}

func New(cfg Config) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Provider{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client: shared.NewClient(shared.ClientConfig{
			Name:            "pvwatts",
			Timeout:         cfg.Timeout,
			RequestsPerHour: cfg.RequestsPerHour,
		}),
	}
}

func (p *Provider) Key() string                  { return "pvwatts" }
func (p *Provider) Name() string                 { return "NREL PVWatts" }
func (p *Provider) Type() providers.ProviderType { return providers.ProviderTypeSolar }

type pvwattsResponse struct {
	Outputs struct {
		ACAnnual       float64   `json:"ac_annual"`
		ACMonthly      []float64 `json:"ac_monthly"`
		CapacityFactor float64   `json:"capacity_factor"`
	} `json:"outputs"`
	Errors []string `json:"errors"`
}

func (p *Provider) Estimate(ctx context.Context, spec solarproviders.SystemSpec) (*solarproviders.Estimate, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("pvwatts: %w: missing API key", providers.ErrNotConfigured)
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("pvwatts: %w", err)
	}

	params := url.Values{}
	params.Set("api_key", p.apiKey)
	params.Set("lat", formatFloat(spec.Latitude))
	params.Set("lon", formatFloat(spec.Longitude))
	params.Set("system_capacity", formatFloat(spec.CapacityKW))
	params.Set("module_type", strconv.Itoa(spec.ModuleType))
	params.Set("losses", formatFloat(spec.LossesPercent))
	params.Set("array_type", strconv.Itoa(spec.ArrayType))
	params.Set("tilt", formatFloat(spec.TiltDegrees))
	params.Set("azimuth", formatFloat(spec.AzimuthDegrees))

	var resp pvwattsResponse
	if err := p.client.GetJSON(ctx, p.baseURL, params, &resp); err != nil {
		return nil, fmt.Errorf("pvwatts: %w: %v", providers.ErrUpstreamFailed, err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("pvwatts: %w: %s", providers.ErrUpstreamFailed, resp.Errors[0])
	}
	if resp.Outputs.ACAnnual <= 0 {
		return nil, fmt.Errorf("pvwatts: %w: empty production output", providers.ErrUpstreamFailed)
	}

	est := &solarproviders.Estimate{
		Source:                "nrel",
		AnnualProductionKWh:   resp.Outputs.ACAnnual,
		CapacityFactorPercent: resp.Outputs.CapacityFactor,
		ProductionPerKW:       resp.Outputs.ACAnnual / spec.CapacityKW,
	}
	for i, kwh := range resp.Outputs.ACMonthly {
		if i >= len(monthNames) {
			break
		}
		est.MonthlyProductionKWh = append(est.MonthlyProductionKWh, solarproviders.MonthlyProduction{
			Month:         monthNames[i],
			MonthNum:      i + 1,
			ProductionKWh: kwh,
		})
	}
	return est, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
