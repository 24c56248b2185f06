// Package nasapower estimates production from NASA POWER climatology
// data: long-term monthly irradiance averages converted through a
// panel-area potential model.
package nasapower

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"time"

	"github.com/mfreitag/solarledger/pkg/providers"
	"github.com/mfreitag/solarledger/pkg/providers/shared"
	"github.com/mfreitag/solarledger/pkg/providers/solarproviders"
)

const defaultBaseURL = "https://power.larc.nasa.gov/api/temporal/climatology/point"

// areaPerKW approximates installed panel area, m² per kW of capacity.
const areaPerKW = 5.5

var months = []struct {
	abbr string
	name string
	days int
}{
	{"JAN", "January", 31}, {"FEB", "February", 28}, {"MAR", "March", 31},
	{"APR", "April", 30}, {"MAY", "May", 31}, {"JUN", "June", 30},
	{"JUL", "July", 31}, {"AUG", "August", 31}, {"SEP", "September", 30},
	{"OCT", "October", 31}, {"NOV", "November", 30}, {"DEC", "December", 31},
}

type Provider struct {
	baseURL string
	client  *shared.Client
}

// Config holds the NASA POWER client settings. The API needs no key.
type Config struct {
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
		baseURL: baseURL,
		client: shared.NewClient(shared.ClientConfig{
			Name:            "nasa_power",
			Timeout:         cfg.Timeout,
			RequestsPerHour: cfg.RequestsPerHour,
		}),
	}
}

func (p *Provider) Key() string                  { return "nasa_power" }
func (p *Provider) Name() string                 { return "NASA POWER" }
func (p *Provider) Type() providers.ProviderType { return providers.ProviderTypeSolar }

type climatologyResponse struct {
	Properties struct {
		Parameter map[string]map[string]float64 `json:"parameter"`
	} `json:"properties"`
}

// Estimate converts monthly climatology irradiance (kWh/m²/day) into
// production: irradiance × days in month × panel area × module
// efficiency × array factor × performance ratio.
func (p *Provider) Estimate(ctx context.Context, spec solarproviders.SystemSpec) (*solarproviders.Estimate, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("nasapower: %w", err)
	}

	params := url.Values{}
	params.Set("parameters", "ALLSKY_SFC_SW_DWN,T2M")
	params.Set("community", "RE")
	params.Set("latitude", fmt.Sprintf("%g", spec.Latitude))
	params.Set("longitude", fmt.Sprintf("%g", spec.Longitude))
	params.Set("format", "JSON")

	var resp climatologyResponse
	if err := p.client.GetJSON(ctx, p.baseURL, params, &resp); err != nil {
		return nil, fmt.Errorf("nasapower: %w: %v", providers.ErrUpstreamFailed, err)
	}

	irradiance := resp.Properties.Parameter["ALLSKY_SFC_SW_DWN"]
	if len(irradiance) == 0 {
		return nil, fmt.Errorf("nasapower: %w: no irradiance data", providers.ErrUpstreamFailed)
	}

	area := spec.CapacityKW * areaPerKW
	effectiveEfficiency := spec.Efficiency() * spec.ArrayFactor()
	performanceRatio := spec.PerformanceRatio()

	est := &solarproviders.Estimate{Source: "nasa"}
	for _, m := range months {
		daily, ok := irradiance[m.abbr]
		if !ok {
			continue
		}
		monthly := daily * float64(m.days) * area * effectiveEfficiency * performanceRatio
		monthly = math.Round(monthly*100) / 100
		est.MonthlyProductionKWh = append(est.MonthlyProductionKWh, solarproviders.MonthlyProduction{
			Month:         m.name,
			MonthNum:      monthNum(m.abbr),
			ProductionKWh: monthly,
		})
		est.AnnualProductionKWh += monthly
	}
	if len(est.MonthlyProductionKWh) == 0 {
		return nil, fmt.Errorf("nasapower: %w: no usable months in response", providers.ErrUpstreamFailed)
	}

	sort.Slice(est.MonthlyProductionKWh, func(i, j int) bool {
		return est.MonthlyProductionKWh[i].MonthNum < est.MonthlyProductionKWh[j].MonthNum
	})
	est.AnnualProductionKWh = math.Round(est.AnnualProductionKWh*100) / 100
	est.ProductionPerKW = est.AnnualProductionKWh / spec.CapacityKW
	return est, nil
}

func monthNum(abbr string) int {
	for i, m := range months {
		if m.abbr == abbr {
			return i + 1
		}
	}
	return 0
}
