// Package nrelrates fetches utility tariffs from NREL's utility rates
// API.
package nrelrates

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/mfreitag/solarledger/pkg/providers"
	"github.com/mfreitag/solarledger/pkg/providers/shared"
	"github.com/mfreitag/solarledger/pkg/providers/tariffproviders"
)

const defaultBaseURL = "https://developer.nrel.gov/api/utility_rates/v3.json"

type Provider struct {
	apiKey  string
	baseURL string
	client  *shared.Client
}

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
			Name:            "nrel_rates",
			Timeout:         cfg.Timeout,
			RequestsPerHour: cfg.RequestsPerHour,
		}),
	}
}

func (p *Provider) Key() string                  { return "nrel_rates" }
func (p *Provider) Name() string                 { return "NREL Utility Rates" }
func (p *Provider) Type() providers.ProviderType { return providers.ProviderTypeTariff }

type ratesResponse struct {
	Outputs struct {
		UtilityName string  `json:"utility_name"`
		Residential float64 `json:"residential"`
		Commercial  float64 `json:"commercial"`
		Industrial  float64 `json:"industrial"`
	} `json:"outputs"`
	Errors []string `json:"errors"`
}

func (p *Provider) Rates(ctx context.Context, lat, lon float64) (*tariffproviders.Rates, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("nrelrates: %w: missing API key", providers.ErrNotConfigured)
	}

	params := url.Values{}
	params.Set("api_key", p.apiKey)
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("radius", "0")

	var resp ratesResponse
	if err := p.client.GetJSON(ctx, p.baseURL, params, &resp); err != nil {
		return nil, fmt.Errorf("nrelrates: %w: %v", providers.ErrUpstreamFailed, err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("nrelrates: %w: %s", providers.ErrUpstreamFailed, resp.Errors[0])
	}
	if resp.Outputs.Residential <= 0 {
		return nil, fmt.Errorf("nrelrates: %w: no residential rate for location", providers.ErrUpstreamFailed)
	}

	return &tariffproviders.Rates{
		Utility:         resp.Outputs.UtilityName,
		ResidentialRate: resp.Outputs.Residential,
		CommercialRate:  resp.Outputs.Commercial,
		IndustrialRate:  resp.Outputs.Industrial,
		Source:          "NREL Utility Rates API",
		FetchedAt:       time.Now().UTC(),
	}, nil
}
