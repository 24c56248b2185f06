package providers

import "errors"

// ProviderType distinguishes the two provider families: solar
// production estimators and utility tariff sources.
type ProviderType string

const (
	ProviderTypeSolar  ProviderType = "solar"
	ProviderTypeTariff ProviderType = "tariff"
)

// Provider is the base interface for all upstream data providers.
type Provider interface {
	// Key returns the unique identifier for the provider (e.g., "pvwatts", "nasa_power").
	Key() string
	// Name returns the human-readable name of the provider.
	Name() string
	// Type returns the type of the provider.
	Type() ProviderType
}

// Common errors shared across providers.
var (
	ErrProviderNotFound = errors.New("provider not found")
	ErrUpstreamFailed   = errors.New("upstream request failed")
	ErrParseFailed      = errors.New("failed to parse rates")
	ErrNotConfigured    = errors.New("provider not configured")
)
