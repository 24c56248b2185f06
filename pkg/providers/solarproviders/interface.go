package solarproviders

import (
	"context"

	"github.com/mfreitag/solarledger/pkg/providers"
)

// SolarProvider is the interface that all production estimators must
// implement.
type SolarProvider interface {
	providers.Provider

	// Estimate returns annual and monthly production for the spec.
	Estimate(ctx context.Context, spec SystemSpec) (*Estimate, error)
}
