package tariffproviders

import (
	"context"

	"github.com/mfreitag/solarledger/pkg/providers"
)

// TariffProvider is the interface that all utility rate sources must
// implement.
type TariffProvider interface {
	providers.Provider

	// Rates returns the tariff snapshot for a location.
	Rates(ctx context.Context, lat, lon float64) (*Rates, error)
}
