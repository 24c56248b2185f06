package finance

import "errors"

// Sentinel errors. Callers discriminate with errors.Is; the API layer
// maps ErrInvalidInput to 400 and ErrNoProductionData to 502.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNoProductionData = errors.New("no valid production data")
)
