package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/mfreitag/solarledger/internal/finance"
	"github.com/mfreitag/solarledger/internal/metrics"
	"github.com/mfreitag/solarledger/pkg/providers"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP statuses: bad input is
// the caller's fault (400), upstream data failures are gateway errors
// (502), everything else is a 500.
func writeError(w http.ResponseWriter, path string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, finance.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, finance.ErrNoProductionData),
		errors.Is(err, providers.ErrUpstreamFailed),
		errors.Is(err, providers.ErrParseFailed):
		status = http.StatusBadGateway
	case errors.Is(err, providers.ErrProviderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, providers.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	}
	metrics.RequestErrorsTotal.WithLabelValues(path, strconv.Itoa(status)).Inc()
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// instrument wraps a handler with the request counter and duration
// histogram under a stable path label.
func instrument(path string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.RequestsTotal.WithLabelValues(path).Inc()
		defer func() {
			metrics.RequestDurationSeconds.WithLabelValues(path).Observe(time.Since(start).Seconds())
		}()
		h(w, r)
	}
}

// decodeBody reads a JSON request body into dst, failing on unknown
// fields so typos in parameter names surface as 400s instead of being
// silently ignored.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}
