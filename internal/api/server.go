// Package api exposes the HTTP surface: analysis endpoints, saved
// projects, auth, email config, and the operational endpoints
// (health, metrics, swagger).
package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/mfreitag/solarledger/internal/api/swagger"
	"github.com/mfreitag/solarledger/internal/auth"
	"github.com/mfreitag/solarledger/internal/notification"
	"github.com/mfreitag/solarledger/internal/production"
	"github.com/mfreitag/solarledger/internal/sensitivity"
	"github.com/mfreitag/solarledger/internal/storage"
	"github.com/mfreitag/solarledger/internal/ui"
)

type Server struct {
	engine   *production.Engine
	analyzer *sensitivity.Analyzer
	storage  storage.Storage
	auth     *auth.Service
	notifier *notification.Service
	log      zerolog.Logger
}

func NewServer(engine *production.Engine, st storage.Storage, authSvc *auth.Service, notifier *notification.Service, log zerolog.Logger) *Server {
	return &Server{
		engine:   engine,
		analyzer: sensitivity.NewAnalyzer(log),
		storage:  st,
		auth:     authSvc,
		notifier: notifier,
		log:      log.With().Str("component", "api").Logger(),
	}
}

// NewMux constructs the HTTP mux with all routes wired.
func (s *Server) NewMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("live"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := s.storage.Ping(r.Context()); err != nil {
			s.log.Error().Err(err).Msg("readyz: storage ping failed")
			http.Error(w, "storage not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// analysis endpoints, no auth required
	mux.HandleFunc("/api/v1/utility-rates", instrument("/api/v1/utility-rates", s.handleUtilityRates))
	mux.HandleFunc("/api/v1/utility-rates/refresh", instrument("/api/v1/utility-rates/refresh", s.handleUtilityRatesRefresh))
	mux.HandleFunc("/api/v1/production", instrument("/api/v1/production", s.handleProduction))
	mux.HandleFunc("/api/v1/financials", instrument("/api/v1/financials", s.handleFinancials))
	mux.HandleFunc("/api/v1/analyze", instrument("/api/v1/analyze", s.handleAnalyze))
	mux.HandleFunc("/api/v1/sensitivity/sweep", instrument("/api/v1/sensitivity/sweep", s.handleSweep))
	mux.HandleFunc("/api/v1/sensitivity/tornado", instrument("/api/v1/sensitivity/tornado", s.handleTornado))
	mux.HandleFunc("/api/v1/sensitivity/scenarios", instrument("/api/v1/sensitivity/scenarios", s.handleScenarios))
	mux.HandleFunc("/api/v1/sensitivity/custom", instrument("/api/v1/sensitivity/custom", s.handleCustomScenario))
	mux.HandleFunc("/api/v1/providers", instrument("/api/v1/providers", s.handleListProviders))
	mux.HandleFunc("/api/v1/parameters", instrument("/api/v1/parameters", s.handleParameters))

	// auth endpoints
	mux.HandleFunc("/api/v1/auth/register", instrument("/api/v1/auth/register", s.handleRegister))
	mux.HandleFunc("/api/v1/auth/login", instrument("/api/v1/auth/login", s.handleLogin))
	mux.Handle("/api/v1/auth/tokens", s.auth.Middleware(instrument("/api/v1/auth/tokens", s.handleTokens)))

	// saved projects, auth required
	mux.Handle("/api/v1/projects", s.auth.Middleware(instrument("/api/v1/projects", s.handleProjects)))
	mux.Handle("/api/v1/projects/", s.auth.Middleware(instrument("/api/v1/projects/", s.handleProjectByID)))

	// email config, admin only
	mux.Handle("/api/v1/email-config", s.auth.Middleware(
		s.auth.RequirePermission("users", "write",
			instrument("/api/v1/email-config", s.handleEmailConfig))))

	mux.Handle("/swagger/", http.StripPrefix("/swagger", swagger.Handler()))
	mux.Handle("/", ui.Handler())

	return mux
}
