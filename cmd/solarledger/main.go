package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mfreitag/solarledger/internal/alerting"
	"github.com/mfreitag/solarledger/internal/api"
	"github.com/mfreitag/solarledger/internal/auth"
	"github.com/mfreitag/solarledger/internal/cache"
	"github.com/mfreitag/solarledger/internal/config"
	"github.com/mfreitag/solarledger/internal/cron"
	"github.com/mfreitag/solarledger/internal/migrate"
	"github.com/mfreitag/solarledger/internal/notification"
	"github.com/mfreitag/solarledger/internal/production"
	"github.com/mfreitag/solarledger/internal/storage"
	"github.com/mfreitag/solarledger/pkg/providers/solarproviders"
	"github.com/mfreitag/solarledger/pkg/providers/solarproviders/nasapower"
	"github.com/mfreitag/solarledger/pkg/providers/solarproviders/pvwatts"
	"github.com/mfreitag/solarledger/pkg/providers/tariffproviders"
	"github.com/mfreitag/solarledger/pkg/providers/tariffproviders/nrelrates"
	"github.com/mfreitag/solarledger/pkg/providers/tariffproviders/ratepdf"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "solarledger",
		Short:         "Solar PV production and financial analysis service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(serveCmd(), workerCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

// buildProviders constructs and registers the configured upstream
// providers, returning the ordered slices the engine consumes. Tariff
// order matters: live sources first, the offline PDF fallback last.
func buildProviders(cfg config.Config) ([]solarproviders.SolarProvider, []tariffproviders.TariffProvider) {
	var solar []solarproviders.SolarProvider
	if cfg.NRELAPIKey != "" {
		p := pvwatts.New(pvwatts.Config{APIKey: cfg.NRELAPIKey})
		solarproviders.Register(p)
		solar = append(solar, p)
	}
	np := nasapower.New(nasapower.Config{})
	solarproviders.Register(np)
	solar = append(solar, np)

	var tariff []tariffproviders.TariffProvider
	if cfg.NRELAPIKey != "" {
		p := nrelrates.New(nrelrates.Config{APIKey: cfg.NRELAPIKey})
		tariffproviders.Register(p)
		tariff = append(tariff, p)
	}
	if cfg.RatePDFPath != "" {
		p := ratepdf.New(ratepdf.Config{PDFPath: cfg.RatePDFPath, Utility: cfg.RatePDFUtility})
		tariffproviders.Register(p)
		tariff = append(tariff, p)
	}
	return solar, tariff
}

type app struct {
	cfg     config.Config
	log     zerolog.Logger
	storage storage.Storage
	engine  *production.Engine
}

func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg.LogLevel)

	st, err := storage.Open(ctx, storage.Config{Driver: cfg.Storage.Driver, DSN: cfg.Storage.DSN})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	var redisClient cache.RedisClient
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis cache tier enabled")
	}

	solar, tariff := buildProviders(cfg)
	engine := production.NewEngine(solar, tariff, cache.New(redisClient, st, log), log)

	return &app{cfg: cfg, log: log, storage: st, engine: engine}, nil
}

// poolMetricsLoop publishes DB pool gauges while the context lives.
func poolMetricsLoop(ctx context.Context, st storage.Storage) {
	g, ok := st.(*storage.GormStorage)
	if !ok {
		return
	}
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.ReportPoolMetrics()
		}
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.storage.Close()

			authSvc, err := auth.NewService(a.storage)
			if err != nil {
				return fmt.Errorf("init auth: %w", err)
			}
			notifier := notification.NewService(a.storage)

			srv := api.NewServer(a.engine, a.storage, authSvc, notifier, a.log)
			httpSrv := &http.Server{
				Addr:              a.cfg.ListenAddr,
				Handler:           srv.NewMux(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			go poolMetricsLoop(ctx, a.storage)

			errCh := make(chan error, 1)
			go func() {
				a.log.Info().Str("addr", a.cfg.ListenAddr).Msg("http server listening")
				errCh <- httpSrv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			a.log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		},
	}
}

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the scheduled refresh worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.storage.Close()

			var alerter *alerting.Alerter
			if a.cfg.Alert.WebhookURL != "" {
				alerter = alerting.New(alerting.Config{
					WebhookURL: a.cfg.Alert.WebhookURL,
					Kind:       a.cfg.Alert.Kind,
				}, a.log)
			}

			go poolMetricsLoop(ctx, a.storage)

			w := cron.NewWorker(a.storage, a.engine, alerter, a.cfg.Worker.Schedule, a.cfg.Worker.LockKey, a.log)
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Run schema migrations",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.Storage.Driver == "" || cfg.Storage.Driver == "memory" {
				return errors.New("migrations need a sqlite or postgres storage driver")
			}

			ctx, stop := signalContext()
			defer stop()

			switch args[0] {
			case "up":
				return migrate.Up(ctx, cfg.Storage.Driver, cfg.Storage.DSN)
			case "down":
				return migrate.Down(ctx, cfg.Storage.Driver, cfg.Storage.DSN)
			case "status":
				return migrate.Status(ctx, cfg.Storage.Driver, cfg.Storage.DSN)
			default:
				return fmt.Errorf("unknown migrate action %q", args[0])
			}
		},
	}
}
