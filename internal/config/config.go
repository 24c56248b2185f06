// Package config assembles runtime configuration from, in order of
// precedence: environment variables, an optional YAML file, and
// built-in defaults. A .env file in the working directory is loaded
// into the environment first when present.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	LogLevel   string `yaml:"log_level"`

	Storage StorageConfig `yaml:"storage"`
	Redis   RedisConfig   `yaml:"redis"`
	Worker  WorkerConfig  `yaml:"worker"`
	Alert   AlertConfig   `yaml:"alert"`

	// NREL API key, shared by the PVWatts and utility-rates clients.
	NRELAPIKey string `yaml:"nrel_api_key"`

	// Offline tariff fallback.
	RatePDFPath    string `yaml:"rate_pdf_path"`
	RatePDFUtility string `yaml:"rate_pdf_utility"`

	// Parameter overrides applied on top of the built-in financial
	// defaults, keyed by wire name.
	Parameters map[string]float64 `yaml:"parameters"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"` // memory, sqlite, postgres
	DSN    string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"` // empty disables the medium cache tier
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type WorkerConfig struct {
	Schedule string `yaml:"schedule"` // cron expression or @every form
	LockKey  int64  `yaml:"lock_key"`
}

type AlertConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	Kind       string `yaml:"kind"` // slack, discord, generic
}

func defaults() Config {
	return Config{
		ListenAddr: ":8080",
		LogLevel:   "info",
		Storage:    StorageConfig{Driver: "memory"},
		Worker:     WorkerConfig{Schedule: "@every 24h", LockKey: 7310441},
		Alert:      AlertConfig{Kind: "generic"},
	}
}

// Load builds the configuration. path names an optional YAML file;
// when empty, SOLARLEDGER_CONFIG is consulted. Environment variables
// win over the file.
func Load(path string) (Config, error) {
	// .env is optional; ignore a missing file
	godotenv.Load()

	cfg := defaults()

	if path == "" {
		path = os.Getenv("SOLARLEDGER_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.ListenAddr, "LISTEN_ADDR")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.Storage.Driver, "STORAGE_DRIVER")
	setString(&cfg.Storage.DSN, "STORAGE_DSN")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")
	setString(&cfg.Worker.Schedule, "WORKER_SCHEDULE")
	setInt64(&cfg.Worker.LockKey, "WORKER_LOCK_KEY")
	setString(&cfg.Alert.WebhookURL, "ALERT_WEBHOOK_URL")
	setString(&cfg.Alert.Kind, "ALERT_KIND")
	setString(&cfg.NRELAPIKey, "NREL_API_KEY")
	setString(&cfg.RatePDFPath, "RATE_PDF_PATH")
	setString(&cfg.RatePDFUtility, "RATE_PDF_UTILITY")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}
