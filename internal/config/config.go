package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	DatabaseURL string `mapstructure:"database_url"`
	HTTPPort    string `mapstructure:"http_port"`
	// AdminAPIKey guards mutating routes when set.
	AdminAPIKey string `mapstructure:"admin_api_key"`

	BrapiURL           string `mapstructure:"brapi_url"`
	BrapiToken         string `mapstructure:"brapi_token"`
	AlphaVantageURL    string `mapstructure:"alphavantage_url"`
	AlphaVantageAPIKey string `mapstructure:"alphavantage_api_key"`
	CoinGeckoURL       string `mapstructure:"coingecko_url"`
	CoinGeckoCurrency  string `mapstructure:"coingecko_currency"`

	HTTPRetryMax    int           `mapstructure:"http_retry_max"`
	HTTPRetryWait   time.Duration `mapstructure:"http_retry_wait"`
	BulkUpdateDelay time.Duration `mapstructure:"bulk_update_delay"`
	QuoteCacheTTL   time.Duration `mapstructure:"quote_cache_ttl"`

	// Zero disables the worker.
	PriceWorkerInterval    time.Duration `mapstructure:"price_worker_interval"`
	SnapshotWorkerInterval time.Duration `mapstructure:"snapshot_worker_interval"`

	GoogleSheetsID        string `mapstructure:"google_sheets_id"`
	GoogleCredentialsJSON string `mapstructure:"google_credentials_json"`
}

var defaults = map[string]any{
	"database_url":             "",
	"http_port":                "8080",
	"admin_api_key":            "",
	"brapi_url":                "https://brapi.dev/api",
	"brapi_token":              "demo",
	"alphavantage_url":         "https://www.alphavantage.co/query",
	"alphavantage_api_key":     "",
	"coingecko_url":            "https://api.coingecko.com/api/v3",
	"coingecko_currency":       "brl",
	"http_retry_max":           3,
	"http_retry_wait":          time.Second,
	"bulk_update_delay":        500 * time.Millisecond,
	"quote_cache_ttl":          time.Minute,
	"price_worker_interval":    time.Duration(0),
	"snapshot_worker_interval": time.Hour,
	"google_sheets_id":         "",
	"google_credentials_json":  "",
}

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory or $HOME/.wizard.
// Environment variables take precedence over the file.
func Load() (Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.wizard")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		slog.Warn("required config not set", "key", "DATABASE_URL")
	}
	return cfg, nil
}
