package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration, built once at process start
// and passed into components explicitly.
type Config struct {
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	ServerAddr string `env:"SERVER_ADDR" envDefault:":8080"`

	DatasetID     string `env:"DATASET_ID,required"`
	AccessToken   string `env:"ACCESS_TOKEN,required"`
	AllowedOrigin string `env:"ALLOWED_ORIGIN,required"`
	TestEventCode string `env:"TEST_EVENT_CODE"`

	CAPIBaseURL     string        `env:"CAPI_BASE_URL" envDefault:"https://graph.facebook.com/v21.0"`
	DispatchTimeout time.Duration `env:"DISPATCH_TIMEOUT" envDefault:"10s"`
	DispatchRetries int           `env:"DISPATCH_RETRIES" envDefault:"0"`

	// GeoAPIKey empty disables geo enrichment entirely.
	GeoAPIKey  string        `env:"GEO_API_KEY"`
	GeoBaseURL string        `env:"GEO_BASE_URL" envDefault:"https://api.ipgeolocation.io/ipgeo"`
	GeoTimeout time.Duration `env:"GEO_TIMEOUT" envDefault:"3s"`

	WebhookToken string `env:"WEBHOOK_TOKEN"`

	MaxBodySize  int64   `env:"MAX_BODY_SIZE_BYTES" envDefault:"1048576"` // 1MB
	RateLimitRPS float64 `env:"RATE_LIMIT_RPS" envDefault:"0"`            // 0 disables
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	return cfg, nil
}
