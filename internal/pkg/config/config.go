package config

import (
	"errors"
	"strings"

	"github.com/bonesy512/landhub/internal/pkg/env"
)

const (
	ModeTest = "test"
	ModeLive = "live"
)

// Config carries every process-wide setting. It is built exactly once at
// startup and passed by reference; components never read ambient env state.
type Config struct {
	AppHost string
	AppPort string
	Mode    string

	StripeSecretKey     string
	StripeWebhookSecret string

	GoogleMapsAPIKey string
	GoogleMapsAPIURL string

	DBUser     string
	DBPassword string
	DBHost     string
	DBName     string

	CacheHost string
	CachePort string
}

// Load builds the configuration from the environment. The test/live key
// pair is selected here and nowhere else.
func Load() *Config {
	mode := strings.ToLower(strings.TrimSpace(env.GetEnv("BILLING_MODE", ModeTest)))
	if mode != ModeLive {
		mode = ModeTest
	}

	cfg := &Config{
		AppHost:          env.GetEnv("APP_HOST", "localhost"),
		AppPort:          env.GetEnv("APP_PORT", "4000"),
		Mode:             mode,
		GoogleMapsAPIKey: env.GetEnv("GOOGLE_MAPS_API_KEY", ""),
		GoogleMapsAPIURL: env.GetEnv("GOOGLE_MAPS_API_URL", ""),
		DBUser:           env.GetEnv("DB_USER", ""),
		DBPassword:       env.GetEnv("DB_PASSWORD", ""),
		DBHost:           env.GetEnv("DB_HOST", "127.0.0.1"),
		DBName:           env.GetEnv("DB_NAME", "landhub"),
		CacheHost:        env.GetEnv("CACHE_HOST", "localhost"),
		CachePort:        env.GetEnv("CACHE_PORT", "6379"),
	}

	if mode == ModeLive {
		cfg.StripeSecretKey = env.GetEnv("STRIPE_SECRET_KEY", "")
		cfg.StripeWebhookSecret = env.GetEnv("STRIPE_WEBHOOK_SECRET", "")
	} else {
		cfg.StripeSecretKey = env.GetEnv("STRIPE_TEST_SECRET_KEY", "")
		cfg.StripeWebhookSecret = env.GetEnv("STRIPE_TEST_WEBHOOK_SECRET", "")
	}

	return cfg
}

// IsLive reports whether the process runs against live billing keys.
func (c *Config) IsLive() bool {
	return c.Mode == ModeLive
}

// Validate checks the settings required for the billing surface.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.StripeSecretKey) == "" {
		return errors.New("stripe secret key is not configured")
	}
	if strings.TrimSpace(c.StripeWebhookSecret) == "" {
		return errors.New("stripe webhook secret is not configured")
	}
	return nil
}
