package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries all runtime configuration, loaded once at startup.
type Config struct {
	Environment string
	HTTPAddr    string

	Database  Database
	Stripe    Stripe
	Tracing   Tracing
	Bootstrap Bootstrap
	RateLimit RateLimit
}

// Database selects the gorm driver and DSN.
type Database struct {
	Driver string
	DSN    string
}

// Stripe holds billing provider credentials.
type Stripe struct {
	APIKey        string
	WebhookSecret string
}

// Tracing configures the OTLP exporter.
type Tracing struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	SamplingRatio    float64
	ServiceVersion   string
}

// Bootstrap controls OSS-mode startup seeding.
type Bootstrap struct {
	EnsureDemoAccount bool
}

// RateLimit bounds mutating billing requests per account.
type RateLimit struct {
	Limit  int
	Window time.Duration
}

// Load reads configuration from the environment. A local .env file is
// honored when present so development does not need exported variables.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment: getEnv("APP_ENV", "development"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		Database: Database{
			Driver: strings.ToLower(getEnv("DATABASE_DRIVER", "postgres")),
			DSN:    getEnv("DATABASE_URL", ""),
		},
		Stripe: Stripe{
			APIKey:        getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		},
		Tracing: Tracing{
			Enabled:          getEnvBool("OTEL_ENABLED", false),
			ExporterEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ExporterProtocol: getEnv("OTEL_EXPORTER_OTLP_PROTOCOL", "http"),
			SamplingRatio:    getEnvFloat("OTEL_SAMPLING_RATIO", 0.1),
			ServiceVersion:   getEnv("SERVICE_VERSION", "dev"),
		},
		Bootstrap: Bootstrap{
			EnsureDemoAccount: getEnvBool("BOOTSTRAP_DEMO_ACCOUNT", true),
		},
		RateLimit: RateLimit{
			Limit:  getEnvInt("BILLING_RATE_LIMIT", 10),
			Window: getEnvDuration("BILLING_RATE_WINDOW", time.Minute),
		},
	}
	return cfg, nil
}

// IsCloud reports whether the service runs in the hosted environment.
func (c Config) IsCloud() bool {
	return strings.EqualFold(c.Environment, "cloud")
}

// IsProduction reports whether the service runs against live billing data.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production") || c.IsCloud()
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
