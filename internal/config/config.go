// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/wayfarer/wayfarer/internal/database"
)

// Catalog backends.
const (
	CatalogPostgres  = "postgres"
	CatalogPostgREST = "postgrest"
)

// Config holds all configuration shared by the API and the worker.
type Config struct {
	Server    ServerConfig
	Database  database.Config
	Redis     RedisConfig
	Catalog   CatalogConfig
	PubSub    PubSubConfig
	JWT       JWTConfig
	Telemetry TelemetryConfig
	Worker    WorkerConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        string
	Environment string
	LogLevel    string
	RequireTLS  bool
	CORSOrigins []string
}

// RedisConfig holds flow cache settings. An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// CatalogConfig selects where entity lookups go.
type CatalogConfig struct {
	Backend string

	// BaseURL and APIKey address the hosted data store REST API.
	BaseURL string
	APIKey  string

	// RatePerSecond caps REST lookups per table. Zero is unlimited.
	RatePerSecond float64
}

// PubSubConfig holds save-event settings. An empty ProjectID disables
// publishing.
type PubSubConfig struct {
	ProjectID    string
	Topic        string
	Subscription string
}

// JWTConfig holds admin token verification settings.
type JWTConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled     bool
	Endpoint    string
	SampleRatio float64
}

// WorkerConfig holds flow refresh settings.
type WorkerConfig struct {
	Concurrency     int
	Timeout         time.Duration
	RefreshInterval time.Duration
}

// Load reads the given .env files, or ./.env when none are named, and then
// builds the configuration from the environment. Variables already set in
// the environment win over file values. A missing default .env is ignored.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	} else if err := godotenv.Load(files...); err != nil {
		return nil, fmt.Errorf("load %s: %w", strings.Join(files, ", "), err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("APP_PORT", "8080"),
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			RequireTLS:  getEnvAsBool("REQUIRE_TLS", false),
			CORSOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: database.Config{
			URL:             getEnv("DATABASE_URL", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "wayfarer"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "wayfarer"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      getEnvAsDuration("FLOW_CACHE_TTL", 5*time.Minute),
		},
		Catalog: CatalogConfig{
			Backend:       strings.ToLower(getEnv("CATALOG_BACKEND", CatalogPostgres)),
			BaseURL:       getEnv("DATA_STORE_URL", ""),
			APIKey:        getEnv("DATA_STORE_KEY", ""),
			RatePerSecond: getEnvAsFloat("DATA_STORE_RATE_LIMIT", 0),
		},
		PubSub: PubSubConfig{
			ProjectID:    getEnv("PUBSUB_PROJECT_ID", ""),
			Topic:        getEnv("PUBSUB_TOPIC", "itinerary-saved"),
			Subscription: getEnv("PUBSUB_SUBSCRIPTION", "itinerary-saved-worker"),
		},
		JWT: JWTConfig{
			SigningKey: getEnv("JWT_SIGNING_KEY", ""),
			Issuer:     getEnv("JWT_ISSUER", ""),
			Audience:   getEnv("JWT_AUDIENCE", "wayfarer-admin"),
		},
		Telemetry: TelemetryConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRatio: getEnvAsFloat("OTEL_TRACES_SAMPLE_RATIO", 1),
		},
		Worker: WorkerConfig{
			Concurrency:     getEnvAsInt("WORKER_CONCURRENCY", 4),
			Timeout:         getEnvAsDuration("WORKER_TIMEOUT", 30*time.Second),
			RefreshInterval: getEnvAsDuration("WORKER_REFRESH_INTERVAL", 0),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.Catalog.Backend {
	case CatalogPostgres:
	case CatalogPostgREST:
		if c.Catalog.BaseURL == "" {
			errs = append(errs, errors.New("DATA_STORE_URL is required when CATALOG_BACKEND is postgrest"))
		}
	default:
		errs = append(errs, fmt.Errorf("CATALOG_BACKEND must be %s or %s, got %q", CatalogPostgres, CatalogPostgREST, c.Catalog.Backend))
	}
	if c.IsProduction() && c.JWT.SigningKey == "" {
		errs = append(errs, errors.New("JWT_SIGNING_KEY is required in production"))
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("OTEL_TRACES_SAMPLE_RATIO must be within [0, 1], got %g", c.Telemetry.SampleRatio))
	}
	if c.Worker.Concurrency <= 0 {
		errs = append(errs, errors.New("WORKER_CONCURRENCY must be positive"))
	}
	return errors.Join(errs...)
}

// Level parses LogLevel, falling back to info.
func (s ServerConfig) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(s.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90s") and bare seconds ("90").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
