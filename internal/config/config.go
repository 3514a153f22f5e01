package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Assignment   AssignmentConfig
	Discovery    DiscoveryConfig
	Cache        CacheConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// AssignmentConfig tunes the provider selection engine.
type AssignmentConfig struct {
	SaturationCap  int
	FreeQuota      int
	GoldQuota      int
	DefaultRating  float64
	SearchPageSize int
}

// DiscoveryConfig configures the external provider lookup chain. Key-gated
// sources are skipped when their key is empty.
type DiscoveryConfig struct {
	NominatimBaseURL    string
	FoursquareBaseURL   string
	FoursquareAPIKey    string
	GooglePlacesBaseURL string
	GooglePlacesAPIKey  string
	TimeoutSeconds      int
	Attempts            int
	BackoffMillis       int
}

// CacheConfig tunes the provider candidate cache.
type CacheConfig struct {
	ProviderTTLSeconds int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "marketplace-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Assignment: AssignmentConfig{
			SaturationCap:  getEnvAsInt("ASSIGN_SATURATION_CAP", 10),
			FreeQuota:      getEnvAsInt("SUBSCRIPTION_FREE_QUOTA", 1),
			GoldQuota:      getEnvAsInt("SUBSCRIPTION_GOLD_QUOTA", 35),
			DefaultRating:  getEnvAsFloat("ASSIGN_DEFAULT_RATING", 3.5),
			SearchPageSize: getEnvAsInt("ASSIGN_SEARCH_PAGE_SIZE", 200),
		},
		Discovery: DiscoveryConfig{
			NominatimBaseURL:    getEnv("DISCOVERY_NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
			FoursquareBaseURL:   getEnv("DISCOVERY_FOURSQUARE_BASE_URL", "https://api.foursquare.com"),
			FoursquareAPIKey:    os.Getenv("DISCOVERY_FOURSQUARE_API_KEY"),
			GooglePlacesBaseURL: getEnv("DISCOVERY_GOOGLE_PLACES_BASE_URL", "https://maps.googleapis.com"),
			GooglePlacesAPIKey:  os.Getenv("DISCOVERY_GOOGLE_PLACES_API_KEY"),
			TimeoutSeconds:      getEnvAsInt("DISCOVERY_TIMEOUT_SECONDS", 5),
			Attempts:            getEnvAsInt("DISCOVERY_ATTEMPTS", 2),
			BackoffMillis:       getEnvAsInt("DISCOVERY_BACKOFF_MILLIS", 500),
		},
		Cache: CacheConfig{
			ProviderTTLSeconds: getEnvAsInt("CACHE_PROVIDER_TTL_SECONDS", 300),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the per-call timeout for external discovery sources.
func (d DiscoveryConfig) Timeout() time.Duration {
	if d.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// Backoff returns the linear backoff unit between retry attempts.
func (d DiscoveryConfig) Backoff() time.Duration {
	if d.BackoffMillis <= 0 {
		return 0
	}
	return time.Duration(d.BackoffMillis) * time.Millisecond
}

// ProviderTTL returns the cache lifetime for candidate lists.
func (c CacheConfig) ProviderTTL() time.Duration {
	if c.ProviderTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.ProviderTTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
