// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an error.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// InsecureJWTSecret is the development fallback signing secret. It is refused
// when APP_ENV is production.
const InsecureJWTSecret = "skillsync-dev-secret-change-me"

// Config holds all runtime configuration for the API service.
type Config struct {
	Port        string
	GRPCPort    string
	Env         string
	DatabaseURL string
	RedisURL    string

	JWTSecret string
	JWTTTL    time.Duration

	DashboardCacheTTL time.Duration
	ExpirySweepSpec   string // cron spec, e.g. "@every 15m"

	Elasticsearch ESConfig
	S3            S3Config
}

// ESConfig configures the optional job search index. Empty URL disables it.
type ESConfig struct {
	URL   string
	Index string
}

// S3Config configures the optional audio object store. Empty Bucket disables it.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // custom endpoint for R2 / MinIO
	AccessKey string
	SecretKey string
}

// Enabled reports whether the search index is configured.
func (c ESConfig) Enabled() bool { return c.URL != "" }

// Enabled reports whether the object store is configured.
func (c S3Config) Enabled() bool { return c.Bucket != "" }

// IsProduction reports whether the service runs with APP_ENV=production.
func (c *Config) IsProduction() bool { return c.Env == "production" }

// Load reads environment variables (and a .env file when present) and
// returns a validated Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	env := getEnv("APP_ENV", "development")

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = InsecureJWTSecret
	}
	if env == "production" && secret == InsecureJWTSecret {
		return nil, fmt.Errorf("JWT_SECRET must be set to a non-default value in production")
	}

	ttlHours, err := getEnvInt("JWT_TTL_HOURS", 24)
	if err != nil {
		return nil, err
	}
	if ttlHours < 1 {
		return nil, fmt.Errorf("JWT_TTL_HOURS must be a positive integer, got %d", ttlHours)
	}

	cacheSecs, err := getEnvInt("DASHBOARD_CACHE_TTL_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	if cacheSecs < 0 {
		return nil, fmt.Errorf("DASHBOARD_CACHE_TTL_SECONDS must not be negative, got %d", cacheSecs)
	}

	return &Config{
		Port:              getEnv("API_PORT", "8080"),
		GRPCPort:          getEnv("GRPC_PORT", "9090"),
		Env:               env,
		DatabaseURL:       dbURL,
		RedisURL:          redisURL,
		JWTSecret:         secret,
		JWTTTL:            time.Duration(ttlHours) * time.Hour,
		DashboardCacheTTL: time.Duration(cacheSecs) * time.Second,
		ExpirySweepSpec:   getEnv("EXPIRY_SWEEP_SPEC", "@every 15m"),
		Elasticsearch: ESConfig{
			URL:   os.Getenv("ELASTICSEARCH_URL"),
			Index: getEnv("ELASTICSEARCH_INDEX", "jobs"),
		},
		S3: S3Config{
			Bucket:    os.Getenv("S3_BUCKET"),
			Region:    getEnv("S3_REGION", "auto"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
		},
	}, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, s)
	}
	return v, nil
}
