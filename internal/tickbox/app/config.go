package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Token registry backends.
const (
	RegistryDatabase = "database"
	RegistryRedis    = "redis"
)

type Config struct {
	Issuer   string // Optional: issuer claim for tokens (default: http://localhost:8080)
	Audience string // Optional: audience of access tokens (default: tickbox-api)

	Algorithm string // Optional: JWT signing algorithm (RS256, ES256, EdDSA) (default: EdDSA)
	RSABits   int    // Optional: RSA key size for RS256 (default: 2048)
	NumKeys   int    // Optional: number of signing keys to generate (default: 1, min: 1, max: 10)

	DatabaseDriver string // Optional: sqlite or postgres (default: sqlite)
	DatabaseFile   string // Optional: path to SQLite database file (default: ./tickbox.db)
	DatabaseURL    string // Required for postgres: connection string
	PepperFile     string // Optional: path to file containing pepper for password hashing (default: no pepper)

	TokenRegistry string // Optional: database or redis (default: database)
	RedisAddr     string // Optional: redis address (default: localhost:6379)
	RedisPassword string // Optional
	RedisDB       int    // Optional (default: 0)

	AccessTokenTTL   time.Duration // Optional (default: 15m)
	RefreshTokenTTL  time.Duration // Optional (default: 168h)
	IdentityTokenTTL time.Duration // Optional (default: 1h)
	DefaultRoles     []string      // Optional: roles granted on registration (default: user)

	Env                  string        // Environment (development, production) (default: development)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: text)
	Port                 int           // HTTP server port (default: 8080)
	RequestTimeout       time.Duration // Per request deadline (default: 15s)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		Issuer:   getEnvOrDefault("TICKBOX_ISSUER", "http://localhost:8080"),
		Audience: getEnvOrDefault("TICKBOX_AUDIENCE", "tickbox-api"),

		Algorithm: getEnvOrDefault("TICKBOX_SIGNING_ALG", "EdDSA"),
		RSABits:   getEnvIntOrDefault("TICKBOX_RSA_BITS", 0), // 0 lets the key manager pick
		NumKeys:   getEnvIntOrDefault("TICKBOX_NUM_KEYS", 1),

		DatabaseDriver: strings.ToLower(getEnvOrDefault("TICKBOX_DATABASE_DRIVER", DriverSQLite)),
		DatabaseFile:   getEnvOrDefault("TICKBOX_DATABASE_FILE", "tickbox.db"),
		DatabaseURL:    os.Getenv("TICKBOX_DATABASE_URL"),
		PepperFile:     os.Getenv("TICKBOX_PEPPER_FILE"),

		TokenRegistry: strings.ToLower(getEnvOrDefault("TICKBOX_TOKEN_REGISTRY", RegistryDatabase)),
		RedisAddr:     getEnvOrDefault("TICKBOX_REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("TICKBOX_REDIS_PASSWORD"),
		RedisDB:       getEnvIntOrDefault("TICKBOX_REDIS_DB", 0),

		AccessTokenTTL:   getEnvDurationOrDefault("TICKBOX_ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:  getEnvDurationOrDefault("TICKBOX_REFRESH_TOKEN_TTL", 7*24*time.Hour),
		IdentityTokenTTL: getEnvDurationOrDefault("TICKBOX_IDENTITY_TOKEN_TTL", time.Hour),
		DefaultRoles:     getEnvListOrDefault("TICKBOX_DEFAULT_ROLES", []string{"user"}),

		Env:                  getEnvOrDefault("ENV", "development"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "text"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		RequestTimeout:       getEnvDurationOrDefault("TICKBOX_REQUEST_TIMEOUT", 15*time.Second),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

// getEnvListOrDefault splits a comma separated list, dropping blanks.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
