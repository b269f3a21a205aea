package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Issuer     string // Required: issuer claim for ID tokens
	RSAPEMPath string // Required: path to the RSA private key PEM
	SessionKey string // Required: secret the session cookie is sealed with

	DatabaseFile         string        // Optional: path to SQLite database file (default: ./op.db)
	Scopes               []string      // Optional: scopes advertised in discovery metadata
	CodeTTL              time.Duration // Optional: authorization code lifetime (default: 60s)
	TokenTTL             time.Duration // Optional: access/ID token lifetime (default: 1h)
	SecureCookies        bool          // Optional: set the session cookie's Secure attribute
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:               os.Getenv("OP_ISSUER"),
		RSAPEMPath:           os.Getenv("OP_RSA_PEM"),
		SessionKey:           os.Getenv("OP_SESSION_KEY"),
		DatabaseFile:         getEnvOrDefault("OP_DATABASE_FILE", "op.db"),
		Scopes:               strings.Fields(getEnvOrDefault("OP_SCOPES", "openid profile email phone address")),
		CodeTTL:              getEnvDurationOrDefault("OP_CODE_TTL", 60*time.Second),
		TokenTTL:             getEnvDurationOrDefault("OP_TOKEN_TTL", time.Hour),
		SecureCookies:        getEnvOrDefault("OP_SECURE_COOKIES", "false") == "true",
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	if cfg.Issuer == "" {
		cfg.Issuer = "http://localhost:8080"
	}

	return cfg
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

// getEnvDurationOrDefault accepts either a Go duration string ("90s")
// or a bare number of seconds ("90").
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}

	return defaultValue
}
