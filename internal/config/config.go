package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. Strings for identifiers and secrets, ints
// for costs and sizes.
type Config struct {
	Env        string // application environment (e.g. "dev", "prod")
	Port       string // HTTP port to listen on
	DBUser     string // database username
	DBPass     string // database password (optional)
	DBHost     string // database host address
	DBPort     string // database port number
	DBName     string // database name
	JWTSecret  string // secret used to sign session tokens
	BcryptCost int    // bcrypt cost for password hashing

	// Default admin seeded on first start so the service is usable
	// before any other admin exists.
	AdminName     string
	AdminEmail    string
	AdminPassword string

	// Fulfillment factory the service relays orders to.
	FactoryURL    string
	FactoryAPIKey string

	Observability ObservabilityConfig
}

// ObservabilityConfig points the metrics and log shippers at their
// sinks. Empty URLs disable shipping; local logging always works.
type ObservabilityConfig struct {
	MetricsURL    string        // sink accepting metric payloads
	LogURL        string        // sink accepting structured log events
	APIKey        string        // shared key for both sinks
	Source        string        // source label attached to every event
	FlushInterval time.Duration // how often counters are flushed
}

// Load reads configuration from environment variables. Required
// variables are enforced by must(); missing values exit with a fatal
// log message before the server can start half-configured.
func Load() Config {
	return Config{
		Env:        must("APP_ENV"),
		Port:       must("APP_PORT"),
		DBUser:     must("DB_USER"),
		DBPass:     os.Getenv("DB_PASS"),
		DBHost:     must("DB_HOST"),
		DBPort:     must("DB_PORT"),
		DBName:     must("DB_NAME"),
		JWTSecret:  must("JWT_SECRET"),
		BcryptCost: mustInt("BCRYPT_COST"),

		AdminName:     envStr("ADMIN_NAME", "admin"),
		AdminEmail:    envStr("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword: envStr("ADMIN_PASSWORD", "admin"),

		FactoryURL:    must("FACTORY_URL"),
		FactoryAPIKey: os.Getenv("FACTORY_API_KEY"),

		Observability: ObservabilityConfig{
			MetricsURL:    os.Getenv("METRICS_URL"),
			LogURL:        os.Getenv("LOG_URL"),
			APIKey:        os.Getenv("OBSERVABILITY_API_KEY"),
			Source:        envStr("OBSERVABILITY_SOURCE", "pizza-order-service"),
			FlushInterval: envDur("METRICS_FLUSH_INTERVAL", 10*time.Second),
		},
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and
// exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an
// integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
