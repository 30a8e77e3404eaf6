package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Rates    RatesConfig
	Payment  PaymentConfig
	Catalog  CatalogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// StoreConfig selects the slot-store backend and its key namespace.
type StoreConfig struct {
	// Backend is "redis" or "postgres".
	Backend string
	Prefix  string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// RatesConfig holds exchange-rate feed configuration.
type RatesConfig struct {
	URL      string
	Currency string
	Interval time.Duration
}

// PaymentConfig holds resolution-network configuration.
type PaymentConfig struct {
	RequestTimeout time.Duration
	// DevResolver enables the in-process resolution client and its
	// settle route instead of a real relay client.
	DevResolver bool
}

// CatalogConfig holds the catalog document source.
type CatalogConfig struct {
	// Source is an http(s) URL or a local file path.
	Source string
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 90*time.Second),
		},
		Store: StoreConfig{
			Backend: getEnv("STORE_BACKEND", "redis"),
			Prefix:  getEnv("STORE_PREFIX", "cafepos:"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "cafepos"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "cafepos"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Rates: RatesConfig{
			URL:      getEnv("RATES_URL", "https://api.coinbase.com/v2/exchange-rates?currency=BTC"),
			Currency: getEnv("RATES_CURRENCY", "USD"),
			Interval: getDurationEnv("RATES_INTERVAL", 60*time.Second),
		},
		Payment: PaymentConfig{
			RequestTimeout: getDurationEnv("PAYMENT_REQUEST_TIMEOUT", 60*time.Second),
			DevResolver:    getBoolEnv("PAYMENT_DEV_RESOLVER", true),
		},
		Catalog: CatalogConfig{
			Source: getEnv("CATALOG_SOURCE", "menu.json"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
