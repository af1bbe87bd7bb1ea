package config

import (
	"fmt"
	"os"
)

// Config holds application configuration
type Config struct {
	Port            string
	DBConn          string
	LogLevel        string
	JWTSecret       string
	MigrationsPath  string
	DefaultCurrency string

	// Remote exchange-rate API
	ExchangeAPIURL string
	ExchangeAPIKey string

	// ECB daily reference-rate feed, used for the cache warm-up job
	ECBFeedURL string

	// SMTP settings for the monthly digest
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		DBConn:          getEnv("DB_CONN", "host=localhost port=5432 user=fintrack password=fintrack dbname=fintrack sslmode=disable"),
		LogLevel:        getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:       getEnv("JWT_SECRET", "secret"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "migrations"),
		DefaultCurrency: getEnv("DEFAULT_CURRENCY", "USD"),
		ExchangeAPIURL:  getEnv("EXCHANGE_API_URL", "https://v6.exchangerate-api.com/v6"),
		ExchangeAPIKey:  getEnv("EXCHANGE_API_KEY", ""),
		ECBFeedURL:      getEnv("ECB_FEED_URL", "https://www.ecb.europa.eu/stats/eurofxref/eurofxref-daily.xml"),
		SMTPHost:        getEnv("SMTP_HOST", ""),
		SMTPPort:        getEnv("SMTP_PORT", "587"),
		SMTPUsername:    getEnv("SMTP_USERNAME", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		SenderEmail:     getEnv("SENDER_EMAIL", "noreply@fintrack.local"),
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.ExchangeAPIURL == "" {
		return nil, fmt.Errorf("EXCHANGE_API_URL is required")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
