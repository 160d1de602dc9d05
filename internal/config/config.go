package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ozvisa/slotwatch/internal/availability"
)

// Config holds application configuration
type Config struct {
	Env      string
	LogLevel string
	OpsAddr  string

	// Scheduling
	CheckInterval     time.Duration
	MaxScrapeAttempts int
	RetryBackoffStep  time.Duration

	// Scraping
	BookingBaseURL    string
	ScrapeTimeout     time.Duration
	SearchQueriesJSON string

	// Preferences and artifacts
	PreferencesPath        string
	LatestResultsPath      string
	NotificationResultPath string

	// Email
	EmailProvider     string // ses, sendgrid or stub
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string
	SESFromName       string
	AWSRegion         string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		OpsAddr:  getEnv("OPS_ADDR", ":8090"),

		CheckInterval:     getEnvAsDuration("CHECK_INTERVAL", 5*time.Minute),
		MaxScrapeAttempts: getEnvAsInt("MAX_SCRAPE_ATTEMPTS", 3),
		RetryBackoffStep:  getEnvAsDuration("RETRY_BACKOFF_STEP", 2*time.Second),

		BookingBaseURL:    getEnv("BOOKING_BASE_URL", ""),
		ScrapeTimeout:     getEnvAsDuration("SCRAPE_TIMEOUT", 30*time.Second),
		SearchQueriesJSON: getEnv("SEARCH_QUERIES_JSON", "[]"),

		PreferencesPath:        getEnv("PREFERENCES_PATH", "data/preferences.json"),
		LatestResultsPath:      getEnv("LATEST_RESULTS_PATH", "data/latest-results.json"),
		NotificationResultPath: getEnv("NOTIFICATION_RESULT_PATH", "data/notification-result.json"),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "stub"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Slot Watch"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
		SESFromName:       getEnv("SES_FROM_NAME", "Slot Watch"),
		AWSRegion:         getEnv("AWS_REGION", "us-east-1"),
	}
}

// SearchQueries parses the SEARCH_QUERIES_JSON env var.
func (c *Config) SearchQueries() ([]availability.SearchQuery, error) {
	var queries []availability.SearchQuery
	if err := json.Unmarshal([]byte(c.SearchQueriesJSON), &queries); err != nil {
		return nil, fmt.Errorf("config: parse SEARCH_QUERIES_JSON: %w", err)
	}
	return queries, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
