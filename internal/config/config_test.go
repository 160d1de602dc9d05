package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5*time.Minute, cfg.CheckInterval)
	assert.Equal(t, 3, cfg.MaxScrapeAttempts)
	assert.Equal(t, 2*time.Second, cfg.RetryBackoffStep)
	assert.Equal(t, "stub", cfg.EmailProvider)
	assert.Equal(t, "data/preferences.json", cfg.PreferencesPath)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CHECK_INTERVAL", "10m")
	t.Setenv("MAX_SCRAPE_ATTEMPTS", "5")
	t.Setenv("EMAIL_PROVIDER", " SES ")
	t.Setenv("BOOKING_BASE_URL", "https://bookings.example.com/search")

	cfg := Load()

	assert.Equal(t, 10*time.Minute, cfg.CheckInterval)
	assert.Equal(t, 5, cfg.MaxScrapeAttempts)
	assert.Equal(t, "ses", cfg.EmailProvider)
	assert.Equal(t, "https://bookings.example.com/search", cfg.BookingBaseURL)
}

func TestInvalidEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("CHECK_INTERVAL", "soon")
	t.Setenv("MAX_SCRAPE_ATTEMPTS", "lots")

	cfg := Load()

	assert.Equal(t, 5*time.Minute, cfg.CheckInterval)
	assert.Equal(t, 3, cfg.MaxScrapeAttempts)
}

func TestSearchQueries(t *testing.T) {
	t.Setenv("SEARCH_QUERIES_JSON", `[{"postcode":"5000","state":"SA"},{"postcode":"6000","state":"WA","name":"Perth"}]`)

	queries, err := Load().SearchQueries()
	require.NoError(t, err)
	require.Len(t, queries, 2)
	assert.Equal(t, "SA", queries[0].State)
	assert.Equal(t, "Perth", queries[1].Name)
}

func TestSearchQueriesInvalidJSON(t *testing.T) {
	t.Setenv("SEARCH_QUERIES_JSON", "not json")

	_, err := Load().SearchQueries()
	assert.Error(t, err)
}
