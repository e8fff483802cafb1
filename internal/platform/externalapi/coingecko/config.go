// Package coingecko provides a BTC price source backed by the CoinGecko market_chart/range API.
package coingecko

import (
	"os"
	"strconv"
	"time"
)

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// Config holds configuration for the CoinGecko API client.
type Config struct {
	APIKey  string        // Demo API key, sent as x-cg-demo-api-key when set
	BaseURL string        // Base URL for the API (e.g., "https://api.coingecko.com/api/v3")
	CoinID  string        // CoinGecko coin id (e.g., "bitcoin")
	Window  time.Duration // Half-width of the query range around the target instant
	Timeout time.Duration // HTTP request timeout
}

// LoadConfig loads CoinGecko configuration from environment variables.
func LoadConfig() Config {
	cfg := Config{
		APIKey:  os.Getenv("COINGECKO_API_KEY"),
		BaseURL: os.Getenv("COINGECKO_BASE_URL"),
		CoinID:  "bitcoin",
		Window:  10 * time.Minute,
		Timeout: 10 * time.Second,
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if v, err := strconv.Atoi(os.Getenv("BTC_WINDOW_MINUTES")); err == nil && v > 0 {
		cfg.Window = time.Duration(v) * time.Minute
	}
	return cfg
}
