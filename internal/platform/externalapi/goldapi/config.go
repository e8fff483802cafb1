// Package goldapi provides an XAU price source backed by GoldAPI.io.
package goldapi

import (
	"os"
	"time"
)

const defaultBaseURL = "https://www.goldapi.io/api"

// Config holds configuration for the GoldAPI client.
type Config struct {
	APIKey   string        // Sent as x-access-token
	BaseURL  string        // Base URL for the API (e.g., "https://www.goldapi.io/api")
	Metal    string        // Metal symbol (e.g., "XAU")
	Currency string        // Quote currency (e.g., "USD")
	Timeout  time.Duration // HTTP request timeout
}

// LoadConfig loads GoldAPI configuration from environment variables.
func LoadConfig() Config {
	cfg := Config{
		APIKey:   os.Getenv("GOLDAPI_KEY"),
		BaseURL:  os.Getenv("GOLDAPI_BASE_URL"),
		Metal:    "XAU",
		Currency: "USD",
		Timeout:  10 * time.Second,
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return cfg
}
