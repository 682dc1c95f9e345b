package tushare

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultAPIURL is the public Tushare Pro HTTP endpoint
	DefaultAPIURL = "https://api.tushare.pro"

	// DefaultTimeout bounds a single API call
	DefaultTimeout = 60 * time.Second
)

// Response ceilings observed on the Tushare Pro API. A response at or
// above the ceiling for its scope may have been truncated server side.
const (
	// MaxRowsEntityScoped is the per-call row ceiling for code-scoped,
	// full-history queries
	MaxRowsEntityScoped = 8000

	// MaxRowsRangeScoped is the per-call row ceiling for date-range
	// and single-date queries
	MaxRowsRangeScoped = 2000
)

// Config holds connection settings for the Tushare Pro API.
type Config struct {
	// Token authenticates every request
	Token string

	// APIURL is the HTTP endpoint
	APIURL string

	// Timeout bounds a single request
	Timeout time.Duration

	Logger *logrus.Logger
}

// NewConfig loads the Tushare connection settings from the environment.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	timeoutSecs, _ := strconv.Atoi(getEnvOrDefault("TUSHARE_TIMEOUT_SECONDS", "60"))
	if timeoutSecs <= 0 {
		timeoutSecs = int(DefaultTimeout / time.Second)
	}

	config := &Config{
		Token:   os.Getenv("TUSHARE_TOKEN"),
		APIURL:  getEnvOrDefault("TUSHARE_API_URL", DefaultAPIURL),
		Timeout: time.Duration(timeoutSecs) * time.Second,
	}

	return config, nil
}

// Validate checks that the config is usable.
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("TUSHARE_TOKEN is required")
	}
	if c.APIURL == "" {
		return fmt.Errorf("API URL is required")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
