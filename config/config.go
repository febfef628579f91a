package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort           = 8080
	defaultRequestTimeout = 15 * time.Second
	defaultCoordPrecision = 2
)

// Config holds environment-driven settings for the planner API.
type Config struct {
	Port                int
	PowerAPIURL         string
	RequestTimeout      time.Duration
	DatabaseURL         string // optional; enables the irradiance cache
	CacheCoordPrecision int    // decimals used to round coordinates into a cache key
	BearerToken         string // optional; enables bearer auth on the API group
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		Port:                defaultPort,
		RequestTimeout:      defaultRequestTimeout,
		CacheCoordPrecision: defaultCoordPrecision,
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
		cfg.Port = port
	}

	cfg.PowerAPIURL = strings.TrimSpace(os.Getenv("POWER_API_URL"))

	if v := strings.TrimSpace(os.Getenv("POWER_REQUEST_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid POWER_REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	if v := strings.TrimSpace(os.Getenv("CACHE_COORD_PRECISION")); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 0 {
			return cfg, fmt.Errorf("invalid CACHE_COORD_PRECISION: %s", v)
		}
		cfg.CacheCoordPrecision = p
	}

	cfg.BearerToken = os.Getenv("API_BEARER_TOKEN")

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
