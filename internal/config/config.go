package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig
	App    AppConfig
	Escrow EscrowConfig
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port        string
	FrontendURL string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret    string
	SeedDemoData bool
	LogLevel     string
}

// EscrowConfig holds trade engine settings
type EscrowConfig struct {
	// SimLatency is the simulated settlement delay applied to mutating
	// engine operations.
	SimLatency time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	latency, err := time.ParseDuration(getEnv("ESCROW_SIM_LATENCY", "0s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ESCROW_SIM_LATENCY: %w", err)
	}

	seed, err := strconv.ParseBool(getEnv("SEED_DEMO_DATA", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid SEED_DEMO_DATA: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			FrontendURL: getEnv("FRONTEND_URL", ""),
		},
		App: AppConfig{
			JWTSecret:    getEnv("JWT_SECRET", ""),
			SeedDemoData: seed,
			LogLevel:     getEnv("LOG_LEVEL", "info"),
		},
		Escrow: EscrowConfig{
			SimLatency: latency,
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return config, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
