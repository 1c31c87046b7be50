// Package config reads server settings from the environment, with a .env
// file honored in development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr             string        // listen address
	DatabaseURL      string        // postgres DSN; empty means in-memory storage
	RelayIdleTimeout time.Duration // idle session groups reaped after this
	ShutdownTimeout  time.Duration
	Debug            bool
}

func Load() (*Config, error) {
	// missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		Addr:             getenv("ADDR", ":8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RelayIdleTimeout: 30 * time.Minute,
		ShutdownTimeout:  5 * time.Second,
	}

	if v := os.Getenv("RELAY_IDLE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("RELAY_IDLE_TIMEOUT: %w", err)
		}
		cfg.RelayIdleTimeout = d
	}
	if v := os.Getenv("DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("DEBUG: %w", err)
		}
		cfg.Debug = b
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
