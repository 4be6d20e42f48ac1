// Package config содержит логику чтения конфигурации сервиса.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса.
type Config struct {
	RunAddress       string `env:"RUN_ADDRESS"`
	DatabaseURI      string `env:"DATABASE_URI"`
	JWTSecret        string `env:"JWT_SECRET"`
	LogRetentionDays int    `env:"LOG_RETENTION_DAYS"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envJWTSecret := cfg.JWTSecret
	envRetention := cfg.LogRetentionDays

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.JWTSecret, "s", "", "secret key for signing auth tokens")
	flag.IntVar(&cfg.LogRetentionDays, "l", 90, "audit log retention in days")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envJWTSecret != "" {
		cfg.JWTSecret = envJWTSecret
	}
	if envRetention != 0 {
		cfg.LogRetentionDays = envRetention
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.LogRetentionDays <= 0 {
		cfg.LogRetentionDays = 90
	}

	return cfg, nil
}
