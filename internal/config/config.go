package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN           string        // empty selects the in-memory store
	Environment     string
	TelegramToken   string        // empty disables outbound notifications
	ArchiveInterval time.Duration // how often expired requests are archived
}

func Load() (*Config, error) {
	// A missing .env file is fine; plain environment variables work too.
	if err := godotenv.Load(".env"); err == nil {
		log.Println("Loaded configuration from .env file")
	}

	cfg := &Config{
		DBDSN:           os.Getenv("DB_DSN"),
		Environment:     os.Getenv("ENV"),
		TelegramToken:   os.Getenv("TELEGRAM_TOKEN"),
		ArchiveInterval: 24 * time.Hour,
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if raw := os.Getenv("ARCHIVE_INTERVAL"); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parse ARCHIVE_INTERVAL: %w", err)
		}
		if interval <= 0 {
			return nil, fmt.Errorf("ARCHIVE_INTERVAL must be positive")
		}
		cfg.ArchiveInterval = interval
	}

	return cfg, nil
}
