package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	ModeProduction = "PROD"
	ModeDevelop    = "DEV"
)

// Config holds the application configuration
type Config struct {
	TelegramToken string `env:"BOT_TOKEN"`
	DBPath        string `env:"DB_PATH" envDefault:"./orderbook.db"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	Mode          string `env:"APP_MODE" envDefault:"DEV"`
}

// NewConfig creates a new configuration from environment variables
func NewConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment only")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse environment config")
	}

	if cfg.TelegramToken == "" {
		return nil, errors.New("BOT_TOKEN is not set")
	}

	return &cfg, nil
}
