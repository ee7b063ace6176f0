package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type Config struct {
	Port             int           `env:"PORT" envDefault:"8001"`
	DataDir          string        `env:"DATA_DIR" envDefault:"./data"`
	StoreBackend     string        `env:"STORE_BACKEND" envDefault:"file"`
	DatabaseURL      string        `env:"DATABASE_URL"`
	SQLitePath       string        `env:"SQLITE_PATH"`
	OpeningHand      int           `env:"OPENING_HAND" envDefault:"0"`
	SendTimeout      time.Duration `env:"SEND_TIMEOUT" envDefault:"2s"`
	AutosaveInterval time.Duration `env:"AUTOSAVE_INTERVAL" envDefault:"0s"`
	RateLimit        int           `env:"RATE_LIMIT" envDefault:"20"`
	RateWindow       time.Duration `env:"RATE_WINDOW" envDefault:"1s"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string        `env:"LOG_FORMAT" envDefault:"console"`
	AllowedOrigins   []string      `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads the configuration from the environment (and .env, if present).
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = filepath.Join(cfg.DataDir, "rooms.db")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) DecksDir() string {
	return filepath.Join(c.DataDir, "decks")
}

func (c Config) RoomsDir() string {
	return filepath.Join(c.DataDir, "rooms")
}

func (c Config) Validate() error {
	var errs []error
	switch c.StoreBackend {
	case BackendFile, BackendSQLite:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}
	if c.OpeningHand < 0 {
		errs = append(errs, errors.New("OPENING_HAND must not be negative"))
	}
	if c.SendTimeout <= 0 {
		errs = append(errs, errors.New("SEND_TIMEOUT must be positive"))
	}
	if c.AutosaveInterval < 0 {
		errs = append(errs, errors.New("AUTOSAVE_INTERVAL must not be negative"))
	}
	if c.RateLimit <= 0 || c.RateWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT and RATE_WINDOW must be positive"))
	}
	return errors.Join(errs...)
}
