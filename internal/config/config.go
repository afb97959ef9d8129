package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	defaultDBPath         = "./tripcost.db"
	defaultPort           = "8080"
	defaultIdentityHeader = "Cf-Access-Authenticated-User-Email"
	defaultDevEmail       = "dev@tripcost.local"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env            string
	Port           string
	DBPath         string
	IdentityHeader string
	DevUserEmail   string
}

// IsDev reports whether the app runs in development mode. Dev mode auto-runs
// migrations, seeds sample data, and falls back to DevUserEmail when the
// access proxy header is absent.
func (c Config) IsDev() bool {
	return c.Env != "production"
}

// Load reads environment variables and returns a populated Config. A local
// .env file is loaded best-effort for development; production should use real
// env injection.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg := Config{
		Env:            os.Getenv("APP_ENV"),
		Port:           os.Getenv("PORT"),
		DBPath:         os.Getenv("DB_PATH"),
		IdentityHeader: os.Getenv("IDENTITY_HEADER"),
		DevUserEmail:   os.Getenv("DEV_USER_EMAIL"),
	}

	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.IdentityHeader == "" {
		cfg.IdentityHeader = defaultIdentityHeader
	}
	if cfg.DevUserEmail == "" {
		cfg.DevUserEmail = defaultDevEmail
	}

	if cfg.Env == "" {
		log.Warn().Msg("APP_ENV is not set; assuming development")
	}

	return cfg
}
