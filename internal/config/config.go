// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/pable/go-match-sim/internal/simerr"
)

// Config holds every runtime setting. Command-line flags override these values.
type Config struct {
	DBPath               string        `env:"MATCHSIM_DB_PATH"`
	PollInterval         time.Duration `env:"MATCHSIM_POLL_INTERVAL" envDefault:"1m"`
	MaxConcurrentMatches int           `env:"MATCHSIM_MAX_CONCURRENT_MATCHES" envDefault:"4"`
	DueBatchLimit        int           `env:"MATCHSIM_DUE_BATCH_LIMIT" envDefault:"10"`
	LogLevel             string        `env:"MATCHSIM_LOG_LEVEL" envDefault:"info"`
	Seed                 uint64        `env:"MATCHSIM_SEED" envDefault:"0"`
}

// Load reads dotenvPath if it exists, then parses the environment.
func Load(dotenvPath string) (Config, error) {
	var cfg Config
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("load %s: %w", dotenvPath, errors.Join(err, simerr.ErrFatal))
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", errors.Join(err, simerr.ErrFatal))
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath()
	}
	return cfg, nil
}

// DefaultDBPath is ~/.matchsim/matchsim.db, or ./matchsim.db without a home directory.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "matchsim.db"
	}
	return filepath.Join(home, ".matchsim", "matchsim.db")
}

// Validate rejects settings the scheduler cannot run with.
func (c Config) Validate() error {
	var problems []string
	if c.DBPath == "" {
		problems = append(problems, "database path is empty")
	}
	if c.PollInterval <= 0 {
		problems = append(problems, "poll interval must be positive")
	}
	if c.MaxConcurrentMatches <= 0 {
		problems = append(problems, "max concurrent matches must be positive")
	}
	if c.DueBatchLimit <= 0 {
		problems = append(problems, "due batch limit must be positive")
	}
	if _, err := c.Level(); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s: %w", strings.Join(problems, "; "), simerr.ErrFatal)
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return lvl, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// NewLogger returns a text logger writing to w at level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
