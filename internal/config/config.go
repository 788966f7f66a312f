// Package config loads the server configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store names the StateStore implementation to run on
type Store string

const (
	StoreRedis  Store = "redis"
	StoreSQLite Store = "sqlite"
)

// Config holds every setting of the server process
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	Store         Store  `env:"STORE" envDefault:"redis"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"horserace.db"`

	// JWTSecret enables signed credentials; without it the login is trusted as sent
	JWTSecret string `env:"JWT_SECRET"`

	TeardownDelay time.Duration `env:"TEARDOWN_DELAY" envDefault:"10s"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"5s"`
	DiceSeed      int64         `env:"DICE_SEED"`

	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogEncoding string `env:"LOG_ENCODING" envDefault:"json"`

	// Discord is optional, the bot runs only with a token
	DiscordToken  string `env:"DISCORD_TOKEN"`
	ApplicationID string `env:"APPLICATION_ID"`
	GuildID       string `env:"GUILD_ID"`
}

// Load reads the optional dotenv files, then the environment
func Load(dotenvFiles ...string) (*Config, error) {
	for _, file := range dotenvFiles {
		// a missing file is fine, the environment alone may be enough
		_ = godotenv.Load(file)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	c.Store = Store(strings.ToLower(strings.TrimSpace(string(c.Store))))
	switch c.Store {
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis store")
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	default:
		return fmt.Errorf("unknown STORE %q, want redis or sqlite", c.Store)
	}
	if c.TeardownDelay <= 0 {
		return fmt.Errorf("TEARDOWN_DELAY must be positive")
	}
	if c.SweepInterval < 0 {
		return fmt.Errorf("SWEEP_INTERVAL cannot be negative")
	}
	return nil
}

// DiscordEnabled reports whether the Discord bot should start
func (c *Config) DiscordEnabled() bool {
	return c.DiscordToken != ""
}
