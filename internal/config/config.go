package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Suite struct {
		// File is a YAML suite definition. The built-in suite is used when empty.
		File string `env:"SUITE_FILE"`
		// PoolSize is the number of idle instances kept per problem.
		PoolSize int `env:"SUITE_POOL_SIZE" envDefault:"4"`
		// MaxDimension rejects suite entries with more variables.
		MaxDimension int `env:"SUITE_MAX_DIMENSION" envDefault:"640"`
	}
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.Logging.Level == "" {
		if cfg.Environment == "development" {
			cfg.Logging.Level = "debug"
		} else {
			cfg.Logging.Level = "info"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that the environment parser cannot express.
func (c *Config) Validate() error {
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP_PORT out of range: %d", c.HTTP.Port)
	}
	if c.Suite.PoolSize < 0 {
		return fmt.Errorf("SUITE_POOL_SIZE must not be negative, got %d", c.Suite.PoolSize)
	}
	if c.Suite.MaxDimension < 1 {
		return fmt.Errorf("SUITE_MAX_DIMENSION must be positive, got %d", c.Suite.MaxDimension)
	}
	return nil
}
