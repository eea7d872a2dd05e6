package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Addr  string `env:"IMPERIALISM_ADDR" envDefault:":8080"`
	Store string `env:"IMPERIALISM_STORE" envDefault:"memory"`
	// CORSOrigins lists the browser origins allowed to call the API.
	CORSOrigins []string `env:"IMPERIALISM_CORS_ORIGINS" envDefault:"*" envSeparator:","`

	DBDSN string `env:"IMPERIALISM_DB_DSN"`
	// MigrationsDir overrides the migrations embedded in the binary.
	MigrationsDir string `env:"IMPERIALISM_MIGRATIONS_DIR"`
	SQLitePath    string `env:"IMPERIALISM_SQLITE_PATH" envDefault:"imperialism.db"`

	EntitiesPath  string `env:"IMPERIALISM_ENTITIES_PATH" envDefault:"data/county-centroids.csv"`
	AdjacencyPath string `env:"IMPERIALISM_ADJACENCY_PATH" envDefault:"data/county-adjacency.csv"`

	// Seed fixes the battle proposal sequence. Zero seeds from the clock.
	Seed int64 `env:"IMPERIALISM_SEED"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if c.DBDSN == "" {
			return fmt.Errorf("%w: IMPERIALISM_DB_DSN is required for the postgres store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	}
	if c.EntitiesPath == "" || c.AdjacencyPath == "" {
		return fmt.Errorf("%w: dataset paths are required", ErrInvalidConfig)
	}
	return nil
}
