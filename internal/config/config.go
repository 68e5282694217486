package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v6"
)

const (
	StorageMongo    = "mongo"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Environment string `toml:"-"`

	Host string `toml:"host" env:"BLOGLIST_HOST"`
	Port int    `toml:"port" env:"BLOGLIST_PORT"`
	// logging
	LogLevel      string `toml:"log_level" env:"BLOGLIST_LOG_LEVEL"`
	LogsPath      string `toml:"logs_path" env:"BLOGLIST_LOGS_PATH"`
	LogToStdout   bool   `toml:"log_to_stdout" env:"BLOGLIST_LOG_TO_STDOUT"`
	LogFormatJSON bool   `toml:"log_format_json" env:"BLOGLIST_LOG_FORMAT_JSON"`
	SentryEnabled bool   `toml:"sentry_enabled" env:"BLOGLIST_SENTRY_ENABLED"`
	// storage: mongo | postgres | memory
	Storage string `toml:"storage" env:"BLOGLIST_STORAGE"`
	// mongo
	MongoURI    string `toml:"mongo_uri" env:"BLOGLIST_MONGO_URI"`
	MongoDBName string `toml:"mongo_db_name" env:"BLOGLIST_MONGO_DB_NAME"`
	// postgres
	PostgresHost   string `toml:"postgres_host" env:"BLOGLIST_POSTGRES_HOST"`
	PostgresPort   string `toml:"postgres_port" env:"BLOGLIST_POSTGRES_PORT"`
	PostgresDBName string `toml:"postgres_db_name" env:"BLOGLIST_POSTGRES_DB_NAME"`
	// redis, used for rate limiting; empty host disables it
	RedisHost                   string `toml:"redis_host" env:"BLOGLIST_REDIS_HOST"`
	RedisPort                   string `toml:"redis_port" env:"BLOGLIST_REDIS_PORT"`
	WriteRateLimitAllowedPerMin int    `toml:"write_rate_limit_allowed_per_min" env:"BLOGLIST_WRITE_RATE_LIMIT_PER_MIN"`
	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host" env:"BLOGLIST_METRICS_HOST"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port" env:"BLOGLIST_METRICS_PORT"`
	// cors
	AllowedOrigins []string `toml:"allowed_origins" env:"BLOGLIST_ALLOWED_ORIGINS" envSeparator:","`
}

type Toml struct {
	Development *Config
	Production  *Config
	Dockerdev   *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	case "ddev", "dockerdev":
		cfg = t.Dockerdev
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

// Load reads the section for env from the TOML file at path, then applies
// BLOGLIST_* environment variable overrides.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}
	return fromToml(&t, env)
}

// Parse is Load for an already read TOML document.
func Parse(env, data string) (*Config, error) {
	var t Toml
	if _, err := toml.Decode(data, &t); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return fromToml(&t, env)
}

func fromToml(t *Toml, envName string) (*Config, error) {
	cfg, err := t.Get(envName)
	if err != nil {
		return nil, err
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env overrides: %w", err)
	}
	cfg.Environment = strings.ToLower(envName)
	if cfg.Storage == "" {
		cfg.Storage = StorageMongo
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	switch c.Storage {
	case StorageMongo:
		if c.MongoURI == "" || c.MongoDBName == "" {
			return errors.New("mongo storage requires mongo_uri and mongo_db_name")
		}
	case StoragePostgres:
		if c.PostgresHost == "" || c.PostgresPort == "" || c.PostgresDBName == "" {
			return errors.New("postgres storage requires postgres_host, postgres_port and postgres_db_name")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown storage: %s", c.Storage)
	}

	if c.WriteRateLimitAllowedPerMin < 0 {
		return fmt.Errorf("invalid write rate limit: %d", c.WriteRateLimitAllowedPerMin)
	}

	return nil
}
