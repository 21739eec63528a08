package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

const defaultAddr = "127.0.0.1:8080"

// Storage drivers.
const (
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Config holds the complete application configuration, loadable from
// environment variables (STALL_ prefix), flags, or YAML config files.
type Config struct {
	Addr       string `default:"127.0.0.1:8080" usage:"API server listen address"`
	NamePrefix string `default:"顾客" usage:"Prefix for generated customer names" flag:"name-prefix"`
	Storage    StorageConfig
	CORS       CORSConfig
	Graceful   GracefulConfig
}

// StorageConfig selects and configures the snapshot slot backend.
type StorageConfig struct {
	Driver  string `default:"file" usage:"Snapshot slot backend: file, redis or postgres"`
	Slot    string `default:"customers" usage:"Snapshot slot name"`
	DataDir string `default:"./data" usage:"Directory for the file backend" flag:"data-dir"`

	RedisURL      string `usage:"Redis URL (STALL_STORAGE_REDIS_URL or REDIS_URL)" flag:"redis-url"`
	RedisAddr     string `usage:"Redis address host:port when no URL is set" flag:"redis-addr"`
	RedisPassword string `usage:"Redis password" flag:"redis-password"`
	RedisDB       int    `default:"0" usage:"Redis database number" flag:"redis-db"`

	DatabaseURL string `usage:"PostgreSQL connection URL (STALL_STORAGE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"1s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"10s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables (including a
// .env file in the working directory, if present), YAML config files and,
// unless skipFlags is set, command-line flags.
func LoadConfig(skipFlags bool) (*Config, error) {
	// Variables already set in the environment win over .env.
	_ = godotenv.Load()

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STALL",
		SkipFlags: skipFlags,
		Files:     []string{"config.yaml", "/etc/stall/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected storage driver has what it needs.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverFile:
		if c.Storage.DataDir == "" {
			return errors.New("data dir is required for the file driver")
		}
	case DriverRedis:
		if c.Storage.RedisURL == "" && c.Storage.RedisAddr == "" {
			return errors.New("redis address is required: set STALL_STORAGE_REDIS_ADDR, STALL_STORAGE_REDIS_URL or REDIS_URL")
		}
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("database URL is required: set STALL_STORAGE_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Slot == "" {
		return errors.New("slot name is required")
	}
	return nil
}

// applyPlatformDefaults maps the conventional PORT, DATABASE_URL and
// REDIS_URL variables onto the STALL_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Storage.DatabaseURL == "" {
		c.Storage.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.Storage.RedisURL == "" {
		c.Storage.RedisURL = os.Getenv("REDIS_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
