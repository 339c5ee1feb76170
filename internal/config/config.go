// Package config handles loading and parsing application configuration.
// Values come from (lowest to highest priority):
//  1. env-default tags on the Config struct
//  2. An optional YAML file: CONFIG_PATH=/path/to/config.yaml or --config=...
//  3. The process environment, seeded from a .env file when one exists
//
// Only DB_URI is mandatory, so the server can be started from the
// environment alone.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-default:"dev"`

	// Sections lists the roster sections in login lookup order.
	Sections []string `yaml:"sections" env:"SECTIONS" env-separator:"," env-default:"A,B,C"`

	// BcryptCost is the work factor used when hashing student passwords.
	BcryptCost int `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`

	Storage `yaml:"storage"`

	HTTPServer `yaml:"http_server"`
}

// Storage selects and configures the persistence backend.
type Storage struct {
	// Driver is "sqlite" or "mongo". When unset it is inferred from URI:
	// mongodb:// and mongodb+srv:// select mongo, anything else sqlite.
	Driver string `yaml:"driver" env:"STORAGE_DRIVER"`

	// URI is the connection string: a file path / DSN for sqlite,
	// a mongodb:// or mongodb+srv:// URI for mongo.
	URI string `yaml:"uri" env:"DB_URI" env-required:"true"`

	// Database is the mongo database name. Ignored by sqlite.
	Database string `yaml:"database" env:"DB_NAME" env-default:"roster"`

	ConnectRetries int           `yaml:"connect_retries" env:"DB_CONNECT_RETRIES" env-default:"5"`
	ConnectBackoff time.Duration `yaml:"connect_backoff" env:"DB_CONNECT_BACKOFF" env-default:"500ms"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	Addr            string        `yaml:"address" env:"HTTP_SERVER_ADDR" env-default:":5002"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Load reads the config from configPath (if non-empty) and the environment,
// then validates the result.
func Load(configPath string) (*Config, error) {
	// A missing .env is the normal case outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config.Load: dotenv: %w", err)
	}

	var cfg Config
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", configPath)
		}
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: read %s: %w", configPath, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: read env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Storage.Driver == "" {
		c.Storage.Driver = driverForURI(c.Storage.URI)
	}
	switch c.Storage.Driver {
	case DriverSQLite, DriverMongo:
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if len(c.Sections) == 0 {
		return errors.New("config: at least one section is required")
	}
	return nil
}

func driverForURI(uri string) string {
	if strings.HasPrefix(uri, "mongodb://") || strings.HasPrefix(uri, "mongodb+srv://") {
		return DriverMongo
	}
	return DriverSQLite
}

// MustLoad resolves the config path from CONFIG_PATH or --config and
// loads the config, exiting the process on any failure.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err.Error())
	}
	return cfg
}
