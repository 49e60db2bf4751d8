// Package config handles loading and parsing application configuration.
// Values come from (lowest to highest priority):
//  1. Defaults declared in the struct tags below
//  2. An optional YAML file: --config=/path/to/config.yaml or CONFIG_PATH
//  3. Environment variables, including those loaded from .env / .env.local
//
// The parsed values are returned as a *Config pointer so the struct is
// shared by reference rather than copied everywhere.
package config

import (
	"fmt"
	"os"
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

	HTTPServer `yaml:"http_server"`

	SQLite  SQLite  `yaml:"sqlite"`
	MongoDB MongoDB `yaml:"mongodb"`
}

// HTTPServer holds settings specific to the HTTP server.
// Nested under http_server: in the YAML file.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. ":3000".
	Addr            string        `yaml:"address"          env:"HTTP_SERVER_ADDR"      env-default:":3000"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"HTTP_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"HTTP_WRITE_TIMEOUT"    env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"HTTP_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// SQLite configures the relational backend. It is opened at startup.
type SQLite struct {
	// Path is the filesystem path to the SQLite .db file.
	Path string `yaml:"path" env:"SQLITE_PATH" env-default:"alunos.db"`
}

// MongoDB configures the document backend. It is only dialled the first
// time a client selects "mongodb".
type MongoDB struct {
	URI            string        `yaml:"uri"             env:"MONGO_URI"             env-default:"mongodb://localhost:27017"`
	Database       string        `yaml:"database"        env:"MONGO_DATABASE"        env-default:"alunos_db"`
	Collection     string        `yaml:"collection"      env:"MONGO_COLLECTION"      env-default:"alunos"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"MONGO_CONNECT_TIMEOUT" env-default:"10s"`
}

// Load reads the configuration. configPath may be empty, in which case
// only defaults and the environment are used.
func Load(configPath string) (*Config, error) {
	// Missing .env files are fine; they only add to the environment and
	// never override variables that are already set.
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}

	var cfg Config

	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("cannot read config from env: %w", err)
		}
		return &cfg, nil
	}

	// Verify the file exists before trying to read it, for a clearer
	// message than "open: no such file" later.
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	// cleanenv.ReadConfig reads the YAML file, then applies env:"..."
	// overrides and env-default values.
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	return &cfg, nil
}
