// Package config loads the exporter's process configuration from the
// environment. It is read once at startup and passed explicitly to the
// components that need it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"employerexport/internal/domain"
)

// ErrInvalid marks configuration errors.
var ErrInvalid = errors.New("invalid configuration")

// Environment variable names.
const (
	EnvConnectionString     = "CONNECTION_STRING"
	EnvConnectionStringFile = "CONNECTION_STRING_FILE"
	EnvSecretSource         = "EXPORT_SECRET_SOURCE"
	EnvDriver               = "EXPORT_DRIVER"
	EnvOutputDir            = "EXPORT_OUTPUT_DIR"
	EnvSchema               = "EXPORT_SCHEMA"
	EnvOrderByID            = "EXPORT_ORDER_BY_ID"
	EnvTimeout              = "EXPORT_TIMEOUT"
	EnvRegionChunks         = "EXPORT_REGION_CHUNKS"
	EnvHistoryDB            = "EXPORT_HISTORY_DB"
	EnvMetricsFile          = "EXPORT_METRICS_FILE"
	EnvSchedule             = "EXPORT_SCHEDULE"
	EnvTriggerFile          = "EXPORT_TRIGGER_FILE"
	EnvEnvFile              = "EXPORT_ENV_FILE"
	EnvLogLevel             = "LOG_LEVEL"
	EnvLogJSON              = "LOG_JSON"
)

// Secret sources for the connection string.
const (
	SecretSourceEnv      = "env"
	SecretSourceFile     = "file"
	SecretSourceKeychain = "keychain"
)

// DefaultOutputDir is relative to the working directory, matching where the
// static site build picks the files up.
const DefaultOutputDir = "public"

// Config is the full process configuration.
type Config struct {
	SecretSource         string
	ConnectionStringFile string

	Driver       domain.DatabaseDriver // empty: inferred from the connection string
	OutputDir    string
	Schema       domain.SchemaVariant
	OrderByID    bool
	Timeout      time.Duration // 0: no timeout beyond the driver's
	RegionChunks int           // 0: no chunk files

	HistoryDB   string
	MetricsFile string

	Schedule    string // cron expression; empty runs once
	TriggerFile string

	LogLevel string
	LogJSON  bool
}

// Scheduled reports whether the process should stay up after the first run.
func (c *Config) Scheduled() bool {
	return c.Schedule != "" || c.TriggerFile != ""
}

// LoadDotEnv loads variables from a .env file without overriding variables
// that are already set. An explicit path must exist; the default ".env" is
// optional.
func LoadDotEnv(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("%w: load env file %s: %v", ErrInvalid, path, err)
		}
		return nil
	}
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("%w: load .env: %v", ErrInvalid, err)
	}
	return nil
}

// Load builds a Config from getenv. Pass os.Getenv in production and a map
// lookup in tests.
func Load(getenv func(string) string) (*Config, error) {
	get := func(k string) string { return strings.TrimSpace(getenv(k)) }

	cfg := &Config{
		SecretSource:         strings.ToLower(get(EnvSecretSource)),
		ConnectionStringFile: get(EnvConnectionStringFile),
		Driver:               domain.DatabaseDriver(strings.ToLower(get(EnvDriver))),
		OutputDir:            get(EnvOutputDir),
		HistoryDB:            get(EnvHistoryDB),
		MetricsFile:          get(EnvMetricsFile),
		Schedule:             get(EnvSchedule),
		TriggerFile:          get(EnvTriggerFile),
		LogLevel:             get(EnvLogLevel),
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}

	switch cfg.SecretSource {
	case "":
		cfg.SecretSource = SecretSourceEnv
		if cfg.ConnectionStringFile != "" {
			cfg.SecretSource = SecretSourceFile
		}
	case SecretSourceEnv, SecretSourceKeychain:
	case SecretSourceFile:
		if cfg.ConnectionStringFile == "" {
			return nil, fmt.Errorf("%w: %s=file requires %s", ErrInvalid, EnvSecretSource, EnvConnectionStringFile)
		}
	default:
		return nil, fmt.Errorf("%w: %s: unknown source %q", ErrInvalid, EnvSecretSource, cfg.SecretSource)
	}

	if cfg.Driver != "" && !cfg.Driver.Valid() {
		return nil, fmt.Errorf("%w: %s: unsupported driver %q", ErrInvalid, EnvDriver, cfg.Driver)
	}

	schema, err := domain.ParseSchemaVariant(strings.ToLower(get(EnvSchema)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, EnvSchema, err)
	}
	cfg.Schema = schema

	if cfg.OrderByID, err = parseBool(get(EnvOrderByID)); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, EnvOrderByID, err)
	}
	if cfg.LogJSON, err = parseBool(get(EnvLogJSON)); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, EnvLogJSON, err)
	}

	if v := get(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("%w: %s: bad duration %q", ErrInvalid, EnvTimeout, v)
		}
		cfg.Timeout = d
	}

	if v := get(EnvRegionChunks); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %s: want a non-negative integer, got %q", ErrInvalid, EnvRegionChunks, v)
		}
		cfg.RegionChunks = n
	}

	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, EnvSchedule, err)
		}
	}

	return cfg, nil
}

func parseBool(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	switch strings.ToLower(v) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return strconv.ParseBool(v)
}
