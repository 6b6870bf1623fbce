package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/Hundslouch/reminder-bot/internal/domain"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken       string        `envconfig:"BOT_TOKEN" required:"true"`
	DBDriver       string        `envconfig:"DB_DRIVER" default:"sqlite"` // sqlite|postgres
	DBPath         string        `envconfig:"DB_PATH" default:"./data/reminders.db"`
	DatabaseURL    string        `envconfig:"DATABASE_URL"`
	DefaultTZ      string        `envconfig:"DEFAULT_TZ" default:"Europe/Moscow"`
	PollInterval   time.Duration `envconfig:"POLL_INTERVAL" default:"60s"`
	SendTimeout    time.Duration `envconfig:"SEND_TIMEOUT" default:"10s"`
	ScanBatch      int           `envconfig:"SCAN_BATCH" default:"100"`
	ScanWorkers    int           `envconfig:"SCAN_WORKERS" default:"4"`
	ReplaceByOwner bool          `envconfig:"REPLACE_BY_OWNER" default:"false"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	HTTPAddr       string        `envconfig:"HTTP_ADDR" default:":8080"`
}

// Load reads configuration in this order of precedence: process environment,
// .env in the working directory, the YAML file named by CONFIG_FILE, struct defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyYAML(path); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyYAML exports the flat KEY: value pairs of a YAML file as environment
// variables that are not already set. ${VAR} references are expanded first.
func applyYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var values map[string]any
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &values); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	for k, v := range values {
		key := strings.ToUpper(strings.TrimSpace(k))
		if _, set := os.LookupEnv(key); set || v == nil {
			continue
		}
		switch v.(type) {
		case map[string]any, []any:
			return fmt.Errorf("config file %s: key %s must be a scalar", path, key)
		}
		if err := os.Setenv(key, fmt.Sprint(v)); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks cross-field constraints and canonicalises DefaultTZ.
func (c *Config) Validate() error {
	tz, err := domain.ValidateTZ(c.DefaultTZ)
	if err != nil {
		return fmt.Errorf("DEFAULT_TZ: %w", err)
	}
	c.DefaultTZ = tz

	switch c.DBDriver {
	case DriverSQLite:
		if strings.TrimSpace(c.DBPath) == "" {
			return errors.New("DB_PATH is required for sqlite")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("DB_DRIVER: unsupported driver %q", c.DBDriver)
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	if c.SendTimeout <= 0 {
		return fmt.Errorf("SEND_TIMEOUT must be positive, got %s", c.SendTimeout)
	}
	if c.ScanBatch <= 0 {
		return fmt.Errorf("SCAN_BATCH must be positive, got %d", c.ScanBatch)
	}
	if c.ScanWorkers <= 0 {
		return fmt.Errorf("SCAN_WORKERS must be positive, got %d", c.ScanWorkers)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL: unsupported level %q", c.LogLevel)
	}
	return nil
}

// DSN returns the data source for the configured driver.
func (c Config) DSN() string {
	if c.DBDriver == DriverPostgres {
		return c.DatabaseURL
	}
	return c.DBPath
}
