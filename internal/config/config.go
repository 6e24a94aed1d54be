// Package config loads server settings from defaults, an optional YAML file,
// a .env file and the process environment, in increasing priority.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every runtime setting.
type Config struct {
	ListenAddr string          `yaml:"listen_addr"`
	DB         DBConfig        `yaml:"db"`
	Auth       AuthConfig      `yaml:"auth"`
	Log        LogConfig       `yaml:"log"`
	SMTP       SMTPConfig      `yaml:"smtp"`
	Currency   string          `yaml:"currency"`
	Reconcile  ReconcileConfig `yaml:"reconcile"`
}

type DBConfig struct {
	// Driver is "sqlite" or "mysql".
	Driver string `yaml:"driver"`
	// DSN is a file path for sqlite and a go-sql-driver DSN for mysql.
	DSN string `yaml:"dsn"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" | "json"
}

// SMTPConfig enables e-mail notifications when Host is set.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type ReconcileConfig struct {
	// Schedule is a cron expression; empty disables the job.
	Schedule string `yaml:"schedule"`
	Repair   bool   `yaml:"repair"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		ListenAddr: ":8080",
		DB: DBConfig{
			Driver: "sqlite",
			DSN:    "./data/ledger.db",
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		SMTP: SMTPConfig{
			Port: 587,
		},
		Currency: "INR",
		Reconcile: ReconcileConfig{
			Schedule: "@hourly",
		},
	}
}

// Load builds the configuration. path names an optional YAML file; an empty
// path skips it. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true) // Reject unknown fields
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("LISTEN_ADDR", &c.ListenAddr)
	str("DB_DRIVER", &c.DB.Driver)
	str("DB_DSN", &c.DB.DSN)
	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("SMTP_HOST", &c.SMTP.Host)
	str("SMTP_USER", &c.SMTP.Username)
	str("SMTP_PASS", &c.SMTP.Password)
	str("SMTP_FROM", &c.SMTP.From)
	str("CURRENCY", &c.Currency)
	str("RECONCILE_SCHEDULE", &c.Reconcile.Schedule)

	if v, ok := lookup("TOKEN_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TOKEN_TTL %q: %w", v, err)
		}
		c.Auth.TokenTTL = d
	}
	if v, ok := lookup("SMTP_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SMTP_PORT %q: %w", v, err)
		}
		c.SMTP.Port = port
	}
	if v, ok := lookup("RECONCILE_REPAIR"); ok && v != "" {
		repair, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid RECONCILE_REPAIR %q: %w", v, err)
		}
		c.Reconcile.Repair = repair
	}
	return nil
}

// ValidateStorage checks the settings needed to open the database.
func (c *Config) ValidateStorage() error {
	var errs []error
	switch c.DB.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Errorf("unsupported db driver %q", c.DB.Driver))
	}
	if c.DB.DSN == "" {
		errs = append(errs, errors.New("db dsn is required"))
	}
	return errors.Join(errs...)
}

// Validate checks the settings needed to serve requests.
func (c *Config) Validate() error {
	var errs []error
	if err := c.ValidateStorage(); err != nil {
		errs = append(errs, err)
	}
	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("token ttl must be positive"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unsupported log format %q", c.Log.Format))
	}
	if c.SMTP.Host != "" && c.SMTP.From == "" {
		errs = append(errs, errors.New("SMTP_FROM is required when SMTP_HOST is set"))
	}
	return errors.Join(errs...)
}
