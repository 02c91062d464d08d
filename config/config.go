// Package config loads runtime settings from an optional YAML file and the
// environment. Environment variables always win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration.
type Config struct {
	HTTPAddr string `yaml:"http_addr"`
	DataPath string `yaml:"data_path"`
	LogLevel string `yaml:"log_level"`

	Metadata MetadataConfig `yaml:"metadata"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	Email    EmailConfig    `yaml:"email"`

	SnapshotEnabled bool `yaml:"snapshot_enabled"`
}

// MetadataConfig describes the external metadata API.
type MetadataConfig struct {
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	Country   string        `yaml:"country"`
	MaxPages  int           `yaml:"max_pages"`
	RateLimit float64       `yaml:"rate_limit"` // requests per second, 0 for no limit
	Burst     int           `yaml:"burst"`
	Timeout   time.Duration `yaml:"timeout"`
}

// RefreshConfig controls the background rebuild of the catalog.
type RefreshConfig struct {
	Interval      time.Duration `yaml:"interval"`
	Attempts      int           `yaml:"attempts"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
	DetailWorkers int           `yaml:"detail_workers"`
	AtStartup     bool          `yaml:"at_startup"`
	EnrichArtwork bool          `yaml:"enrich_artwork"`
}

// EmailConfig holds SMTP settings for refresh summaries.
type EmailConfig struct {
	SMTPHost       string `yaml:"smtp_host"`
	SMTPPort       int    `yaml:"smtp_port"`
	SenderEmail    string `yaml:"sender"`
	SMTPUsername   string `yaml:"username"`
	SenderPassword string `yaml:"password"`
	RecipientEmail string `yaml:"recipient"`
}

// Enabled reports whether enough is configured to send mail.
func (e EmailConfig) Enabled() bool {
	return e.SMTPHost != "" && e.RecipientEmail != ""
}

// Username is the SMTP login, the sender address unless set explicitly.
func (e EmailConfig) Username() string {
	if e.SMTPUsername != "" {
		return e.SMTPUsername
	}
	return e.SenderEmail
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		HTTPAddr: ":8080",
		DataPath: "./data",
		LogLevel: "info",
		Metadata: MetadataConfig{
			Country:   "GB",
			MaxPages:  20,
			RateLimit: 5,
			Burst:     5,
			Timeout:   15 * time.Second,
		},
		Refresh: RefreshConfig{
			Interval:      6 * time.Hour,
			Attempts:      3,
			RetryDelay:    30 * time.Second,
			DetailWorkers: 4,
			AtStartup:     true,
		},
		Email: EmailConfig{
			SMTPPort: 587,
		},
		SnapshotEnabled: true,
	}
}

// Load reads .env (if present), the YAML file named by CONFIG_FILE (if set)
// and finally the environment.
func Load() (Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.mergeEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv() error {
	var errs []error

	setString(&c.HTTPAddr, "HTTP_ADDR")
	setString(&c.DataPath, "DATA_PATH")
	setString(&c.LogLevel, "LOG_LEVEL")

	setString(&c.Metadata.BaseURL, "METADATA_BASE_URL")
	setString(&c.Metadata.APIKey, "METADATA_API_KEY")
	setString(&c.Metadata.Country, "METADATA_COUNTRY")
	errs = append(errs,
		setInt(&c.Metadata.MaxPages, "METADATA_MAX_PAGES"),
		setFloat(&c.Metadata.RateLimit, "METADATA_RATE_LIMIT"),
		setInt(&c.Metadata.Burst, "METADATA_BURST"),
		setDuration(&c.Metadata.Timeout, "METADATA_TIMEOUT"),

		setDuration(&c.Refresh.Interval, "REFRESH_INTERVAL"),
		setInt(&c.Refresh.Attempts, "REFRESH_ATTEMPTS"),
		setDuration(&c.Refresh.RetryDelay, "REFRESH_RETRY_DELAY"),
		setInt(&c.Refresh.DetailWorkers, "DETAIL_WORKERS"),
		setBool(&c.Refresh.AtStartup, "REFRESH_AT_STARTUP"),
		setBool(&c.Refresh.EnrichArtwork, "ENRICH_ARTWORK"),

		setInt(&c.Email.SMTPPort, "EMAIL_SMTP_PORT"),
		setBool(&c.SnapshotEnabled, "SNAPSHOT_ENABLED"),
	)

	setString(&c.Email.SMTPHost, "EMAIL_SMTP_HOST")
	setString(&c.Email.SenderEmail, "EMAIL_SENDER")
	setString(&c.Email.SMTPUsername, "EMAIL_USERNAME")
	setString(&c.Email.SenderPassword, "EMAIL_PASSWORD")
	setString(&c.Email.RecipientEmail, "EMAIL_RECIPIENT")

	return errors.Join(errs...)
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Metadata.BaseURL) == "" {
		errs = append(errs, errors.New("metadata base url is required (METADATA_BASE_URL)"))
	}
	if c.Metadata.MaxPages <= 0 {
		errs = append(errs, fmt.Errorf("metadata max pages must be positive, got %d", c.Metadata.MaxPages))
	}
	if c.Metadata.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("metadata rate limit must not be negative, got %v", c.Metadata.RateLimit))
	}
	if c.Refresh.Interval <= 0 {
		errs = append(errs, fmt.Errorf("refresh interval must be positive, got %s", c.Refresh.Interval))
	}
	if c.Refresh.Attempts <= 0 {
		errs = append(errs, fmt.Errorf("refresh attempts must be positive, got %d", c.Refresh.Attempts))
	}
	if c.Refresh.RetryDelay < 0 {
		errs = append(errs, fmt.Errorf("refresh retry delay must not be negative, got %s", c.Refresh.RetryDelay))
	}
	if c.Refresh.DetailWorkers <= 0 {
		errs = append(errs, fmt.Errorf("detail workers must be positive, got %d", c.Refresh.DetailWorkers))
	}
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = strings.TrimSpace(v)
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, v)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fmt.Errorf("%s: invalid number %q", key, v)
	}
	*dst = f
	return nil
}

func setBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q", key, v)
	}
	*dst = d
	return nil
}
