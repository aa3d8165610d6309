// Package config loads server and CLI configuration from the environment and an
// optional JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonathan/cleanops/internal/logging"
	"github.com/jonathan/cleanops/internal/pdf"
	"github.com/jonathan/cleanops/internal/scheduling"
	"github.com/jonathan/cleanops/internal/storage"
)

// DefaultPort is used when neither PORT nor the config file set one.
const DefaultPort = 8080

// Config represents the service configuration. All fields are optional in the file;
// missing values come from the environment or Defaults.
type Config struct {
	DatabaseURL   string `json:"database_url,omitempty"`
	Port          int    `json:"port,omitempty"`
	PortalBaseURL string `json:"portal_base_url,omitempty"`

	Storage  StorageConfig  `json:"storage"`
	PDF      PDFConfig      `json:"pdf"`
	Schedule ScheduleConfig `json:"schedule"`
	Log      LogConfig      `json:"log"`
}

// StorageConfig selects how photo and logo paths become URLs.
type StorageConfig struct {
	Provider         string `json:"provider,omitempty"` // public or gcs
	PublicBaseURL    string `json:"public_base_url,omitempty"`
	Bucket           string `json:"bucket,omitempty"`
	CredentialsFile  string `json:"credentials_file,omitempty"`
	SignedURLMinutes int    `json:"signed_url_minutes,omitempty"`
}

// PDFConfig configures headless Chrome printing.
type PDFConfig struct {
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
	ChromePath     string `json:"chrome_path,omitempty"`
}

// ScheduleConfig bounds recurring instance generation.
type ScheduleConfig struct {
	MaxBatch    int `json:"max_batch,omitempty"`
	HorizonDays int `json:"horizon_days,omitempty"`
}

// LogConfig selects the log encoder and level.
type LogConfig struct {
	Format string `json:"format,omitempty"` // json or console
	Level  string `json:"level,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:     DefaultPort,
		Storage:  StorageConfig{Provider: storage.ProviderPublic, SignedURLMinutes: 60},
		PDF:      PDFConfig{TimeoutSeconds: int(pdf.DefaultTimeout / time.Second)},
		Schedule: ScheduleConfig{MaxBatch: scheduling.DefaultMaxBatch, HorizonDays: scheduling.DefaultHorizonDays},
		Log:      LogConfig{Format: "console", Level: "info"},
	}
}

// FromEnv reads the configuration from environment variables. Unset variables leave
// zero values for MergeWithDefaults to fill.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		PortalBaseURL: strings.TrimSpace(os.Getenv("PORTAL_BASE_URL")),
		Storage: StorageConfig{
			Provider:        strings.ToLower(strings.TrimSpace(os.Getenv("STORAGE_PROVIDER"))),
			PublicBaseURL:   strings.TrimSpace(os.Getenv("STORAGE_PUBLIC_BASE_URL")),
			Bucket:          strings.TrimSpace(os.Getenv("GCS_BUCKET")),
			CredentialsFile: strings.TrimSpace(os.Getenv("GCS_CREDENTIALS_FILE")),
		},
		PDF: PDFConfig{ChromePath: strings.TrimSpace(os.Getenv("CHROME_PATH"))},
		Log: LogConfig{
			Format: strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT"))),
			Level:  strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))),
		},
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"PORT", &cfg.Port},
		{"SIGNED_URL_MINUTES", &cfg.Storage.SignedURLMinutes},
		{"PDF_TIMEOUT_SECONDS", &cfg.PDF.TimeoutSeconds},
		{"SCHEDULE_MAX_BATCH", &cfg.Schedule.MaxBatch},
		{"SCHEDULE_HORIZON_DAYS", &cfg.Schedule.HorizonDays},
	}
	for _, v := range ints {
		n, err := envInt(v.key, 0)
		if err != nil {
			return nil, err
		}
		*v.dst = n
	}
	return cfg, nil
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values. DATABASE_URL is checked
// by the commands that need it.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' out of range: %d", c.Port)
	}
	if c.Schedule.MaxBatch < 0 || c.Schedule.HorizonDays < 0 {
		return fmt.Errorf("config error: schedule bounds must be non-negative")
	}
	if c.PDF.TimeoutSeconds < 0 {
		return fmt.Errorf("config error: 'pdf.timeout_seconds' must be non-negative")
	}
	if c.PortalBaseURL != "" && !storage.IsAbsoluteURL(c.PortalBaseURL) {
		return fmt.Errorf("config error: 'portal_base_url' must be an http(s) URL")
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("config error: unknown log format %q (want json or console)", c.Log.Format)
	}
	sc := c.StorageConfig()
	if err := sc.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero fields filled from defaults.
// Env values are merged over the file, and the result over Defaults().
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	mergeString(&result.DatabaseURL, defaults.DatabaseURL)
	mergeString(&result.PortalBaseURL, defaults.PortalBaseURL)
	mergeInt(&result.Port, defaults.Port)

	mergeString(&result.Storage.Provider, defaults.Storage.Provider)
	mergeString(&result.Storage.PublicBaseURL, defaults.Storage.PublicBaseURL)
	mergeString(&result.Storage.Bucket, defaults.Storage.Bucket)
	mergeString(&result.Storage.CredentialsFile, defaults.Storage.CredentialsFile)
	mergeInt(&result.Storage.SignedURLMinutes, defaults.Storage.SignedURLMinutes)

	mergeInt(&result.PDF.TimeoutSeconds, defaults.PDF.TimeoutSeconds)
	mergeString(&result.PDF.ChromePath, defaults.PDF.ChromePath)

	mergeInt(&result.Schedule.MaxBatch, defaults.Schedule.MaxBatch)
	mergeInt(&result.Schedule.HorizonDays, defaults.Schedule.HorizonDays)

	mergeString(&result.Log.Format, defaults.Log.Format)
	mergeString(&result.Log.Level, defaults.Log.Level)

	return result
}

func mergeString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func mergeInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

// StorageConfig converts to the storage package's configuration.
func (c *Config) StorageConfig() storage.Config {
	return storage.Config{
		Provider:        c.Storage.Provider,
		PublicBaseURL:   c.Storage.PublicBaseURL,
		Bucket:          c.Storage.Bucket,
		CredentialsFile: c.Storage.CredentialsFile,
		SignedURLExpiry: time.Duration(c.Storage.SignedURLMinutes) * time.Minute,
	}
}

// PDFConfig converts to the pdf package's configuration.
func (c *Config) PDFConfig() pdf.Config {
	return pdf.Config{
		Timeout:  time.Duration(c.PDF.TimeoutSeconds) * time.Second,
		ExecPath: c.PDF.ChromePath,
	}
}

// SchedulingConfig converts to the scheduling package's configuration.
func (c *Config) SchedulingConfig() scheduling.Config {
	return scheduling.Config{MaxBatch: c.Schedule.MaxBatch, HorizonDays: c.Schedule.HorizonDays}
}

// LoggingConfig converts to the logging package's configuration.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{Format: c.Log.Format, Level: c.Log.Level}
}
