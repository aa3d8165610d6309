// Package storage resolves photo and logo object keys to URLs a browser can load.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Providers.
const (
	ProviderPublic = "public"
	ProviderGCS    = "gcs"
)

// URLResolver turns a stored object path into a fetchable URL.
type URLResolver interface {
	PublicURL(ctx context.Context, path string) (string, error)
}

// Config selects and configures a resolver.
type Config struct {
	Provider        string        `json:"provider"`
	PublicBaseURL   string        `json:"public_base_url"`
	Bucket          string        `json:"bucket"`
	CredentialsFile string        `json:"credentials_file"`
	SignedURLExpiry time.Duration `json:"signed_url_expiry"`
}

// ConfigFromEnv reads STORAGE_PROVIDER, STORAGE_PUBLIC_BASE_URL, GCS_BUCKET and
// GCS_CREDENTIALS_FILE.
func ConfigFromEnv() Config {
	cfg := Config{
		Provider:        strings.ToLower(strings.TrimSpace(os.Getenv("STORAGE_PROVIDER"))),
		PublicBaseURL:   strings.TrimSpace(os.Getenv("STORAGE_PUBLIC_BASE_URL")),
		Bucket:          strings.TrimSpace(os.Getenv("GCS_BUCKET")),
		CredentialsFile: strings.TrimSpace(os.Getenv("GCS_CREDENTIALS_FILE")),
	}
	cfg.normalize()
	return cfg
}

func (c *Config) normalize() {
	if c.Provider == "" {
		c.Provider = ProviderPublic
	}
	if c.SignedURLExpiry <= 0 {
		c.SignedURLExpiry = time.Hour
	}
}

// Validate checks that the selected provider has what it needs.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderPublic, "":
		return nil
	case ProviderGCS:
		if c.Bucket == "" {
			return errors.New("GCS_BUCKET is required for the gcs storage provider")
		}
		return nil
	default:
		return fmt.Errorf("unknown storage provider %q (want public or gcs)", c.Provider)
	}
}

// NewResolver builds the resolver selected by cfg. The returned close function
// releases provider clients and is never nil.
func NewResolver(ctx context.Context, cfg Config) (URLResolver, func() error, error) {
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if cfg.Provider == ProviderGCS {
		r, err := NewGCSResolver(ctx, cfg.Bucket, cfg.CredentialsFile, cfg.SignedURLExpiry)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	}
	return &BaseURLResolver{Base: cfg.PublicBaseURL}, func() error { return nil }, nil
}

// IsAbsoluteURL reports whether path already is an http(s) or data URL.
func IsAbsoluteURL(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "data:")
}

// BaseURLResolver joins object keys onto a public base URL. A base containing
// "{objectKey}" is used as a template; a base with a query string gets the escaped
// key appended. With no base the key is returned unchanged.
type BaseURLResolver struct {
	Base string
}

// PublicURL implements URLResolver.
func (r *BaseURLResolver) PublicURL(_ context.Context, path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if IsAbsoluteURL(path) {
		return path, nil
	}

	key := strings.TrimLeft(path, "/")
	base := strings.TrimSpace(r.Base)
	switch {
	case base == "":
		return key, nil
	case strings.Contains(base, "{objectKey}"):
		escaped := key
		if strings.Contains(base, "?") {
			escaped = url.QueryEscape(key)
		}
		return strings.ReplaceAll(base, "{objectKey}", escaped), nil
	case strings.Contains(base, "?"):
		return base + url.QueryEscape(key), nil
	default:
		return strings.TrimRight(base, "/") + "/" + key, nil
	}
}
