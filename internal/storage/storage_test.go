package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseURLResolver(t *testing.T) {
	tests := []struct {
		name string
		base string
		path string
		want string
	}{
		{"plain base", "https://cdn.example.com/photos/", "jobs/1/a.jpg", "https://cdn.example.com/photos/jobs/1/a.jpg"},
		{"leading slash", "https://cdn.example.com", "/jobs/1/a.jpg", "https://cdn.example.com/jobs/1/a.jpg"},
		{"template", "https://cdn.example.com/o/{objectKey}/raw", "jobs/a.jpg", "https://cdn.example.com/o/jobs/a.jpg/raw"},
		{"template with query", "https://img.example.com/get?key={objectKey}", "jobs/a b.jpg", "https://img.example.com/get?key=jobs%2Fa+b.jpg"},
		{"query base", "https://img.example.com/get?key=", "jobs/a.jpg", "https://img.example.com/get?key=jobs%2Fa.jpg"},
		{"absolute passthrough", "https://cdn.example.com", "https://other.example.com/x.png", "https://other.example.com/x.png"},
		{"data uri passthrough", "https://cdn.example.com", "data:image/png;base64,AAAA", "data:image/png;base64,AAAA"},
		{"no base", "", "jobs/a.jpg", "jobs/a.jpg"},
		{"empty path", "https://cdn.example.com", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &BaseURLResolver{Base: tt.base}
			got, err := r.PublicURL(context.Background(), tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, (&Config{Provider: ProviderPublic}).Validate())
	assert.Error(t, (&Config{Provider: ProviderGCS}).Validate())
	assert.NoError(t, (&Config{Provider: ProviderGCS, Bucket: "photos"}).Validate())
	assert.Error(t, (&Config{Provider: "s3"}).Validate())
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("STORAGE_PROVIDER", "")
	t.Setenv("STORAGE_PUBLIC_BASE_URL", "https://cdn.example.com")
	cfg := ConfigFromEnv()
	assert.Equal(t, ProviderPublic, cfg.Provider)
	assert.Equal(t, "https://cdn.example.com", cfg.PublicBaseURL)
	assert.Positive(t, cfg.SignedURLExpiry)
}

func TestNewResolver_Public(t *testing.T) {
	r, closeFn, err := NewResolver(context.Background(), Config{PublicBaseURL: "https://cdn.example.com"})
	require.NoError(t, err)
	defer closeFn()

	got, err := r.PublicURL(context.Background(), "logo.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/logo.png", got)
}
