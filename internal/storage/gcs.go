package storage

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSResolver signs short-lived V4 GET URLs for objects in a private bucket.
type GCSResolver struct {
	client *gcs.Client
	bucket *gcs.BucketHandle
	expiry time.Duration
	now    func() time.Time
}

// NewGCSResolver creates a client from a service account file, or from application
// default credentials when credentialsFile is empty.
func NewGCSResolver(ctx context.Context, bucket, credentialsFile string, expiry time.Duration) (*GCSResolver, error) {
	var opts []option.ClientOption
	if strings.TrimSpace(credentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &GCSResolver{
		client: client,
		bucket: client.Bucket(bucket),
		expiry: expiry,
		now:    time.Now,
	}, nil
}

// PublicURL implements URLResolver.
func (r *GCSResolver) PublicURL(_ context.Context, path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if IsAbsoluteURL(path) {
		return path, nil
	}

	signed, err := r.bucket.SignedURL(strings.TrimLeft(path, "/"), &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: r.now().Add(r.expiry),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign url for %s: %w", path, err)
	}
	return signed, nil
}

// Close releases the underlying client.
func (r *GCSResolver) Close() error {
	return r.client.Close()
}
