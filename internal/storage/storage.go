package storage

import (
	"context"
	"io"
	"log/slog"

	cfg "github.com/templui/spacenews/internal/config"
)

// Storage is where exported pages are published.
type Storage interface {
	// Save stores the content of body at the given slash separated path
	Save(ctx context.Context, path string, body io.Reader, contentType string) error

	// URL returns where a saved path can be reached
	URL(path string) string
}

// New returns the S3-compatible bucket storage when a bucket is configured,
// otherwise a local directory rooted at dir (EXPORT_DIR when dir is empty).
func New(c *cfg.Config, dir string) (Storage, error) {
	if c.UseS3() {
		slog.Info("initializing S3 storage",
			"bucket", c.S3Bucket,
			"region", c.S3Region,
			"endpoint", c.S3Endpoint,
		)
		return NewS3Storage(S3Config{
			Region:    c.S3Region,
			Bucket:    c.S3Bucket,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Endpoint:  c.S3Endpoint,
		})
	}

	if dir == "" {
		dir = c.ExportDir
	}
	slog.Info("initializing local storage", "dir", dir)
	return NewLocalStorage(dir)
}
