package publish

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds the object storage connection settings.
type Config struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	Secure    bool   `mapstructure:"secure" yaml:"secure"`
	Prefix    string `mapstructure:"prefix" yaml:"prefix"`
	Region    string `mapstructure:"region" yaml:"region"`
}

// Enabled reports whether an endpoint is configured.
func (c Config) Enabled() bool { return strings.TrimSpace(c.Endpoint) != "" }

// MinIO uploads report artifacts to an S3-compatible bucket.
type MinIO struct {
	Client *minio.Client
	Bucket string
	Prefix string
}

// NewMinIO builds a client from cfg. It does not contact the server.
func NewMinIO(cfg Config) (*MinIO, error) {
	if !cfg.Enabled() {
		return nil, errors.New("storage endpoint not configured")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket not configured")
	}
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
	c, err := minio.New(strings.TrimSuffix(endpoint, "/"), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinIO{Client: c, Bucket: cfg.Bucket, Prefix: cfg.Prefix}, nil
}

// Publish uploads files under <prefix>/<runID>/ and returns their URLs in
// the same order.
func (m *MinIO) Publish(ctx context.Context, runID string, files []string) ([]string, error) {
	if err := m.ensureBucket(ctx); err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(files))
	for _, f := range files {
		object := m.ObjectName(runID, f)
		contentType := "application/octet-stream"
		if mt, err := mimetype.DetectFile(f); err == nil {
			contentType = mt.String()
		}
		if _, err := m.Client.FPutObject(ctx, m.Bucket, object, f, minio.PutObjectOptions{ContentType: contentType}); err != nil {
			return nil, fmt.Errorf("upload %s: %w", filepath.Base(f), err)
		}
		urls = append(urls, m.objectURL(object))
	}
	return urls, nil
}

// ObjectName is the key a local file is stored under.
func (m *MinIO) ObjectName(runID, file string) string {
	return path.Join(strings.Trim(m.Prefix, "/"), runID, filepath.Base(file))
}

func (m *MinIO) objectURL(object string) string {
	u := *m.Client.EndpointURL()
	u.Path = path.Join("/", m.Bucket, object)
	return u.String()
}

func (m *MinIO) ensureBucket(ctx context.Context) error {
	found, err := m.Client.BucketExists(ctx, m.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", m.Bucket, err)
	}
	if found {
		return nil
	}
	if err := m.Client.MakeBucket(ctx, m.Bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %q: %w", m.Bucket, err)
	}
	return nil
}
