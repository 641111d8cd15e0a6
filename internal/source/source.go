// Package source turns the image argument into a file the OCR engine can open.
// Plain paths are passed through untouched; s3://bucket/key objects are
// downloaded from an S3-compatible store first.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const s3Scheme = "s3://"

// ErrS3NotConfigured is returned for s3:// paths when no endpoint is set.
var ErrS3NotConfigured = errors.New("s3 source requested but S3_ENDPOINT is not configured")

// S3Config holds the connection settings for the object store.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// Resolver implements ocr.Resolver.
type Resolver struct {
	s3     S3Config
	client *minio.Client // created on first s3:// path
}

func NewResolver(cfg S3Config) *Resolver {
	return &Resolver{s3: cfg}
}

// ParseS3URI splits s3://bucket/key. ok is false for anything else.
func ParseS3URI(uri string) (bucket, key string, ok bool) {
	if !strings.HasPrefix(uri, s3Scheme) {
		return "", "", false
	}
	rest := strings.TrimPrefix(uri, s3Scheme)
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// Resolve returns a local path for p. Downloaded objects are removed by cleanup.
func (r *Resolver) Resolve(ctx context.Context, p string) (string, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(p, s3Scheme) {
		return p, noop, nil
	}
	bucket, key, ok := ParseS3URI(p)
	if !ok {
		return "", noop, fmt.Errorf("invalid s3 path %q: want s3://bucket/key", p)
	}

	client, err := r.connect()
	if err != nil {
		return "", noop, err
	}

	obj, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return "", noop, fmt.Errorf("failed to get object: %w", err)
	}
	defer obj.Close()

	// Keep the extension so the engine can sniff the format.
	tmp, err := os.CreateTemp("", "ocrline-*"+path.Ext(key))
	if err != nil {
		return "", noop, fmt.Errorf("failed to create temp file: %w", err)
	}
	cleanup := func() { os.Remove(tmp.Name()) }

	if _, err := io.Copy(tmp, obj); err != nil {
		tmp.Close()
		cleanup()
		return "", noop, fmt.Errorf("failed to download %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", noop, err
	}
	return tmp.Name(), cleanup, nil
}

func (r *Resolver) connect() (*minio.Client, error) {
	if r.client != nil {
		return r.client, nil
	}
	if r.s3.Endpoint == "" {
		return nil, ErrS3NotConfigured
	}
	client, err := minio.New(r.s3.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(r.s3.AccessKey, r.s3.SecretKey, ""),
		Secure: r.s3.UseSSL,
		Region: r.s3.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	r.client = client
	return client, nil
}
