// Package imagestore uploads rendered artifacts to MinIO or any S3-compatible
// object storage and resolves their public URL.
package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const keyPrefix = "renders"

// Config describes the target bucket.
type Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
}

// Store is the MinIO-backed image store.
type Store struct {
	client  *mclient.Client
	bucket  string
	baseURL string
}

// New creates the client and fails fast when the bucket is missing.
// A scheme in Endpoint overrides UseSSL.
func New(ctx context.Context, cfg Config) (*Store, error) {
	const op = "imagestore/minio/New"

	endpoint, secure := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)

	client, err := mclient.New(endpoint, &mclient.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: %q: %w", op, cfg.Bucket, ErrBucketMissing)
	}

	return &Store{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: publicBase(cfg.PublicBaseURL, endpoint, secure, cfg.Bucket),
	}, nil
}

// Upload stores data under a fresh object key and returns that key.
func (s *Store) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	const op = "imagestore/minio/Upload"

	if len(data) == 0 {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyImage)
	}

	key := objectKey(contentType)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		mclient.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return key, nil
}

// URL returns the public URL of an uploaded object.
func (s *Store) URL(externalImageID string) string {
	return s.baseURL + "/" + externalImageID
}

func normalizeEndpoint(endpoint string, useSSL bool) (string, bool) {
	secure := useSSL || strings.HasPrefix(endpoint, "https://")
	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" && u.Host != "" {
		return u.Host, u.Scheme == "https"
	}
	return endpoint, secure
}

func publicBase(public, endpoint string, secure bool, bucket string) string {
	if public != "" {
		return strings.TrimRight(public, "/")
	}
	scheme := "http"
	if secure {
		scheme = "https"
	}
	return scheme + "://" + endpoint + "/" + bucket
}

func objectKey(contentType string) string {
	ext := ""
	switch contentType {
	case "image/png":
		ext = ".png"
	case "image/jpeg":
		ext = ".jpg"
	}
	return path.Join(keyPrefix, uuid.NewString()+ext)
}
