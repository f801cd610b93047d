package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSStore struct {
	client        *gcs.Client
	bucket        string
	publicBaseURL string
}

func NewGCSStore(ctx context.Context, bucket, publicBaseURL string, opts ...option.ClientOption) (*GCSStore, error) {
	opts = append(opts, option.WithScopes(gcs.ScopeReadWrite))
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	base := strings.TrimRight(publicBaseURL, "/")
	if base == "" {
		base = "https://storage.googleapis.com/" + bucket
	}
	return &GCSStore{client: client, bucket: bucket, publicBaseURL: base}, nil
}

func (s *GCSStore) Put(ctx context.Context, key, contentType string, r io.Reader) (Object, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	n, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return Object{}, fmt.Errorf("write gcs object: %w", err)
	}
	if err := w.Close(); err != nil {
		return Object{}, fmt.Errorf("close gcs writer: %w", err)
	}
	return Object{Key: key, URL: s.publicBaseURL + "/" + key, Size: n, ContentType: contentType}, nil
}

func (s *GCSStore) Open(ctx context.Context, key string) (io.ReadCloser, Object, error) {
	rd, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, Object{}, ErrNotFound
	}
	if err != nil {
		return nil, Object{}, fmt.Errorf("open gcs object: %w", err)
	}
	return rd, Object{Key: key, URL: s.publicBaseURL + "/" + key, Size: rd.Attrs.Size, ContentType: rd.Attrs.ContentType}, nil
}

func (s *GCSStore) KeyFromURL(rawURL string) (string, bool) {
	return keyUnder(s.publicBaseURL+"/", rawURL)
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
