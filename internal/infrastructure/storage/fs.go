package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// FSStore writes objects below Dir and serves them under /files/.
type FSStore struct {
	Dir           string
	PublicBaseURL string
}

func NewFSStore(dir, publicBaseURL string) *FSStore {
	return &FSStore{Dir: dir, PublicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

func (s *FSStore) Put(ctx context.Context, key, contentType string, r io.Reader) (Object, error) {
	clean := filepath.Clean("/" + key)
	out := filepath.Join(s.Dir, clean)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return Object{}, err
	}
	f, err := os.Create(out)
	if err != nil {
		return Object{}, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(out)
		return Object{}, fmt.Errorf("write %s: %w", key, err)
	}
	rel := filepath.ToSlash(strings.TrimPrefix(clean, "/"))
	return Object{Key: rel, URL: s.buildURL("/files/" + rel), Size: n, ContentType: contentType}, nil
}

func (s *FSStore) Open(ctx context.Context, key string) (io.ReadCloser, Object, error) {
	clean := filepath.Clean("/" + key)
	full := filepath.Join(s.Dir, clean)
	f, err := os.Open(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, Object{}, ErrNotFound
	}
	if err != nil {
		return nil, Object{}, err
	}
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		_ = f.Close()
		return nil, Object{}, ErrNotFound
	}
	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectFile(full); err == nil {
		contentType = mt.String()
	}
	rel := filepath.ToSlash(strings.TrimPrefix(clean, "/"))
	return f, Object{Key: rel, URL: s.buildURL("/files/" + rel), Size: info.Size(), ContentType: contentType}, nil
}

func (s *FSStore) KeyFromURL(rawURL string) (string, bool) {
	return keyUnder(s.buildURL("/files/"), rawURL)
}

func (s *FSStore) buildURL(p string) string {
	if s.PublicBaseURL == "" {
		return p
	}
	return s.PublicBaseURL + p
}
