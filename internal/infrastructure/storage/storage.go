package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

type Object struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

var ErrNotFound = errors.New("object not found")

type Store interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (Object, error)
	// Open streams a stored object. Missing keys return ErrNotFound.
	Open(ctx context.Context, key string) (io.ReadCloser, Object, error)
	// KeyFromURL maps a URL returned by Put back to its key. It reports
	// false for URLs this store did not produce.
	KeyFromURL(rawURL string) (string, bool)
}

// ObjectKey builds a collision-free key that keeps the original extension.
func ObjectKey(prefix, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	return strings.Trim(prefix, "/") + "/" + uuid.NewString() + ext
}

// keyUnder strips prefix from rawURL and rejects keys that would climb out
// of it once cleaned.
func keyUnder(prefix, rawURL string) (string, bool) {
	if !strings.HasSuffix(prefix, "/") || !strings.HasPrefix(rawURL, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(rawURL, prefix)
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	if key == "" || path.Clean("/"+key) != "/"+key {
		return "", false
	}
	return key, true
}
