package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"taxdesk-backend/internal/infrastructure/storage"
)

type uploadKind struct {
	limit   int64
	allowed []string
}

var uploadKinds = map[string]uploadKind{
	"image":    {limit: 4 << 20, allowed: []string{"image/jpeg", "image/png", "image/webp"}},
	"document": {limit: 8 << 20, allowed: []string{"image/jpeg", "image/png", "image/webp", "application/pdf"}},
}

func (s *Server) handleUpload(c *gin.Context) {
	if s.store == nil {
		s.err(c, http.StatusInternalServerError, "Misconfigured", "storage not configured")
		return
	}
	kindName := c.DefaultQuery("kind", "document")
	kind, ok := uploadKinds[kindName]
	if !ok {
		s.err(c, http.StatusBadRequest, "BadRequest", "kind must be image or document")
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, kind.limit+1<<20)
	hdr, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.err(c, http.StatusRequestEntityTooLarge, "TooLarge", fmt.Sprintf("file exceeds %dMB", kind.limit>>20))
			return
		}
		s.err(c, http.StatusBadRequest, "BadRequest", "field 'file' required")
		return
	}
	if hdr.Size > kind.limit {
		s.err(c, http.StatusRequestEntityTooLarge, "TooLarge", fmt.Sprintf("file exceeds %dMB", kind.limit>>20))
		return
	}
	f, err := hdr.Open()
	if err != nil {
		s.err(c, http.StatusBadRequest, "BadRequest", "cannot read file")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, kind.limit+1))
	if err != nil {
		s.err(c, http.StatusBadRequest, "BadRequest", "cannot read file")
		return
	}
	if int64(len(data)) > kind.limit {
		s.err(c, http.StatusRequestEntityTooLarge, "TooLarge", fmt.Sprintf("file exceeds %dMB", kind.limit>>20))
		return
	}
	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), kind.allowed...) {
		s.err(c, http.StatusBadRequest, "BadRequest", "unsupported file type "+mt.String())
		return
	}

	name := filepath.Base(hdr.Filename)
	obj, err := s.store.Put(c.Request.Context(), storage.ObjectKey(kindName+"s", name), mt.String(), bytes.NewReader(data))
	if err != nil {
		s.fail(c, fmt.Errorf("store upload: %w", err))
		return
	}
	obj.FileName = name
	s.log.Info("file uploaded", "key", obj.Key, "size", obj.Size, "content_type", obj.ContentType)
	s.json(c, http.StatusCreated, obj)
}

var filenameReplacer = strings.NewReplacer(`"`, "", `\`, "", "\r", "", "\n", "")

// handleDownload serves an uploaded file as an attachment. URLs from the
// configured store are read directly; other URLs must sit under the
// configured external prefix and are fetched.
func (s *Server) handleDownload(c *gin.Context) {
	fileURL := strings.TrimSpace(c.Query("fileUrl"))
	if fileURL == "" {
		s.err(c, http.StatusBadRequest, "BadRequest", "fileUrl required")
		return
	}
	fileName := filenameReplacer.Replace(strings.TrimSpace(c.Query("fileName")))
	if fileName == "" {
		fileName = "downloaded_file"
	}
	headers := map[string]string{"Content-Disposition": `attachment; filename="` + fileName + `"`}

	if s.store != nil {
		if key, ok := s.store.KeyFromURL(fileURL); ok {
			s.downloadStored(c, key, headers)
			return
		}
	}
	prefix := s.cfg.Download.AllowedPrefix
	if prefix == "" || !strings.HasSuffix(prefix, "/") || !strings.HasPrefix(fileURL, prefix) {
		s.err(c, http.StatusBadRequest, "BadRequest", "fileUrl not allowed")
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, fileURL, nil)
	if err != nil {
		s.err(c, http.StatusBadRequest, "BadRequest", "invalid fileUrl")
		return
	}
	resp, err := s.http.Do(req)
	if err != nil {
		s.log.Warn("download failed", "url", fileURL, "error", err)
		s.err(c, http.StatusBadGateway, "DownloadFailed", "cannot fetch file")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		s.err(c, http.StatusBadGateway, "DownloadFailed", fmt.Sprintf("upstream returned %d", resp.StatusCode))
		return
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, resp.ContentLength, contentType, resp.Body, headers)
}

func (s *Server) downloadStored(c *gin.Context, key string, headers map[string]string) {
	rc, obj, err := s.store.Open(c.Request.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		s.err(c, http.StatusNotFound, "NotFound", "file not found")
		return
	}
	if err != nil {
		s.log.Warn("download failed", "key", key, "error", err)
		s.err(c, http.StatusBadGateway, "DownloadFailed", "cannot read file")
		return
	}
	defer rc.Close()
	c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, rc, headers)
}
