// Package datasource fetches the raw GeoJSON document from a URL or a file.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vaxmap/internal/config"
)

// maxDocumentSize caps how much of a response body is read.
const maxDocumentSize = 256 << 20

// Source supplies the raw document bytes.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	Location() string
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.Code)
}

// ErrNotFound is returned when a file source does not exist.
var ErrNotFound = errors.New("data source not found")

// New picks an HTTP or file source for cfg.Source.
func New(cfg config.DataConfig) (Source, error) {
	raw := strings.TrimSpace(cfg.Source)
	if raw == "" {
		return nil, fmt.Errorf("data source cannot be empty")
	}
	if cfg.IsRemote() {
		return NewHTTPSource(raw, cfg.Timeout()), nil
	}
	return NewFileSource(raw)
}

// HTTPSource fetches the document with a single GET.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource builds an HTTP source; timeout 0 means no client timeout.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// SetHTTPClient sets the HTTP client for testing.
func (s *HTTPSource) SetHTTPClient(client *http.Client) {
	s.client = client
}

func (s *HTTPSource) Location() string {
	return s.url
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode, URL: s.url}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.url, err)
	}
	return body, nil
}

// FileSource reads the document from disk on every fetch.
type FileSource struct {
	path string
}

// NewFileSource resolves path against the working directory.
func NewFileSource(path string) (*FileSource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve data path %s: %w", path, err)
	}
	return &FileSource{path: abs}, nil
}

func (s *FileSource) Location() string {
	return s.path
}

func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	body, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return body, nil
}
