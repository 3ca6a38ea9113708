package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ErrUnavailable is the single failure the storefront sees for a catalog
// resource: network error, bad status, missing file. Callers render an
// empty state and may try again later.
var ErrUnavailable = errors.New("catalog resource unavailable")

const (
	fetchTimeout = 3 * time.Second
	maxResource  = 4 << 20
)

// Source reads one raw JSON resource by its well-known path.
type Source interface {
	Fetch(ctx context.Context, resourcePath string) ([]byte, error)
}

// HTTPSource fetches resources from a remote base URL, e.g. a CDN or the
// static host the catalog files are deployed to.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPSource(baseURL string) *HTTPSource {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	return &HTTPSource{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: fetchTimeout},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context, resourcePath string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+resourcePath, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status=%d", ErrUnavailable, resp.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResource))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return b, nil
}

// DirSource reads resources straight from the local directory the static
// site is served from.
type DirSource struct {
	Dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

func (s *DirSource) Fetch(_ context.Context, resourcePath string) ([]byte, error) {
	clean := path.Clean("/" + resourcePath)
	if strings.Contains(clean, "..") {
		return nil, ErrUnavailable
	}

	b, err := os.ReadFile(filepath.Join(s.Dir, filepath.FromSlash(clean)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return b, nil
}
