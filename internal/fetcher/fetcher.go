// Package fetcher downloads images into request-scoped temporary files.
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ocrbridge/internal/config"
	"ocrbridge/internal/domain"
	"ocrbridge/internal/port"
)

const tempPattern = "ocrbridge-*.jpg"

// Fetcher implements port.ImageFetcher for http(s):// and s3:// URLs.
type Fetcher struct {
	client   *http.Client
	storage  port.ObjectStorage
	maxBytes int64
	tempDir  string
	log      zerolog.Logger
}

// NewFetcher creates a Fetcher. storage may be nil, in which case s3:// URLs
// are rejected.
func NewFetcher(cfg *config.FetchConfig, storage port.ObjectStorage, log zerolog.Logger) *Fetcher {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return NewFetcherWithClient(cfg, storage, &http.Client{Timeout: timeout}, log)
}

// NewFetcherWithClient creates a Fetcher using the given HTTP client (for testing).
func NewFetcherWithClient(cfg *config.FetchConfig, storage port.ObjectStorage, client *http.Client, log zerolog.Logger) *Fetcher {
	maxMB := cfg.MaxImageSizeMB
	if maxMB <= 0 {
		maxMB = 20
	}
	return &Fetcher{
		client:   client,
		storage:  storage,
		maxBytes: maxMB << 20,
		tempDir:  cfg.TempDir,
		log:      log.With().Str("component", "fetcher").Logger(),
	}
}

// Fetch downloads rawURL into a new temporary file. Only a rejected fetch (a
// non-200 response, or a missing S3 object) wraps domain.ErrDownloadFailed;
// transport and URL errors are returned as is. No file is left behind on failure.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*domain.ImageResource, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("parsing url: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return f.fetchHTTP(ctx, u.String())
	case "s3":
		return f.fetchS3(ctx, u)
	default:
		return nil, fmt.Errorf("unsupported url scheme %q in %q", u.Scheme, rawURL)
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, target string) (*domain.ImageResource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		f.log.Warn().Str("url", target).Int("status", resp.StatusCode).Msg("image download rejected")
		return nil, fmt.Errorf("%w: status %d", domain.ErrDownloadFailed, resp.StatusCode)
	}

	return f.writeTemp(resp.Body)
}

func (f *Fetcher) fetchS3(ctx context.Context, u *url.URL) (*domain.ImageResource, error) {
	if f.storage == nil {
		return nil, errors.New("s3 image sources are not enabled")
	}
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("s3 url %q needs a bucket and a key", u.String())
	}

	data, err := f.storage.Download(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("fetching s3 object: %w", err)
	}
	return f.writeTemp(bytes.NewReader(data))
}

func (f *Fetcher) writeTemp(r io.Reader) (*domain.ImageResource, error) {
	tmp, err := os.CreateTemp(f.tempDir, tempPattern)
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	res := domain.NewImageResource(tmp.Name())

	n, copyErr := io.Copy(tmp, io.LimitReader(r, f.maxBytes+1))
	closeErr := tmp.Close()
	switch {
	case copyErr != nil:
		err = fmt.Errorf("writing temp file: %w", copyErr)
	case closeErr != nil:
		err = fmt.Errorf("closing temp file: %w", closeErr)
	case n > f.maxBytes:
		err = fmt.Errorf("image exceeds %d bytes", f.maxBytes)
	}
	if err != nil {
		if rmErr := res.Release(); rmErr != nil {
			f.log.Error().Err(rmErr).Str("path", res.Path).Msg("removing partial download")
		}
		return nil, err
	}

	f.log.Debug().Str("path", res.Path).Int64("bytes", n).Msg("image downloaded")
	return res, nil
}
