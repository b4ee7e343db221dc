package fetcher_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ocrbridge/internal/config"
	"ocrbridge/internal/domain"
	"ocrbridge/internal/fetcher"
	"ocrbridge/mocks"
)

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

func newTestFetcher(t *testing.T, storage *mocks.MockObjectStorage) *fetcher.Fetcher {
	t.Helper()
	cfg := &config.FetchConfig{TimeoutSecs: 5, MaxImageSizeMB: 1, TempDir: t.TempDir()}
	if storage == nil {
		return fetcher.NewFetcher(cfg, nil, zerolog.Nop())
	}
	return fetcher.NewFetcher(cfg, storage, zerolog.Nop())
}

func TestFetcher_Fetch_HTTP_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(jpegBytes)
	}))
	defer server.Close()

	f := newTestFetcher(t, nil)
	res, err := f.Fetch(context.Background(), server.URL+"/receipt.jpg")
	require.NoError(t, err)
	require.NotNil(t, res)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, jpegBytes, data)

	require.NoError(t, res.Release())
	_, err = os.Stat(res.Path)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// Releasing twice is harmless.
	assert.NoError(t, res.Release())
}

func TestFetcher_Fetch_HTTP_NonOKStatus(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusForbidden, http.StatusInternalServerError, http.StatusNoContent} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		f := newTestFetcher(t, nil)
		res, err := f.Fetch(context.Background(), server.URL)
		server.Close()

		assert.Nil(t, res)
		assert.ErrorIs(t, err, domain.ErrDownloadFailed, "status %d", status)
	}
}

func TestFetcher_Fetch_HTTP_NoTempFileLeftOnFailure(t *testing.T) {
	dir := t.TempDir()
	big := strings.Repeat("x", (1<<20)+10)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(big))
	}))
	defer server.Close()

	f := fetcher.NewFetcher(&config.FetchConfig{MaxImageSizeMB: 1, TempDir: dir}, nil, zerolog.Nop())
	res, err := f.Fetch(context.Background(), server.URL)

	assert.Nil(t, res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image exceeds")
	assert.NotErrorIs(t, err, domain.ErrDownloadFailed)
	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

// Only a non-200 answer is a rejected download; a host that cannot be
// reached is an ordinary error.
func TestFetcher_Fetch_UnreachableHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := server.URL + "/img.jpg"
	server.Close()

	f := newTestFetcher(t, nil)
	res, err := f.Fetch(context.Background(), target)

	assert.Nil(t, res)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDownloadFailed)
	assert.Contains(t, err.Error(), "fetching image")
}

func TestFetcher_Fetch_UnsupportedScheme(t *testing.T) {
	f := newTestFetcher(t, nil)

	for _, raw := range []string{"ftp://example.com/a.jpg", "not a url", "file:///etc/passwd", ""} {
		res, err := f.Fetch(context.Background(), raw)
		assert.Nil(t, res)
		require.Error(t, err, raw)
		assert.NotErrorIs(t, err, domain.ErrDownloadFailed, raw)
		assert.Contains(t, err.Error(), "unsupported url scheme", raw)
	}
}

func TestFetcher_Fetch_InvalidURL(t *testing.T) {
	f := newTestFetcher(t, nil)

	_, err := f.Fetch(context.Background(), "http://[::1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDownloadFailed)
	assert.Contains(t, err.Error(), "parsing url")
}

func TestFetcher_Fetch_S3_Success(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	storage.On("Download", mock.Anything, "receipts", "2024/01/scan.jpg").Return(jpegBytes, nil)

	f := newTestFetcher(t, storage)
	res, err := f.Fetch(context.Background(), "s3://receipts/2024/01/scan.jpg")
	require.NoError(t, err)
	defer func() { _ = res.Release() }()

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, jpegBytes, data)
	storage.AssertExpectations(t)
}

func TestFetcher_Fetch_S3_MissingObject(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	storage.On("Download", mock.Anything, "receipts", "missing.jpg").
		Return(nil, fmt.Errorf("%w: s3 status 404", domain.ErrDownloadFailed))

	f := newTestFetcher(t, storage)
	res, err := f.Fetch(context.Background(), "s3://receipts/missing.jpg")

	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrDownloadFailed)
	storage.AssertExpectations(t)
}

func TestFetcher_Fetch_S3_TransportError(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	storage.On("Download", mock.Anything, "receipts", "scan.jpg").
		Return(nil, errors.New("s3 download: dial tcp: connection refused"))

	f := newTestFetcher(t, storage)
	res, err := f.Fetch(context.Background(), "s3://receipts/scan.jpg")

	assert.Nil(t, res)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDownloadFailed)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestFetcher_Fetch_S3_NotEnabled(t *testing.T) {
	f := newTestFetcher(t, nil)
	_, err := f.Fetch(context.Background(), "s3://receipts/scan.jpg")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDownloadFailed)
}

func TestFetcher_Fetch_S3_MissingKey(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	f := newTestFetcher(t, storage)

	_, err := f.Fetch(context.Background(), "s3://receipts/")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDownloadFailed)
	storage.AssertNotCalled(t, "Download", mock.Anything, mock.Anything, mock.Anything)
}
