package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heyjunin/MediaPresso/pkg/errors"
	"github.com/heyjunin/MediaPresso/pkg/progress"
)

// mockProgressReporter é um mock simples para testes
type mockProgressReporter struct {
	started   bool
	completed bool
	total     int64
	current   int64
}

func (m *mockProgressReporter) Start(total int64) { m.started = true; m.total = total }
func (m *mockProgressReporter) Add(n int64)       { m.current += n }
func (m *mockProgressReporter) Complete()         { m.completed = true }
func (m *mockProgressReporter) Updates() <-chan progress.Event {
	ch := make(chan progress.Event)
	close(ch)
	return ch
}
func (m *mockProgressReporter) JSON() (string, error) { return "{}", nil }

func TestNewDownloaderDefaults(t *testing.T) {
	d := New(Options{})
	assert.Equal(t, 30*time.Minute, d.client.Timeout)
	assert.Equal(t, 5, d.options.MaxRedirects)
	assert.Equal(t, UserAgent, d.options.UserAgent)

	d = New(Options{Timeout: 5 * time.Minute})
	assert.Equal(t, 5*time.Minute, d.client.Timeout)
}

func TestOpenStreamsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Length", "12")
		fmt.Fprint(w, "test content")
	}))
	defer server.Close()

	up, err := New(Options{}).Open(context.Background(), server.URL+"/a.mp4")
	require.NoError(t, err)
	defer up.Body.Close()

	assert.Equal(t, "video/mp4", up.ContentType)
	assert.Equal(t, int64(12), up.ContentLength)
	body, err := io.ReadAll(up.Body)
	require.NoError(t, err)
	assert.Equal(t, "test content", string(body))
}

func TestOpenUnknownLength(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.(http.Flusher).Flush()
		fmt.Fprint(w, "chunked")
	}))
	defer server.Close()

	up, err := New(Options{}).Open(context.Background(), server.URL)
	require.NoError(t, err)
	defer up.Body.Close()
	assert.Equal(t, int64(-1), up.ContentLength)
}

func TestOpenStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := New(Options{}).Open(context.Background(), server.URL)
	require.Error(t, err)
	se, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.UpstreamFetchError, se.Type)
	assert.Equal(t, errors.ErrUpstreamStatus, se.Code)
}

func TestOpenRedirectCap(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer server.Close()

	_, err := New(Options{MaxRedirects: 2}).Open(context.Background(), server.URL+"/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopped after 2 redirects")
}

func TestOpenTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	_, err := New(Options{Timeout: 50 * time.Millisecond}).Open(context.Background(), server.URL)
	se, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrUpstreamTimeout, se.Code)
}

func TestDownloadWithProgress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "12")
		fmt.Fprint(w, "test content")
	}))
	defer server.Close()

	outputPath := filepath.Join(t.TempDir(), "nested", "file.bin")
	reporter := &mockProgressReporter{}

	n, err := New(Options{}).Download(context.Background(), server.URL, outputPath, reporter)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
	assert.True(t, reporter.started)
	assert.True(t, reporter.completed)
	assert.Equal(t, int64(12), reporter.total)
	assert.Equal(t, int64(12), reporter.current)

	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "test content", string(content))
}
