package downloader

import (
	"context"
	"crypto/tls"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/heyjunin/MediaPresso/pkg/errors"
	"github.com/heyjunin/MediaPresso/pkg/logger"
	"github.com/heyjunin/MediaPresso/pkg/progress"
)

// UserAgent is the browser identifier sent to media hosts.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/110.0.0.0 Safari/537.36"

// Options represents configuration options for the Downloader.
type Options struct {
	// Timeout bounds a whole transfer, body included. Defaults to 30 minutes
	// so large media is not cut short.
	Timeout time.Duration
	// MaxRedirects defaults to 5.
	MaxRedirects int
	// UserAgent defaults to UserAgent.
	UserAgent string
	// Client overrides the HTTP client built from Timeout and MaxRedirects.
	Client *http.Client
}

// Downloader fetches upstream media as a stream.
// Create instances using New().
type Downloader struct {
	client  *http.Client
	options Options
	logger  logger.Logger
}

// New creates a new Downloader instance configured with the provided options.
func New(options Options) *Downloader {
	return NewWithDeps(options, logger.NewLogger())
}

// NewWithDeps creates a Downloader with an explicit logger.
func NewWithDeps(options Options, log logger.Logger) *Downloader {
	if options.Timeout == 0 {
		options.Timeout = 30 * time.Minute
	}
	if options.MaxRedirects == 0 {
		options.MaxRedirects = 5
	}
	if options.UserAgent == "" {
		options.UserAgent = UserAgent
	}
	client := options.Client
	if client == nil {
		client = NewClient(options.Timeout, options.MaxRedirects)
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Downloader{client: client, options: options, logger: log}
}

// NewClient builds an HTTP client with TLS 1.2+, pooled connections and a
// redirect cap.
func NewClient(timeout time.Duration, maxRedirects int) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          50,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: time.Minute,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

// Upstream is an open response body plus what the source declared about it.
type Upstream struct {
	Body        io.ReadCloser
	ContentType string
	// ContentLength is -1 when the source did not declare it.
	ContentLength int64
	// URL is the final URL after redirects.
	URL string
}

// Open starts a GET for url and returns the streaming body. The caller must
// close Body. Non-2xx answers, transport errors and timeouts are
// UpstreamFetchError.
func (d *Downloader) Open(ctx context.Context, url string) (*Upstream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.UpstreamFetchError, "Failed to create HTTP request", errors.ErrUpstreamRequest)
	}
	req.Header.Set("User-Agent", d.options.UserAgent)
	req.Header.Set("Accept", "*/*")

	d.logger.Debug("Opening upstream", "downloader", map[string]interface{}{
		"url": url,
	})

	resp, err := d.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, errors.Wrap(err, errors.UpstreamFetchError, errors.GetErrorMessage(errors.ErrUpstreamTimeout), errors.ErrUpstreamTimeout)
		}
		return nil, errors.Wrap(err, errors.UpstreamFetchError, errors.GetErrorMessage(errors.ErrUpstreamRequest), errors.ErrUpstreamRequest)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, errors.New(errors.UpstreamFetchError, errors.GetErrorMessage(errors.ErrUpstreamStatus),
			fmt.Sprintf("Status: %s", resp.Status), errors.ErrUpstreamStatus)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	length := resp.ContentLength
	if length < 0 || resp.Uncompressed {
		length = -1
	}
	return &Upstream{
		Body:          resp.Body,
		ContentType:   contentType,
		ContentLength: length,
		URL:           resp.Request.URL.String(),
	}, nil
}

// Download saves url to outputPath, reporting progress when reporter is
// set. It returns the number of bytes written.
func (d *Downloader) Download(ctx context.Context, url, outputPath string, reporter progress.Reporter) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return 0, errors.Wrap(err, errors.UpstreamFetchError, "Failed to create output directory", errors.ErrUpstreamWrite)
	}

	up, err := d.Open(ctx, url)
	if err != nil {
		return 0, err
	}
	defer up.Body.Close()

	file, err := os.Create(outputPath)
	if err != nil {
		return 0, errors.Wrap(err, errors.UpstreamFetchError, "Failed to create output file", errors.ErrUpstreamWrite)
	}
	defer file.Close()

	var reader io.Reader = up.Body
	if reporter != nil {
		reporter.Start(up.ContentLength)
		reader = progress.NewReader(up.Body, reporter)
	}

	d.logger.Info("Starting download", "downloader", map[string]interface{}{
		"url":  url,
		"path": outputPath,
	})

	n, err := io.Copy(file, reader)
	if err != nil {
		return n, errors.Wrap(err, errors.UpstreamFetchError, errors.GetErrorMessage(errors.ErrUpstreamRead), errors.ErrUpstreamRead)
	}
	if reporter != nil {
		reporter.Complete()
	}

	d.logger.Info("Download completed", "downloader", map[string]interface{}{
		"path":  outputPath,
		"bytes": n,
	})
	return n, nil
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return stderrors.As(err, &t) && t.Timeout()
}
