// Package delivery turns a source URL into a single outbound byte stream,
// fetching directly, through yt-dlp or through a real-time transcoder.
package delivery

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/heyjunin/MediaPresso/pkg/downloader"
	"github.com/heyjunin/MediaPresso/pkg/errors"
	"github.com/heyjunin/MediaPresso/pkg/format"
	"github.com/heyjunin/MediaPresso/pkg/logger"
	"github.com/heyjunin/MediaPresso/pkg/media"
	"github.com/heyjunin/MediaPresso/pkg/metrics"
	"github.com/heyjunin/MediaPresso/pkg/platform"
	"github.com/heyjunin/MediaPresso/pkg/process"
	"github.com/heyjunin/MediaPresso/pkg/transcoder"
)

const component = "delivery"

// Delivery paths, also used as metric labels.
const (
	PathDirect    = "direct"
	PathTranscode = "transcode"
	PathTool      = "ytdlp"
)

// Fetcher opens an upstream URL for streaming.
type Fetcher interface {
	Open(ctx context.Context, url string) (*downloader.Upstream, error)
}

// StreamTool downloads a page URL straight to a stream.
type StreamTool interface {
	Available() bool
	Stream(ctx context.Context, url, target string) (*process.Stream, error)
}

// Transcoder converts a byte stream into target.
type Transcoder interface {
	Start(ctx context.Context, in io.Reader, target string) (*process.Stream, error)
}

// Resolver turns a page URL into a direct media URL.
type Resolver interface {
	ResolveDirect(ctx context.Context, url, hint string) (string, error)
}

// Options wires the pipeline's collaborators. Only Fetcher is required.
type Options struct {
	Fetcher    Fetcher
	Tool       StreamTool
	Transcoder Transcoder
	Resolver   Resolver
	Metrics    *metrics.Metrics
}

// Pipeline serves DeliveryRequests. It holds no per-request state.
type Pipeline struct {
	options Options
	logger  logger.Logger
}

// New creates a Pipeline.
func New(options Options, log logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Nop{}
	}
	return &Pipeline{options: options, logger: log}
}

// Deliver opens the stream for req. The caller must Close the response.
// Cancelling ctx tears down the upstream fetch and any subprocess.
func (p *Pipeline) Deliver(ctx context.Context, req media.DeliveryRequest) (*Response, error) {
	source := strings.TrimSpace(req.SourceURL)
	if err := validateURL(source); err != nil {
		return nil, err
	}

	target := format.FromFilename(req.Filename)
	if target == "" {
		target = strings.ToLower(strings.TrimSpace(req.FormatHint))
	}
	social := platform.IsSocial(source) && !platform.IsCDN(source)

	p.logger.Info("Delivery requested", component, map[string]interface{}{
		"url":    source,
		"target": target,
		"social": social,
	})

	if social && p.options.Tool != nil && p.options.Tool.Available() {
		return p.viaTool(ctx, source, target, req.Filename)
	}

	if social && p.options.Resolver != nil && !strings.Contains(source, "cobalt") {
		direct, err := p.options.Resolver.ResolveDirect(ctx, source, target)
		if err != nil {
			p.logger.Warn("Last-chance resolution failed, fetching original URL", component, map[string]interface{}{
				"url":   source,
				"error": err.Error(),
			})
		} else {
			source = direct
		}
	}

	if p.options.Fetcher == nil {
		return nil, errors.New(errors.ValidationError, errors.GetErrorMessage(errors.ErrInvalidConfig), "no fetcher configured", errors.ErrInvalidConfig)
	}
	up, err := p.options.Fetcher.Open(ctx, source)
	if err != nil {
		p.options.Metrics.DeliveryStarted(PathDirect)("error")
		return nil, err
	}

	if target != "" && p.options.Transcoder != nil && transcoder.NeedsTranscode(target, up.ContentType) {
		return p.viaTranscoder(ctx, up, target, req.Filename)
	}

	resp := &Response{
		ContentType:   up.ContentType,
		ContentLength: up.ContentLength,
		Filename:      Filename(req.Filename, target, up.ContentType),
		Path:          PathDirect,
		Body:          up.Body,
		closers:       []io.Closer{up.Body},
		metrics:       p.options.Metrics,
		done:          p.options.Metrics.DeliveryStarted(PathDirect),
	}
	p.logStart(resp, source)
	return resp, nil
}

func (p *Pipeline) viaTool(ctx context.Context, source, target, filename string) (*Response, error) {
	if target == "" {
		target = "mp4"
	}
	s, err := p.options.Tool.Stream(ctx, source, target)
	if err != nil {
		p.options.Metrics.DeliveryStarted(PathTool)("error")
		return nil, err
	}
	contentType := format.MIMEType(target)
	resp := &Response{
		ContentType:   contentType,
		ContentLength: -1,
		Filename:      Filename(filename, target, contentType),
		Path:          PathTool,
		Body:          s,
		closers:       []io.Closer{s},
		proc:          s,
		metrics:       p.options.Metrics,
		done:          p.options.Metrics.DeliveryStarted(PathTool),
	}
	p.logStart(resp, source)
	return resp, nil
}

func (p *Pipeline) viaTranscoder(ctx context.Context, up *downloader.Upstream, target, filename string) (*Response, error) {
	s, err := p.options.Transcoder.Start(ctx, up.Body, target)
	if err != nil {
		_ = up.Body.Close()
		p.options.Metrics.DeliveryStarted(PathTranscode)("error")
		return nil, err
	}
	contentType := format.MIMEType(target)
	resp := &Response{
		ContentType: contentType,
		// the transcoded size is unknown
		ContentLength: -1,
		Filename:      Filename(filename, target, contentType),
		Path:          PathTranscode,
		Body:          s,
		closers:       []io.Closer{up.Body, s},
		proc:          s,
		metrics:       p.options.Metrics,
		done:          p.options.Metrics.DeliveryStarted(PathTranscode),
	}
	p.logStart(resp, up.URL)
	return resp, nil
}

func (p *Pipeline) logStart(resp *Response, source string) {
	p.logger.Info("Delivery started", component, map[string]interface{}{
		"url":            source,
		"path":           resp.Path,
		"content_type":   resp.ContentType,
		"content_length": resp.ContentLength,
		"filename":       resp.Filename,
	})
}

func validateURL(raw string) error {
	if raw == "" {
		return errors.New(errors.ValidationError, errors.GetErrorMessage(errors.ErrMissingURL), "", errors.ErrMissingURL)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New(errors.ValidationError, errors.GetErrorMessage(errors.ErrInvalidURL), raw, errors.ErrInvalidURL)
	}
	return nil
}
