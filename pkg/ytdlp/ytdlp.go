// Package ytdlp wraps the yt-dlp command line tool for stream metadata and
// streaming downloads.
package ytdlp

import (
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"time"

	goytdlp "github.com/lrstanley/go-ytdlp"

	"github.com/heyjunin/MediaPresso/pkg/errors"
	"github.com/heyjunin/MediaPresso/pkg/format"
	"github.com/heyjunin/MediaPresso/pkg/logger"
	"github.com/heyjunin/MediaPresso/pkg/process"
)

const component = "ytdlp"

// Options configures a Client.
type Options struct {
	// Binary is the yt-dlp executable, looked up in PATH when not absolute.
	Binary string
	// Timeout bounds a metadata (--dump-json) call.
	Timeout time.Duration
	// Grace is the kill grace for streaming downloads.
	Grace time.Duration
}

// Client runs yt-dlp.
type Client struct {
	options Options
	logger  logger.Logger
}

// New creates a Client with defaults filled in.
func New(options Options) *Client {
	return NewWithDeps(options, logger.NewLogger())
}

// NewWithDeps creates a Client with an explicit logger.
func NewWithDeps(options Options, log logger.Logger) *Client {
	if options.Binary == "" {
		options.Binary = "yt-dlp"
	}
	if options.Timeout == 0 {
		options.Timeout = 2 * time.Minute
	}
	if options.Grace == 0 {
		options.Grace = process.DefaultGrace
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Client{options: options, logger: log}
}

// Available reports whether the binary can be found.
func (c *Client) Available() bool {
	_, err := exec.LookPath(c.options.Binary)
	return err == nil
}

// Format is one entry of the tool's format list.
type Format struct {
	FormatID   string `json:"format_id"`
	URL        string `json:"url"`
	Ext        string `json:"ext"`
	VCodec     string `json:"vcodec"`
	ACodec     string `json:"acodec"`
	Resolution string `json:"resolution"`
	Height     int    `json:"height"`
	Filesize   int64  `json:"filesize"`
}

// HasVideo reports whether the format carries video. A missing codec field
// counts as present.
func (f Format) HasVideo() bool { return f.VCodec != "none" }

// HasAudio reports whether the format carries audio.
func (f Format) HasAudio() bool { return f.ACodec != "none" }

// Info is the subset of --dump-json output the extractor uses.
type Info struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Thumbnail  string   `json:"thumbnail"`
	Duration   float64  `json:"duration"`
	WebpageURL string   `json:"webpage_url"`
	Extractor  string   `json:"extractor"`
	Formats    []Format `json:"formats"`
}

// Info runs `yt-dlp --dump-json --no-playlist <url>` and parses its output.
func (c *Client) Info(ctx context.Context, url string) (*Info, error) {
	if !c.Available() {
		return nil, errors.New(errors.SubprocessError, errors.GetErrorMessage(errors.ErrToolMissing), c.options.Binary, errors.ErrToolMissing)
	}

	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	c.logger.Debug("Fetching stream info", component, map[string]interface{}{
		"url": url,
	})

	start := time.Now()
	res, err := goytdlp.New().
		SetExecutable(c.options.Binary).
		DumpJSON().
		NoPlaylist().
		Run(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), errors.SubprocessError, "yt-dlp timed out", errors.ErrToolExit)
		}
		e := errors.Wrap(err, errors.SubprocessError, errors.GetErrorMessage(errors.ErrToolExit), errors.ErrToolExit)
		if res != nil {
			if msg := strings.TrimSpace(res.Stderr); msg != "" {
				e.Details += ": " + msg
			}
		}
		return nil, e
	}

	var info Info
	if err := json.Unmarshal([]byte(strings.TrimSpace(res.Stdout)), &info); err != nil {
		return nil, errors.Wrap(err, errors.SubprocessError, errors.GetErrorMessage(errors.ErrToolOutput), errors.ErrToolOutput)
	}

	c.logger.Debug("Stream info fetched", component, map[string]interface{}{
		"title":    info.Title,
		"formats":  len(info.Formats),
		"duration": time.Since(start).String(),
	})
	return &info, nil
}

// SelectFormat picks the stream for a request. Audio requests take the last
// audio-only format, others the last format carrying both audio and video.
// The tool lists formats from worst to best, so last means best.
func SelectFormat(formats []Format, audio bool) (Format, bool) {
	for i := len(formats) - 1; i >= 0; i-- {
		f := formats[i]
		if audio && !f.HasVideo() && f.HasAudio() {
			return f, true
		}
		if !audio && f.HasVideo() && f.HasAudio() {
			return f, true
		}
	}
	return Format{}, false
}

// AudioFormat maps a target token to yt-dlp's --audio-format name.
func AudioFormat(target string) string {
	t := strings.ToLower(target)
	if t == "ogg" {
		return "vorbis"
	}
	return t
}

// StreamArgs builds the arguments for a download streamed to stdout.
func StreamArgs(url, target string) []string {
	if format.IsAudio(target) {
		return []string{"-o", "-", "-x", "--audio-format", AudioFormat(target), "--audio-quality", "0", url}
	}
	return []string{"-o", "-", "-f", "best", url}
}

// Stream starts a streaming download of url in the target format. Closing
// the returned stream or cancelling ctx kills the tool.
func (c *Client) Stream(ctx context.Context, url, target string) (*process.Stream, error) {
	c.logger.Info("Starting streaming download", component, map[string]interface{}{
		"url":    url,
		"target": target,
	})
	return process.Start(ctx, process.Options{
		Grace:     c.options.Grace,
		Logger:    c.logger,
		Component: component,
	}, c.options.Binary, StreamArgs(url, target)...)
}
