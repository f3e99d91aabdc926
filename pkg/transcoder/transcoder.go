// Package transcoder converts an audio byte stream in real time by piping it
// through ffmpeg.
package transcoder

import (
	"context"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/heyjunin/MediaPresso/pkg/errors"
	"github.com/heyjunin/MediaPresso/pkg/format"
	"github.com/heyjunin/MediaPresso/pkg/logger"
	"github.com/heyjunin/MediaPresso/pkg/process"
)

// Target is the ffmpeg muxer and audio codec for an output token.
type Target struct {
	Container string
	Codec     string
}

// Targets reachable by real-time transcoding. Codecs other than copy are
// encoded at the configured bitrate.
var targets = map[string]Target{
	"mp3": {Container: "mp3", Codec: "libmp3lame"},
	"wav": {Container: "wav", Codec: "pcm_s16le"},
	"ogg": {Container: "ogg", Codec: "copy"},
	"aac": {Container: "adts", Codec: "copy"},
}

// Options contains settings for the transcoder.
type Options struct {
	// FFmpegBinary defaults to "ffmpeg".
	FFmpegBinary string
	// AudioBitrate defaults to 192k.
	AudioBitrate string
	// Grace is how long a cancelled ffmpeg gets before its pipes are closed.
	Grace time.Duration
}

// Transcoder runs ffmpeg as a streaming filter.
type Transcoder struct {
	options Options
	logger  logger.Logger
}

// New creates a Transcoder with default settings filled in.
func New(options Options) *Transcoder {
	return NewWithDeps(options, logger.NewLogger())
}

// NewWithDeps creates a Transcoder with an explicit logger.
func NewWithDeps(options Options, log logger.Logger) *Transcoder {
	if options.FFmpegBinary == "" {
		options.FFmpegBinary = "ffmpeg"
	}
	if options.AudioBitrate == "" {
		options.AudioBitrate = "192k"
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Transcoder{options: options, logger: log}
}

// Lookup returns the ffmpeg target for a format token.
func Lookup(target string) (Target, bool) {
	t, ok := targets[strings.ToLower(target)]
	return t, ok
}

// NeedsTranscode reports whether bytes declared as upstreamContentType must
// go through ffmpeg to become target.
func NeedsTranscode(target, upstreamContentType string) bool {
	if _, ok := Lookup(target); !ok {
		return false
	}
	return !format.MatchesContentType(target, upstreamContentType)
}

// Available reports whether the ffmpeg binary can be found.
func (t *Transcoder) Available() bool {
	_, err := exec.LookPath(t.options.FFmpegBinary)
	return err == nil
}

// Args builds the ffmpeg arguments for target.
func (t *Transcoder) Args(target string) ([]string, error) {
	tg, ok := Lookup(target)
	if !ok {
		return nil, errors.New(errors.TranscodeError, errors.GetErrorMessage(errors.ErrTranscodeUnsupported),
			target, errors.ErrTranscodeUnsupported)
	}
	return []string{
		"-i", "pipe:0",
		"-f", tg.Container,
		"-acodec", tg.Codec,
		"-ab", t.options.AudioBitrate,
		"pipe:1",
	}, nil
}

// Start pipes in through ffmpeg and returns its output. Reading the stream
// to EOF reports an ffmpeg failure as TranscodeError; Close kills ffmpeg.
func (t *Transcoder) Start(ctx context.Context, in io.Reader, target string) (*process.Stream, error) {
	args, err := t.Args(target)
	if err != nil {
		return nil, err
	}

	t.logger.Info("Starting transcoder", "transcoder", map[string]interface{}{
		"target":  target,
		"bitrate": t.options.AudioBitrate,
	})

	s, err := process.Start(ctx, process.Options{
		Grace:     t.options.Grace,
		Logger:    t.logger,
		Component: "ffmpeg",
		Stdin:     in,
		OnExit: func(err error, stderr string) error {
			e := errors.Wrap(err, errors.TranscodeError, errors.GetErrorMessage(errors.ErrTranscoderExit), errors.ErrTranscoderExit)
			if stderr != "" {
				e.Details += ": " + stderr
			}
			return e
		},
	}, t.options.FFmpegBinary, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.TranscodeError, errors.GetErrorMessage(errors.ErrTranscoderStart), errors.ErrTranscoderStart)
	}
	return s, nil
}
