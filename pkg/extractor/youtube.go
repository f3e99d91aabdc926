package extractor

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kkdai/youtube/v2"

	"github.com/heyjunin/MediaPresso/pkg/errors"
	"github.com/heyjunin/MediaPresso/pkg/format"
	"github.com/heyjunin/MediaPresso/pkg/media"
)

// YouTubeClient is the subset of *youtube.Client used here.
type YouTubeClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamURLContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (string, error)
}

// YouTubeStrategy resolves YouTube pages natively, without yt-dlp.
type YouTubeStrategy struct {
	client YouTubeClient
}

// NewYouTubeStrategy uses httpClient for all YouTube requests; nil means
// http.DefaultClient.
func NewYouTubeStrategy(httpClient *http.Client) *YouTubeStrategy {
	return &YouTubeStrategy{client: &youtube.Client{HTTPClient: httpClient}}
}

// NewYouTubeStrategyWithClient is for tests and custom clients.
func NewYouTubeStrategyWithClient(client YouTubeClient) *YouTubeStrategy {
	return &YouTubeStrategy{client: client}
}

func (s *YouTubeStrategy) Name() string { return StrategyYouTube }

func (s *YouTubeStrategy) Extract(ctx context.Context, url, hint string) media.Outcome {
	video, err := s.client.GetVideoContext(ctx, url)
	if err != nil {
		return media.Failure(s.Name(), errors.Wrap(err, errors.ExtractionFailure, "Failed to load YouTube video", errors.ErrStrategiesExhausted))
	}

	audio := format.IsAudio(hint)
	f := pickYouTubeFormat(video.Formats.WithAudioChannels(), audio)
	if f == nil {
		return media.Failure(s.Name(), errors.New(errors.ExtractionFailure,
			errors.GetErrorMessage(errors.ErrNoCandidates), "no progressive format", errors.ErrNoCandidates))
	}

	streamURL, err := s.client.GetStreamURLContext(ctx, video, f)
	if err != nil {
		return media.Failure(s.Name(), errors.Wrap(err, errors.ExtractionFailure, "Failed to resolve YouTube stream", errors.ErrNoCandidates))
	}

	c := media.NewCandidate(streamURL, targetFormat(hint, audio))
	c.Title = orDefault(video.Title, "YouTube Media")
	if n := len(video.Thumbnails); n > 0 {
		c.ThumbnailURL = video.Thumbnails[n-1].URL
	}
	if audio {
		c.Quality = fmt.Sprintf("%dkbps", f.Bitrate/1000)
	} else {
		c.Quality = orDefault(f.QualityLabel, fmt.Sprintf("%dp", f.Height))
	}
	return media.Success(s.Name(), c)
}

// pickYouTubeFormat returns the highest bitrate audio-only format, or the
// tallest progressive format for video.
func pickYouTubeFormat(formats youtube.FormatList, audio bool) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		if audio {
			if f.Width != 0 || f.Height != 0 {
				continue
			}
			if best == nil || f.Bitrate > best.Bitrate {
				best = f
			}
			continue
		}
		if f.Width == 0 || f.Height == 0 {
			continue
		}
		if best == nil || f.Height > best.Height || (f.Height == best.Height && f.Bitrate > best.Bitrate) {
			best = f
		}
	}
	return best
}
