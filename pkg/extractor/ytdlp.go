package extractor

import (
	"context"

	"github.com/heyjunin/MediaPresso/pkg/format"
	"github.com/heyjunin/MediaPresso/pkg/media"
	"github.com/heyjunin/MediaPresso/pkg/ytdlp"
)

// InfoClient is the part of ytdlp.Client the strategy needs.
type InfoClient interface {
	Available() bool
	Info(ctx context.Context, url string) (*ytdlp.Info, error)
}

// YtDlpStrategy asks yt-dlp for the format list and picks one stream.
type YtDlpStrategy struct {
	client InfoClient
}

func NewYtDlpStrategy(client InfoClient) *YtDlpStrategy {
	return &YtDlpStrategy{client: client}
}

func (s *YtDlpStrategy) Name() string { return StrategyYtDlp }

func (s *YtDlpStrategy) Available() bool { return s.client.Available() }

// Extract always yields exactly one candidate on success. When no format
// matches, the page URL itself is the candidate's source.
func (s *YtDlpStrategy) Extract(ctx context.Context, url, hint string) media.Outcome {
	info, err := s.client.Info(ctx, url)
	if err != nil {
		return media.Failure(s.Name(), err)
	}

	audio := format.IsAudio(hint)
	selected, ok := ytdlp.SelectFormat(info.Formats, audio)

	c := media.NewCandidate(url, targetFormat(hint, audio))
	if ok && selected.URL != "" {
		c.SourceURL = selected.URL
	}
	c.Title = orDefault(info.Title, "Social Media")
	c.ThumbnailURL = info.Thumbnail
	switch {
	case audio:
		c.Quality = "320kbps"
	case ok && selected.Resolution != "":
		c.Quality = selected.Resolution
	default:
		c.Quality = "1080p"
	}
	return media.Success(s.Name(), c)
}
