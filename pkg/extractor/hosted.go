package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/ratelimit"

	"github.com/heyjunin/MediaPresso/pkg/errors"
	"github.com/heyjunin/MediaPresso/pkg/format"
	"github.com/heyjunin/MediaPresso/pkg/logger"
	"github.com/heyjunin/MediaPresso/pkg/media"
)

// HostedOptions configures the hosted resolution service client.
type HostedOptions struct {
	Endpoint     string
	VideoQuality string
	// APIKey is sent as "Authorization: Api-Key <key>" when set.
	APIKey            string
	RequestsPerSecond int
	Timeout           time.Duration
	UserAgent         string
	HTTPClient        *http.Client
}

// HostedStrategy posts the page URL to a cobalt-compatible service that
// answers with a direct media URL.
type HostedStrategy struct {
	options HostedOptions
	limiter ratelimit.Limiter
	logger  logger.Logger
}

type hostedRequest struct {
	URL               string `json:"url"`
	VideoQuality      string `json:"videoQuality"`
	AudioFormat       string `json:"audioFormat"`
	IsAudioOnly       bool   `json:"isAudioOnly"`
	FilenamePattern   string `json:"filenamePattern"`
	TwitterGif        bool   `json:"twitterGif"`
	YoutubeVideoCodec string `json:"youtubeVideoCodec"`
}

type hostedResponse struct {
	Status   string `json:"status"`
	URL      string `json:"url"`
	Text     string `json:"text"`
	Filename string `json:"filename"`
}

// NewHostedStrategy creates the strategy with defaults filled in.
func NewHostedStrategy(options HostedOptions, log logger.Logger) *HostedStrategy {
	if options.Endpoint == "" {
		options.Endpoint = "https://api.cobalt.tools/api/json"
	}
	if options.VideoQuality == "" {
		options.VideoQuality = "1080"
	}
	if options.RequestsPerSecond <= 0 {
		options.RequestsPerSecond = 5
	}
	if options.Timeout == 0 {
		options.Timeout = 30 * time.Second
	}
	if options.UserAgent == "" {
		options.UserAgent = UserAgent
	}
	if options.HTTPClient == nil {
		options.HTTPClient = &http.Client{}
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &HostedStrategy{
		options: options,
		limiter: ratelimit.New(options.RequestsPerSecond),
		logger:  log,
	}
}

func (s *HostedStrategy) Name() string { return StrategyHosted }

func (s *HostedStrategy) Extract(ctx context.Context, url, hint string) media.Outcome {
	direct, err := s.resolve(ctx, url, hint)
	if err != nil {
		return media.Failure(s.Name(), err)
	}

	audio := format.IsAudio(hint)
	c := media.NewCandidate(direct, targetFormat(hint, audio))
	if audio {
		c.Quality = "320kbps"
	} else {
		c.Quality = "1080p Full HD"
	}
	return media.Success(s.Name(), c)
}

func (s *HostedStrategy) resolve(ctx context.Context, url, hint string) (string, error) {
	audio := format.IsAudio(hint)
	body := hostedRequest{
		URL:               url,
		VideoQuality:      s.options.VideoQuality,
		AudioFormat:       "best",
		IsAudioOnly:       audio,
		FilenamePattern:   "basic",
		TwitterGif:        true,
		YoutubeVideoCodec: "h264",
	}
	if audio && hint == "mp3" {
		body.AudioFormat = "mp3"
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", errors.Wrap(err, errors.ExtractionFailure, "Failed to encode hosted request", errors.ErrHostedNoURL)
	}

	ctx, cancel := context.WithTimeout(ctx, s.options.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.options.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, errors.ValidationError, "Invalid hosted endpoint", errors.ErrInvalidConfig)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", s.options.UserAgent)
	if s.options.APIKey != "" {
		req.Header.Set("Authorization", "Api-Key "+s.options.APIKey)
	}

	s.limiter.Take()
	resp, err := s.options.HTTPClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, errors.UpstreamFetchError, "Resolution service unreachable", errors.ErrUpstreamRequest)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.Wrap(err, errors.UpstreamFetchError, errors.GetErrorMessage(errors.ErrUpstreamRead), errors.ErrUpstreamRead)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.New(errors.UpstreamFetchError, "Resolution service answered with an error status",
			fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(string(raw), 200)), errors.ErrUpstreamStatus)
	}

	var out hostedResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", errors.Wrap(err, errors.ExtractionFailure, errors.GetErrorMessage(errors.ErrHostedNoURL), errors.ErrHostedNoURL)
	}
	if out.Status == "error" || out.URL == "" {
		return "", errors.New(errors.ExtractionFailure, errors.GetErrorMessage(errors.ErrHostedNoURL), out.Text, errors.ErrHostedNoURL)
	}

	s.logger.Debug("Hosted service resolved URL", StrategyHosted, map[string]interface{}{
		"url":    url,
		"status": out.Status,
	})
	return out.URL, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
