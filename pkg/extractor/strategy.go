// Package extractor resolves platform page URLs into ranked media candidates.
package extractor

import (
	"context"
	"fmt"

	"github.com/heyjunin/MediaPresso/pkg/errors"
	"github.com/heyjunin/MediaPresso/pkg/format"
	"github.com/heyjunin/MediaPresso/pkg/media"
	"github.com/heyjunin/MediaPresso/pkg/platform"
)

// Strategy names used in routes.
const (
	StrategyMetadata = "metadata"
	StrategyYtDlp    = "ytdlp"
	StrategyYouTube  = "youtube"
	StrategyHosted   = "hosted"
	StrategyFallback = "fallback"
)

// UserAgent is sent on every page and service request.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/110.0.0.0 Safari/537.36"

// Strategy resolves a URL into candidates. Implementations report failure
// through the outcome, never by panicking.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, url, hint string) media.Outcome
}

// Availability is implemented by strategies that depend on something that
// may be missing at runtime, such as an external binary.
type Availability interface {
	Available() bool
}

func available(s Strategy) bool {
	if a, ok := s.(Availability); ok {
		return a.Available()
	}
	return true
}

// safeExtract runs s and turns a panic into a failed outcome.
func safeExtract(ctx context.Context, s Strategy, url, hint string) (out media.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = media.Failure(s.Name(), errors.New(errors.ExtractionFailure,
				errors.GetErrorMessage(errors.ErrStrategyPanic), fmt.Sprint(r), errors.ErrStrategyPanic))
		}
	}()
	out = s.Extract(ctx, url, hint)
	if out.Strategy == "" {
		out.Strategy = s.Name()
	}
	return out
}

// targetFormat returns hint when it names a format of the wanted kind, else
// the default token for that kind.
func targetFormat(hint string, audio bool) string {
	if audio {
		if format.IsAudio(hint) {
			return hint
		}
		return "mp3"
	}
	if format.IsVideo(hint) {
		return hint
	}
	return "mp4"
}

// Fallback is the degraded result: a single candidate echoing the input URL.
func Fallback(url, hint string, p platform.Platform) media.Candidate {
	f := hint
	if f == "" {
		f = "mp4"
	}
	c := media.NewCandidate(url, f)
	c.Title = p.Title() + " Media"
	return c
}

// Override replaces the previous result with the hosted candidate, keeping
// the previous title and thumbnail when the hosted result has none.
func Override(previous []media.Candidate, hosted media.Candidate) []media.Candidate {
	c := hosted
	if c.Title == "" {
		if len(previous) > 0 && previous[0].Title != "" {
			c.Title = previous[0].Title
		} else {
			c.Title = "Extracted Media"
		}
	}
	if c.ThumbnailURL == "" && len(previous) > 0 {
		c.ThumbnailURL = previous[0].ThumbnailURL
	}
	return []media.Candidate{c}
}
