package extractor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/heyjunin/MediaPresso/pkg/errors"
	"github.com/heyjunin/MediaPresso/pkg/format"
	"github.com/heyjunin/MediaPresso/pkg/logger"
	"github.com/heyjunin/MediaPresso/pkg/media"
	"github.com/heyjunin/MediaPresso/pkg/platform"
)

// maxPageSize caps how much of a page is parsed.
const maxPageSize = 5 << 20

// MetadataOptions configures MetadataStrategy.
type MetadataOptions struct {
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
}

// MetadataStrategy reads social preview tags (og:*) from the page itself.
type MetadataStrategy struct {
	options MetadataOptions
	logger  logger.Logger
}

// NewMetadataStrategy creates the strategy. The timeout defaults to 10s.
func NewMetadataStrategy(options MetadataOptions, log logger.Logger) *MetadataStrategy {
	if options.Timeout == 0 {
		options.Timeout = 10 * time.Second
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
	return &MetadataStrategy{options: options, logger: log}
}

func (s *MetadataStrategy) Name() string { return StrategyMetadata }

func (s *MetadataStrategy) Extract(ctx context.Context, pageURL, hint string) media.Outcome {
	ctx, cancel := context.WithTimeout(ctx, s.options.Timeout)
	defer cancel()

	doc, err := s.fetch(ctx, pageURL)
	if err != nil {
		return media.Failure(s.Name(), err)
	}

	title := strings.TrimSpace(meta(doc, "og:title"))
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	label := platform.Resolve(pageURL).Title()

	var image, video []media.Candidate
	if src := absolute(pageURL, meta(doc, "og:image")); src != "" {
		c := media.NewCandidate(src, "jpg")
		c.Title = orDefault(title, label+" Image")
		image = append(image, c)
	}
	if src := absolute(pageURL, meta(doc, "og:video", "og:video:secure_url", "og:video:url")); src != "" {
		c := media.NewCandidate(src, targetFormat(hint, false))
		c.Title = orDefault(title, label+" Video")
		if len(image) > 0 {
			c.ThumbnailURL = image[0].SourceURL
		}
		video = append(video, c)
	}

	s.logger.Debug("Page metadata parsed", "metadata", map[string]interface{}{
		"url":    pageURL,
		"images": len(image),
		"videos": len(video),
	})

	// candidates matching the requested kind come first
	var candidates []media.Candidate
	switch format.Classify(hint).Kind {
	case format.KindVideo, format.KindAudio:
		candidates = append(video, image...)
	default:
		candidates = append(image, video...)
	}
	return media.Success(s.Name(), candidates...)
}

func (s *MetadataStrategy) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ValidationError, errors.GetErrorMessage(errors.ErrInvalidURL), errors.ErrInvalidURL)
	}
	req.Header.Set("User-Agent", s.options.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.options.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.UpstreamFetchError, errors.GetErrorMessage(errors.ErrMetadataFetch), errors.ErrUpstreamRequest)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.New(errors.UpstreamFetchError, errors.GetErrorMessage(errors.ErrMetadataFetch),
			fmt.Sprintf("status %d", resp.StatusCode), errors.ErrUpstreamStatus)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, errors.Wrap(err, errors.ExtractionFailure, errors.GetErrorMessage(errors.ErrMetadataFetch), errors.ErrMetadataFetch)
	}
	return doc, nil
}

// meta returns the content of the first meta tag, by property or name, that
// is present and non-empty.
func meta(doc *goquery.Document, keys ...string) string {
	for _, key := range keys {
		sel := fmt.Sprintf(`meta[property=%q], meta[name=%q]`, key, key)
		if v, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func absolute(base, ref string) string {
	if ref == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return b.ResolveReference(r).String()
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
