// Package media holds the request-scoped value types shared by extraction
// and delivery.
package media

import (
	"github.com/heyjunin/MediaPresso/pkg/errors"
	"github.com/heyjunin/MediaPresso/pkg/format"
)

// Candidate is one retrievable media asset.
type Candidate struct {
	SourceURL    string      `json:"url"`
	Kind         format.Kind `json:"type"`
	Format       string      `json:"format"`
	Title        string      `json:"title,omitempty"`
	ThumbnailURL string      `json:"thumbnail,omitempty"`
	Quality      string      `json:"quality,omitempty"`
}

// NewCandidate builds a candidate whose kind is derived from formatToken.
func NewCandidate(sourceURL, formatToken string) Candidate {
	return Candidate{
		SourceURL: sourceURL,
		Kind:      format.Classify(formatToken).Kind,
		Format:    formatToken,
	}
}

// Validate checks that the candidate has a URL and that its kind agrees
// with its format.
func (c Candidate) Validate() error {
	if c.SourceURL == "" {
		return errors.New(errors.ValidationError, "Candidate has no URL", "", errors.ErrMissingURL)
	}
	if c.Format == "" {
		return errors.New(errors.ValidationError, "Candidate has no format", "", errors.ErrUnsupportedFormat)
	}
	if want := format.Classify(c.Format).Kind; c.Kind != want {
		return errors.Newf(errors.ValidationError, errors.ErrUnsupportedFormat,
			"format %q is %s, candidate says %s", c.Format, want, c.Kind)
	}
	return nil
}

// Outcome is the result of an extraction: either a non-empty ordered list of
// candidates or an error.
type Outcome struct {
	Candidates []Candidate
	Err        error
	Platform   string
	Strategy   string
	// Degraded is set when the result is the echo fallback.
	Degraded bool
}

// Success wraps candidates. An empty list yields a failure.
func Success(strategy string, candidates ...Candidate) Outcome {
	if len(candidates) == 0 {
		return Failure(strategy, errors.New(errors.ExtractionFailure,
			errors.GetErrorMessage(errors.ErrNoCandidates), strategy, errors.ErrNoCandidates))
	}
	return Outcome{Candidates: candidates, Strategy: strategy}
}

// Failure wraps an extraction error.
func Failure(strategy string, err error) Outcome {
	return Outcome{Err: err, Strategy: strategy}
}

// OK reports whether the outcome carries candidates.
func (o Outcome) OK() bool {
	return o.Err == nil && len(o.Candidates) > 0
}

// First returns the recommended candidate.
func (o Outcome) First() (Candidate, bool) {
	if !o.OK() {
		return Candidate{}, false
	}
	return o.Candidates[0], true
}

// DeliveryRequest describes one outbound stream.
type DeliveryRequest struct {
	SourceURL  string
	Filename   string
	FormatHint string
}
