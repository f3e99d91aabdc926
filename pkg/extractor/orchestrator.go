package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/heyjunin/MediaPresso/pkg/errors"
	"github.com/heyjunin/MediaPresso/pkg/format"
	"github.com/heyjunin/MediaPresso/pkg/logger"
	"github.com/heyjunin/MediaPresso/pkg/media"
	"github.com/heyjunin/MediaPresso/pkg/metrics"
	"github.com/heyjunin/MediaPresso/pkg/platform"
)

const component = "orchestrator"

// DefaultRoutes lists, per platform, the strategies tried in order.
func DefaultRoutes() map[platform.Platform][]string {
	return map[platform.Platform][]string{
		platform.YouTube:   {StrategyYtDlp, StrategyYouTube, StrategyMetadata},
		platform.Instagram: {StrategyYtDlp, StrategyMetadata},
		platform.TikTok:    {StrategyYtDlp, StrategyMetadata},
		platform.Snapchat:  {StrategyYtDlp, StrategyMetadata},
		platform.LinkedIn:  {StrategyMetadata, StrategyYtDlp},
	}
}

// Options configures an Orchestrator.
type Options struct {
	// Strategies by name. Route entries without a strategy are skipped.
	Strategies map[string]Strategy
	// Routes defaults to DefaultRoutes().
	Routes map[platform.Platform][]string
	// Hosted, when set, runs as an override for social URLs.
	Hosted Strategy
	// StrictExtraction returns ExtractionFailure instead of the echo
	// fallback when every strategy failed.
	StrictExtraction bool
	Metrics          *metrics.Metrics
}

// Orchestrator picks and chains strategies for a URL.
type Orchestrator struct {
	options Options
	logger  logger.Logger
}

// New creates an Orchestrator.
func New(options Options, log logger.Logger) *Orchestrator {
	if options.Routes == nil {
		options.Routes = DefaultRoutes()
	}
	if options.Strategies == nil {
		options.Strategies = map[string]Strategy{}
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Orchestrator{options: options, logger: log}
}

// Platforms lists platforms with at least one routed strategy, in table order.
func (o *Orchestrator) Platforms() []platform.Platform {
	var out []platform.Platform
	for _, p := range platform.Platforms() {
		if len(o.options.Routes[p]) > 0 {
			out = append(out, p)
		}
	}
	return out
}

// Extract resolves url into an ordered candidate list. For a recognised
// platform the result is never a failure unless StrictExtraction is set.
func (o *Orchestrator) Extract(ctx context.Context, url, hint string) media.Outcome {
	p := platform.Resolve(url)
	route := o.options.Routes[p]
	if p == platform.Unknown || len(route) == 0 {
		code := errors.ErrPlatformUnknown
		if p != platform.Unknown {
			code = errors.ErrPlatformNotImplemented
		}
		err := errors.New(errors.UnsupportedPlatform, errors.GetErrorMessage(code), url, code).
			WithPlatform(p.String())
		o.options.Metrics.Extraction(p.String(), "", "unsupported")
		return media.Outcome{Err: err, Platform: p.String()}
	}

	out := o.runRoute(ctx, p, route, url, hint)
	if !out.OK() && !o.options.StrictExtraction {
		out = media.Success(StrategyFallback, Fallback(url, hint, p))
		out.Degraded = true
	}
	out.Platform = p.String()

	// in strict mode a hosted result still rescues a failed route
	if o.options.Hosted != nil && platform.IsSocial(url) {
		if hosted, ok := o.override(ctx, out, url, hint); ok {
			out = hosted
		}
	}
	if !out.OK() {
		return out
	}

	o.logger.Info("Extraction finished", component, map[string]interface{}{
		"url":        url,
		"platform":   out.Platform,
		"strategy":   out.Strategy,
		"candidates": len(out.Candidates),
		"degraded":   out.Degraded,
	})
	return out
}

func (o *Orchestrator) runRoute(ctx context.Context, p platform.Platform, route []string, url, hint string) media.Outcome {
	var errs *multierror.Error
	for _, name := range route {
		s, ok := o.options.Strategies[name]
		if !ok || !available(s) {
			continue
		}
		if ctx.Err() != nil {
			errs = multierror.Append(errs, ctx.Err())
			break
		}

		res := safeExtract(ctx, s, url, hint)
		if res.OK() {
			o.options.Metrics.Extraction(p.String(), name, "success")
			return res
		}
		o.options.Metrics.Extraction(p.String(), name, "failure")
		o.logger.Warn("Strategy failed", component, map[string]interface{}{
			"platform": p.String(),
			"strategy": name,
			"error":    errString(res.Err),
		})
		errs = multierror.Append(errs, res.Err)
	}

	details := "no strategy available"
	if errs != nil {
		details = strings.TrimSpace(errs.Error())
	}
	err := errors.New(errors.ExtractionFailure, errors.GetErrorMessage(errors.ErrStrategiesExhausted), details,
		errors.ErrStrategiesExhausted).WithPlatform(p.String())
	o.logger.Warn("All strategies failed", component, map[string]interface{}{
		"platform": p.String(),
		"error":    err.Error(),
	})
	return media.Failure("", err)
}

// override applies the hosted result on top of out. It reports false when
// the hosted service gave nothing, leaving out as it was.
func (o *Orchestrator) override(ctx context.Context, out media.Outcome, url, hint string) (media.Outcome, bool) {
	res := safeExtract(ctx, o.options.Hosted, url, hint)
	first, ok := res.First()
	if !ok {
		o.options.Metrics.Hosted("failure")
		o.logger.Warn("Hosted override failed", component, map[string]interface{}{
			"url":   url,
			"error": errString(res.Err),
		})
		return out, false
	}
	o.options.Metrics.Hosted("success")
	return media.Outcome{
		Candidates: Override(out.Candidates, first),
		Platform:   out.Platform,
		Strategy:   StrategyHosted,
	}, true
}

// ResolveDirect turns a page URL into a directly fetchable one: first via
// the hosted service, then through route strategies that do not need a
// subprocess. It returns the first candidate URL that differs from url.
func (o *Orchestrator) ResolveDirect(ctx context.Context, url, hint string) (string, error) {
	var errs *multierror.Error
	tried := make([]Strategy, 0, 4)
	if o.options.Hosted != nil {
		tried = append(tried, o.options.Hosted)
	}
	for _, name := range o.options.Routes[platform.Resolve(url)] {
		if name == StrategyYtDlp {
			continue
		}
		if s, ok := o.options.Strategies[name]; ok && available(s) {
			tried = append(tried, s)
		}
	}

	for _, s := range tried {
		res := safeExtract(ctx, s, url, hint)
		if !res.OK() {
			errs = multierror.Append(errs, res.Err)
			continue
		}
		if direct, ok := pickDirect(res.Candidates, url, hint); ok {
			return direct, nil
		}
		errs = multierror.Append(errs, fmt.Errorf("%s: no candidate usable for %q", s.Name(), hint))
	}

	details := "no resolver available"
	if errs != nil {
		details = strings.TrimSpace(errs.Error())
	}
	return "", errors.New(errors.ExtractionFailure, errors.GetErrorMessage(errors.ErrStrategiesExhausted), details,
		errors.ErrStrategiesExhausted).WithPlatform(platform.Resolve(url).String())
}

// wantedKind is the candidate kind a delivery target can be served from.
// Empty means any media, with image as the last resort.
func wantedKind(hint string) format.Kind {
	if strings.TrimSpace(hint) == "" {
		return ""
	}
	switch k := format.Classify(hint).Kind; k {
	case format.KindAudio, format.KindVideo, format.KindImage:
		return k
	}
	return ""
}

// pickDirect chooses a candidate URL other than url. An audio target also
// accepts video, which the transcoder can reduce to audio.
func pickDirect(candidates []media.Candidate, url, hint string) (string, bool) {
	rank := func(k format.Kind) int {
		switch want := wantedKind(hint); want {
		case format.KindAudio:
			switch k {
			case format.KindAudio:
				return 2
			case format.KindVideo:
				return 1
			}
			return 0
		case "":
			switch k {
			case format.KindVideo, format.KindAudio:
				return 2
			case format.KindImage:
				return 1
			}
			return 0
		default:
			if k == want {
				return 2
			}
			return 0
		}
	}

	best, bestRank := "", 0
	for _, c := range candidates {
		if c.SourceURL == "" || c.SourceURL == url {
			continue
		}
		if r := rank(c.Kind); r > bestRank {
			best, bestRank = c.SourceURL, r
		}
	}
	return best, bestRank > 0
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
