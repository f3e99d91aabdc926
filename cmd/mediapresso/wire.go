package main

import (
	"github.com/heyjunin/MediaPresso/pkg/config"
	"github.com/heyjunin/MediaPresso/pkg/delivery"
	"github.com/heyjunin/MediaPresso/pkg/downloader"
	"github.com/heyjunin/MediaPresso/pkg/extractor"
	"github.com/heyjunin/MediaPresso/pkg/logger"
	"github.com/heyjunin/MediaPresso/pkg/metrics"
	"github.com/heyjunin/MediaPresso/pkg/transcoder"
	"github.com/heyjunin/MediaPresso/pkg/ytdlp"
)

type app struct {
	extractor  *extractor.Orchestrator
	pipeline   *delivery.Pipeline
	downloader *downloader.Downloader
	metrics    *metrics.Metrics
}

func build(cfg *config.Config, log logger.Logger, m *metrics.Metrics) *app {
	userAgent := cfg.Extraction.UserAgent
	if userAgent == "" {
		userAgent = extractor.UserAgent
	}

	tool := ytdlp.NewWithDeps(ytdlp.Options{
		Binary:  cfg.Extraction.YtDlpBinary,
		Timeout: cfg.Extraction.ToolTimeout,
		Grace:   cfg.Delivery.KillGrace,
	}, log)

	strategies := map[string]extractor.Strategy{
		extractor.StrategyYtDlp: extractor.NewYtDlpStrategy(tool),
		extractor.StrategyMetadata: extractor.NewMetadataStrategy(extractor.MetadataOptions{
			Timeout:   cfg.Extraction.MetadataTimeout,
			UserAgent: userAgent,
		}, log),
	}
	routes := extractor.DefaultRoutes()
	if cfg.Extraction.NativeYouTube {
		strategies[extractor.StrategyYouTube] = extractor.NewYouTubeStrategy(
			downloader.NewClient(cfg.Extraction.ToolTimeout, cfg.Delivery.MaxRedirects))
	}

	var hosted extractor.Strategy
	if cfg.Hosted.Enabled {
		hosted = extractor.NewHostedStrategy(extractor.HostedOptions{
			Endpoint:          cfg.Hosted.Endpoint,
			VideoQuality:      cfg.Hosted.VideoQuality,
			APIKey:            cfg.Hosted.APIKey,
			RequestsPerSecond: cfg.Hosted.RequestsPerSecond,
			Timeout:           cfg.Hosted.Timeout,
			UserAgent:         userAgent,
		}, log)
	}

	orch := extractor.New(extractor.Options{
		Strategies:       strategies,
		Routes:           routes,
		Hosted:           hosted,
		StrictExtraction: cfg.Extraction.StrictExtraction,
		Metrics:          m,
	}, log)

	dl := downloader.NewWithDeps(downloader.Options{
		Timeout:      cfg.Delivery.MediaTimeout,
		MaxRedirects: cfg.Delivery.MaxRedirects,
		UserAgent:    userAgent,
	}, log)

	pipeline := delivery.New(delivery.Options{
		Fetcher: dl,
		Tool:    tool,
		Transcoder: transcoder.NewWithDeps(transcoder.Options{
			FFmpegBinary: cfg.Delivery.FFmpegBinary,
			AudioBitrate: cfg.Delivery.AudioBitrate,
			Grace:        cfg.Delivery.KillGrace,
		}, log),
		Resolver: orch,
		Metrics:  m,
	}, log)

	return &app{
		extractor:  orch,
		pipeline:   pipeline,
		downloader: dl,
		metrics:    m,
	}
}
