// Package server exposes the extraction orchestrator and the delivery
// pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/heyjunin/MediaPresso/pkg/delivery"
	"github.com/heyjunin/MediaPresso/pkg/logger"
	"github.com/heyjunin/MediaPresso/pkg/media"
	"github.com/heyjunin/MediaPresso/pkg/metrics"
	"github.com/heyjunin/MediaPresso/pkg/platform"
)

const component = "server"

// Extractor turns a page URL into candidates.
type Extractor interface {
	Extract(ctx context.Context, url, hint string) media.Outcome
	Platforms() []platform.Platform
}

// Deliverer opens an outbound media stream.
type Deliverer interface {
	Deliver(ctx context.Context, req media.DeliveryRequest) (*delivery.Response, error)
}

// Options configures a Server.
type Options struct {
	Addr string
	// APIKeys accepted in x-api-key. Empty disables the check.
	APIKeys []string
	// RequestsPerMinute is a global limit on /api/v1. Zero disables it.
	RequestsPerMinute int
	ShutdownTimeout   time.Duration
	Metrics           *metrics.Metrics
}

// Server is the HTTP front door.
type Server struct {
	options   Options
	extractor Extractor
	deliverer Deliverer
	logger    logger.Logger
	keys      map[string]struct{}
	limiter   *rate.Limiter
}

// New creates a Server.
func New(options Options, ext Extractor, del Deliverer, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop{}
	}
	if options.ShutdownTimeout <= 0 {
		options.ShutdownTimeout = 15 * time.Second
	}
	s := &Server{
		options:   options,
		extractor: ext,
		deliverer: del,
		logger:    log,
		keys:      make(map[string]struct{}, len(options.APIKeys)),
	}
	for _, k := range options.APIKeys {
		s.keys[k] = struct{}{}
	}
	if options.RequestsPerMinute > 0 {
		every := time.Minute / time.Duration(options.RequestsPerMinute)
		s.limiter = rate.NewLimiter(rate.Every(every), options.RequestsPerMinute)
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.options.Metrics != nil {
		r.Handle("/metrics", s.options.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.requestID, s.accessLog, s.authenticate, s.rateLimit)
		r.Get("/list", s.handleList)
		r.Get("/convert", s.handleConvertInfo)
		r.Post("/convert", s.handleConvert)
		r.Get("/download", s.handleDownload)
	})
	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.options.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", component, map[string]interface{}{"addr": s.options.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server", component, nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		// downloads still streaming
		_ = srv.Close()
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
