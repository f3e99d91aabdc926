package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/heyjunin/MediaPresso/pkg/errors"
	"github.com/heyjunin/MediaPresso/pkg/format"
	"github.com/heyjunin/MediaPresso/pkg/media"
)

type convertRequest struct {
	URL    string `json:"url"`
	Format string `json:"format"`
}

type convertResponse struct {
	Success   bool              `json:"success"`
	Platform  string            `json:"platform"`
	Format    string            `json:"format"`
	Results   []media.Candidate `json:"results"`
	Degraded  bool              `json:"degraded,omitempty"`
	Timestamp string            `json:"timestamp"`
}

type endpoint struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

var manifest = []endpoint{
	{http.MethodPost, "/api/v1/convert", "Extract downloadable media candidates from a page URL"},
	{http.MethodGet, "/api/v1/convert", "Service status and supported platforms"},
	{http.MethodGet, "/api/v1/download", "Stream media as an attachment, transcoding when needed"},
	{http.MethodGet, "/api/v1/list", "List available endpoints"},
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"total_apis": len(manifest),
		"apis":       manifest,
	})
}

func (s *Server) handleConvertInfo(w http.ResponseWriter, _ *http.Request) {
	platforms := s.extractor.Platforms()
	names := make([]string, 0, len(platforms))
	for _, p := range platforms {
		names = append(names, p.String())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":                 "Media API is running",
		"supported_platforms":     names,
		"total_formats_supported": len(format.Supported()),
	})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(err, errors.ValidationError, "Invalid JSON body", errors.ErrInvalidURL))
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		s.writeError(w, errors.New(errors.ValidationError, errors.GetErrorMessage(errors.ErrMissingURL), "", errors.ErrMissingURL))
		return
	}
	if req.Format != "" && !format.IsSupported(req.Format) {
		s.writeError(w, errors.Newf(errors.ValidationError, errors.ErrUnsupportedFormat, "Format %s is not supported", req.Format))
		return
	}

	out := s.extractor.Extract(r.Context(), req.URL, req.Format)
	if out.Err != nil {
		s.requestLogger(r).Warn("Extraction failed", component, map[string]interface{}{
			"url":      req.URL,
			"platform": out.Platform,
			"error":    out.Err.Error(),
		})
		if se, ok := errors.As(out.Err); ok && se.Platform == "" && out.Platform != "" {
			se.Platform = out.Platform
		}
		s.writeError(w, out.Err)
		return
	}

	results := out.Candidates
	if results == nil {
		results = []media.Candidate{}
	}
	respFormat := req.Format
	if respFormat == "" {
		respFormat = "original"
	}
	writeJSON(w, http.StatusOK, convertResponse{
		Success:   true,
		Platform:  out.Platform,
		Format:    respFormat,
		Results:   results,
		Degraded:  out.Degraded,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	source := strings.TrimSpace(q.Get("url"))
	if source == "" {
		s.writeError(w, errors.New(errors.ValidationError, errors.GetErrorMessage(errors.ErrMissingURL), "", errors.ErrMissingURL))
		return
	}

	resp, err := s.deliverer.Deliver(r.Context(), media.DeliveryRequest{
		SourceURL:  source,
		Filename:   q.Get("filename"),
		FormatHint: q.Get("format"),
	})
	if err != nil {
		s.requestLogger(r).Error("Delivery failed", component, map[string]interface{}{
			"url":   source,
			"error": err.Error(),
		})
		s.writeError(w, err)
		return
	}
	defer resp.Close()

	for k, v := range resp.Header() {
		w.Header()[k] = v
	}
	w.WriteHeader(http.StatusOK)

	n, err := resp.Stream(w)
	if err != nil {
		// headers are gone; the client sees a truncated body
		s.requestLogger(r).Warn("Stream ended early", component, map[string]interface{}{
			"path":  resp.Path,
			"bytes": n,
			"error": err.Error(),
		})
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	body := map[string]interface{}{"success": false}
	se, ok := errors.As(err)
	if !ok {
		body["error"] = err.Error()
		writeJSON(w, errors.HTTPStatus(err), body)
		return
	}
	body["error"] = se.Message
	body["type"] = se.Type
	body["code"] = se.Code
	if se.Details != "" {
		body["details"] = se.Details
	}
	if se.Platform != "" {
		body["platform"] = se.Platform
	}
	writeJSON(w, errors.HTTPStatus(err), body)
}
