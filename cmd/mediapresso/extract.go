package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/heyjunin/MediaPresso/pkg/errors"
	"github.com/heyjunin/MediaPresso/pkg/format"
	"github.com/heyjunin/MediaPresso/pkg/logger"
	"github.com/heyjunin/MediaPresso/pkg/media"
)

type extractResult struct {
	Success   bool              `json:"success"`
	Platform  string            `json:"platform"`
	Strategy  string            `json:"strategy,omitempty"`
	Degraded  bool              `json:"degraded,omitempty"`
	Results   []media.Candidate `json:"results"`
	Error     interface{}       `json:"error,omitempty"`
	Timestamp string            `json:"timestamp"`
}

func newExtractCmd() *cobra.Command {
	var hint string

	cmd := &cobra.Command{
		Use:   "extract <url>",
		Short: "Print the media candidates found for a page URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if hint != "" && !format.IsSupported(hint) {
				return errors.Newf(errors.ValidationError, errors.ErrUnsupportedFormat, "Format %s is not supported", hint)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a := build(cfg, logger.NewLogger(), nil)
			out := a.extractor.Extract(ctx, args[0], hint)

			res := extractResult{
				Success:   out.OK(),
				Platform:  out.Platform,
				Strategy:  out.Strategy,
				Degraded:  out.Degraded,
				Results:   out.Candidates,
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			}
			if res.Results == nil {
				res.Results = []media.Candidate{}
			}
			if out.Err != nil {
				if se, ok := errors.As(out.Err); ok {
					res.Error = se
				} else {
					res.Error = out.Err.Error()
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if out.Err != nil {
				return out.Err
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&hint, "format", "f", "", "Requested output format (e.g. mp4, mp3)")
	return cmd
}
