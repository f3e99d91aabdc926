package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/heyjunin/MediaPresso/pkg/logger"
	"github.com/heyjunin/MediaPresso/pkg/metrics"
	"github.com/heyjunin/MediaPresso/pkg/server"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := logger.NewLogger()
			m := metrics.New()
			a := build(cfg, log, m)

			if len(cfg.Server.APIKeys) == 0 {
				log.Warn("No API keys configured, /api/v1 is open", "main", nil)
			}

			srv := server.New(server.Options{
				Addr:              cfg.Server.Addr,
				APIKeys:           cfg.Server.APIKeys,
				RequestsPerMinute: cfg.Server.RequestsPerMinute,
				ShutdownTimeout:   cfg.Server.ShutdownTimeout,
				Metrics:           m,
			}, a.extractor, a.pipeline, log)
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}
