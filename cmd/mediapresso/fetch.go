package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/heyjunin/MediaPresso/pkg/errors"
	"github.com/heyjunin/MediaPresso/pkg/logger"
	"github.com/heyjunin/MediaPresso/pkg/media"
	"github.com/heyjunin/MediaPresso/pkg/progress"
)

func newFetchCmd() *cobra.Command {
	var (
		filename     string
		outputPath   string
		hint         string
		raw          bool
		progressFile string
	)

	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Download media to a local file through the delivery pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := logger.NewLogger()
			a := build(cfg, log, nil)

			var opts []progress.ReporterOption
			if progressFile != "" {
				opts = append(opts, progress.WithProgressFile(progressFile))
			}

			// --raw salva a URL como está, sem resolução nem transcodificação
			if raw {
				if outputPath == "" {
					outputPath = filename
				}
				if outputPath == "" {
					outputPath = "download"
				}
				reporter := progress.NewReporter(append(opts, progress.WithDescription(filepath.Base(outputPath)))...)
				n, err := a.downloader.Download(ctx, args[0], outputPath, reporter)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes)\n", outputPath, n)
				return nil
			}

			resp, err := a.pipeline.Deliver(ctx, media.DeliveryRequest{
				SourceURL:  args[0],
				Filename:   filename,
				FormatHint: hint,
			})
			if err != nil {
				return err
			}
			defer resp.Close()

			if outputPath == "" {
				outputPath = resp.Filename
			} else if info, statErr := os.Stat(outputPath); statErr == nil && info.IsDir() {
				outputPath = filepath.Join(outputPath, resp.Filename)
			}

			file, err := os.Create(outputPath)
			if err != nil {
				return errors.Wrap(err, errors.UpstreamFetchError, "Failed to create output file", errors.ErrUpstreamWrite)
			}
			defer file.Close()

			reporter := progress.NewReporter(append(opts,
				progress.WithDescription(filepath.Base(outputPath)),
				progress.WithStage(resp.Path))...)
			reporter.Start(resp.ContentLength)
			resp.Body = progress.NewReader(resp.Body, reporter)

			n, err := resp.Stream(file)
			if err != nil {
				return err
			}
			reporter.Complete()

			log.Info("Fetch completed", "main", map[string]interface{}{
				"path":  outputPath,
				"bytes": n,
				"via":   resp.Path,
			})
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes)\n", outputPath, n)
			return nil
		},
	}
	cmd.Flags().StringVar(&filename, "filename", "", "Suggested file name; its extension selects the target format")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file or directory")
	cmd.Flags().StringVarP(&hint, "format", "f", "", "Target format when the file name has no extension")
	cmd.Flags().BoolVar(&raw, "raw", false, "Save the URL as-is without resolution or transcoding")
	cmd.Flags().StringVar(&progressFile, "progress-file", "", "Write progress events as JSON to this file")
	return cmd
}
