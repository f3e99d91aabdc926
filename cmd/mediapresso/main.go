package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/heyjunin/MediaPresso/pkg/config"
	"github.com/heyjunin/MediaPresso/pkg/logger"
)

var (
	configPath string
	logLevel   string
	pretty     bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mediapresso",
		Short: "☕ MediaPresso - media extraction and streaming gateway",
		Long: `☕ MediaPresso - Resolves social media page URLs into downloadable media
and streams them to clients, transcoding on the fly when needed.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a TOML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "Human-readable console logs")

	rootCmd.AddCommand(newServeCmd(), newExtractCmd(), newFetchCmd())
	return rootCmd
}

// loadConfig reads .env, the config file and the flag overrides, then sets
// up the global logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	// .env é opcional
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if cmd.Flags().Changed("pretty") {
		cfg.Log.Pretty = pretty
	}
	if err := logger.Init(logger.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty}); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	return cfg, nil
}
