// Package config loads the immutable process configuration: defaults, then an
// optional TOML file, then environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
)

// Config holds all application configuration.
type Config struct {
	Server     Server     `toml:"server"`
	Log        Log        `toml:"log"`
	Extraction Extraction `toml:"extraction"`
	Hosted     Hosted     `toml:"hosted"`
	Delivery   Delivery   `toml:"delivery"`
}

// Server configures the HTTP front door.
type Server struct {
	Addr string `toml:"addr"`
	// APIKeys accepted in the x-api-key header. Empty disables the check.
	APIKeys           []string      `toml:"api_keys"`
	RequestsPerMinute int           `toml:"requests_per_minute"`
	ShutdownTimeout   time.Duration `toml:"shutdown_timeout"`
}

type Log struct {
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"`
}

// Extraction configures the strategies.
type Extraction struct {
	YtDlpBinary      string        `toml:"ytdlp_binary"`
	ToolTimeout      time.Duration `toml:"tool_timeout"`
	MetadataTimeout  time.Duration `toml:"metadata_timeout"`
	StrictExtraction bool          `toml:"strict_extraction"`
	UserAgent        string        `toml:"user_agent"`
	// NativeYouTube enables the built-in YouTube client strategy.
	NativeYouTube bool `toml:"native_youtube"`
}

// Hosted configures the cobalt-compatible resolution service.
type Hosted struct {
	Enabled           bool          `toml:"enabled"`
	Endpoint          string        `toml:"endpoint"`
	APIKey            string        `toml:"api_key"`
	VideoQuality      string        `toml:"video_quality"`
	RequestsPerSecond int           `toml:"requests_per_second"`
	Timeout           time.Duration `toml:"timeout"`
}

// Delivery configures fetching and transcoding.
type Delivery struct {
	FFmpegBinary string        `toml:"ffmpeg_binary"`
	AudioBitrate string        `toml:"audio_bitrate"`
	MaxRedirects int           `toml:"max_redirects"`
	MediaTimeout time.Duration `toml:"media_timeout"`
	KillGrace    time.Duration `toml:"kill_grace"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:              ":8080",
			RequestsPerMinute: 60,
			ShutdownTimeout:   15 * time.Second,
		},
		Log: Log{Level: "info"},
		Extraction: Extraction{
			YtDlpBinary:     "yt-dlp",
			ToolTimeout:     2 * time.Minute,
			MetadataTimeout: 10 * time.Second,
			NativeYouTube:   true,
		},
		Hosted: Hosted{
			Enabled:           true,
			Endpoint:          "https://api.cobalt.tools/api/json",
			VideoQuality:      "1080",
			RequestsPerSecond: 5,
			Timeout:           30 * time.Second,
		},
		Delivery: Delivery{
			FFmpegBinary: "ffmpeg",
			AudioBitrate: "192k",
			MaxRedirects: 5,
			MediaTimeout: 30 * time.Minute,
			KillGrace:    2 * time.Second,
		},
	}
}

// Load builds the configuration. path may be empty; a named file that does
// not exist is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	var err error
	boolean := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" && err == nil {
			b, perr := strconv.ParseBool(v)
			if perr != nil {
				err = fmt.Errorf("%s: %w", key, perr)
				return
			}
			*dst = b
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok && v != "" && err == nil {
			n, perr := strconv.Atoi(v)
			if perr != nil {
				err = fmt.Errorf("%s: %w", key, perr)
				return
			}
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok && v != "" && err == nil {
			d, perr := time.ParseDuration(v)
			if perr != nil {
				err = fmt.Errorf("%s: %w", key, perr)
				return
			}
			*dst = d
		}
	}

	str("MEDIAPRESSO_ADDR", &c.Server.Addr)
	if v, ok := os.LookupEnv("API_KEYS"); ok {
		c.Server.APIKeys = splitList(v)
	}
	if v, ok := os.LookupEnv("MEDIAPRESSO_API_KEYS"); ok {
		c.Server.APIKeys = splitList(v)
	}
	integer("MEDIAPRESSO_REQUESTS_PER_MINUTE", &c.Server.RequestsPerMinute)

	str("MEDIAPRESSO_LOG_LEVEL", &c.Log.Level)
	boolean("MEDIAPRESSO_LOG_PRETTY", &c.Log.Pretty)

	str("MEDIAPRESSO_YTDLP_BINARY", &c.Extraction.YtDlpBinary)
	duration("MEDIAPRESSO_TOOL_TIMEOUT", &c.Extraction.ToolTimeout)
	boolean("MEDIAPRESSO_STRICT_EXTRACTION", &c.Extraction.StrictExtraction)
	boolean("MEDIAPRESSO_NATIVE_YOUTUBE", &c.Extraction.NativeYouTube)

	boolean("MEDIAPRESSO_HOSTED_ENABLED", &c.Hosted.Enabled)
	str("MEDIAPRESSO_HOSTED_ENDPOINT", &c.Hosted.Endpoint)
	str("MEDIAPRESSO_HOSTED_API_KEY", &c.Hosted.APIKey)

	str("MEDIAPRESSO_FFMPEG_BINARY", &c.Delivery.FFmpegBinary)
	str("MEDIAPRESSO_AUDIO_BITRATE", &c.Delivery.AudioBitrate)
	duration("MEDIAPRESSO_MEDIA_TIMEOUT", &c.Delivery.MediaTimeout)
	return err
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}
	if c.Server.RequestsPerMinute < 0 {
		return fmt.Errorf("server.requests_per_minute must not be negative")
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level %q: %w", c.Log.Level, err)
	}
	if c.Extraction.YtDlpBinary == "" {
		return fmt.Errorf("extraction.ytdlp_binary cannot be empty")
	}
	if c.Extraction.ToolTimeout <= 0 || c.Extraction.MetadataTimeout <= 0 {
		return fmt.Errorf("extraction timeouts must be positive")
	}
	if c.Hosted.Enabled && !strings.HasPrefix(c.Hosted.Endpoint, "http") {
		return fmt.Errorf("hosted.endpoint %q is not an http(s) URL", c.Hosted.Endpoint)
	}
	if c.Delivery.FFmpegBinary == "" {
		return fmt.Errorf("delivery.ffmpeg_binary cannot be empty")
	}
	if c.Delivery.MaxRedirects < 0 || c.Delivery.MaxRedirects > 20 {
		return fmt.Errorf("delivery.max_redirects must be between 0 and 20")
	}
	if c.Delivery.MediaTimeout < time.Minute {
		return fmt.Errorf("delivery.media_timeout must be at least one minute")
	}
	return nil
}
