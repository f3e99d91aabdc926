package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 60, cfg.Server.RequestsPerMinute)
	assert.Equal(t, 5, cfg.Delivery.MaxRedirects)
	assert.Equal(t, "192k", cfg.Delivery.AudioBitrate)
	assert.Equal(t, 30*time.Minute, cfg.Delivery.MediaTimeout)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mediapresso.toml")
	content := `
[server]
addr = ":9090"
api_keys = ["from-file"]

[extraction]
tool_timeout = "45s"
strict_extraction = true

[delivery]
media_timeout = "10m"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("API_KEYS", "key-1, key-2,")
	t.Setenv("MEDIAPRESSO_FFMPEG_BINARY", "/opt/ffmpeg")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"key-1", "key-2"}, cfg.Server.APIKeys)
	assert.Equal(t, 45*time.Second, cfg.Extraction.ToolTimeout)
	assert.True(t, cfg.Extraction.StrictExtraction)
	assert.Equal(t, 10*time.Minute, cfg.Delivery.MediaTimeout)
	assert.Equal(t, "/opt/ffmpeg", cfg.Delivery.FFmpegBinary)
	// valores não definidos mantêm o padrão
	assert.Equal(t, 10*time.Second, cfg.Extraction.MetadataTimeout)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestLoadRejectsBadEnv(t *testing.T) {
	t.Setenv("MEDIAPRESSO_HOSTED_ENABLED", "maybe")
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "chatty"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Delivery.MediaTimeout = 5 * time.Second
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Hosted.Endpoint = "ftp://nope"
	assert.Error(t, cfg.Validate())
}
