package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heyjunin/MediaPresso/pkg/config"
	"github.com/heyjunin/MediaPresso/pkg/logger"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("MEDIAPRESSO_HOSTED_ENABLED", "false")
	t.Setenv("MEDIAPRESSO_YTDLP_BINARY", "mediapresso-missing-ytdlp")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func TestBuildWiresEveryPlatform(t *testing.T) {
	cfg := config.Default()
	cfg.Hosted.Enabled = false
	a := build(cfg, logger.Nop{}, nil)
	require.NotNil(t, a.extractor)
	require.NotNil(t, a.pipeline)
	assert.Len(t, a.extractor.Platforms(), 5)
}

func TestExtractUnsupportedPlatform(t *testing.T) {
	out, err := run(t, "extract", "https://example.com/page")
	require.Error(t, err)

	var res map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, false, res["success"])
	assert.Equal(t, "unknown", res["platform"])
	assert.Equal(t, []interface{}{}, res["results"])
}

func TestExtractRejectsUnknownFormat(t *testing.T) {
	_, err := run(t, "extract", "https://www.youtube.com/watch?v=x", "--format", "exe")
	assert.Error(t, err)
}

func TestFetchDirect(t *testing.T) {
	payload := strings.Repeat("m", 4096)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = io.WriteString(w, payload)
	}))
	defer ts.Close()

	dir := t.TempDir()
	out, err := run(t, "fetch", ts.URL+"/v", "--filename", "clip.mp4", "--output", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "clip.mp4")

	data, err := os.ReadFile(filepath.Join(dir, "clip.mp4"))
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))
}

func TestFetchRaw(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "raw bytes")
	}))
	defer ts.Close()

	target := filepath.Join(t.TempDir(), "nested", "file.bin")
	_, err := run(t, "fetch", ts.URL, "--raw", "--output", target)
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "raw bytes", string(data))
}

func TestFetchUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	_, err := run(t, "fetch", ts.URL+"/missing.mp4", "--output", t.TempDir())
	assert.Error(t, err)
}
