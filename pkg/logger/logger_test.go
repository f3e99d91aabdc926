package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRejectsUnknownLevel(t *testing.T) {
	err := Init(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestDefaultLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Level: "debug", Output: &buf}))
	t.Cleanup(func() { _ = Init(Options{}) })

	base := &DefaultLogger{}
	l := base.With(map[string]interface{}{"request_id": "abc"})
	l.Info("hello", "server", map[string]interface{}{"path": "/x"})

	line := strings.TrimSpace(buf.String())
	var event map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &event))
	assert.Equal(t, "hello", event["message"])
	assert.Equal(t, "server", event["component"])
	assert.Equal(t, "abc", event["request_id"])
	assert.Equal(t, "/x", event["path"])
	assert.Equal(t, "info", event["level"])
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Level: "warn", Output: &buf}))
	t.Cleanup(func() { _ = Init(Options{}) })

	Debug("quiet", "test", nil)
	Info("quiet", "test", nil)
	assert.Empty(t, buf.String())

	Warn("loud", "test", nil)
	assert.Contains(t, buf.String(), "loud")
}
