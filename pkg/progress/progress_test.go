package progress

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporterLifecycle(t *testing.T) {
	r := NewReporter(WithWriter(io.Discard), WithStage("direct"))
	r.Start(100)
	r.Add(40)
	r.Add(60)

	js, err := r.JSON()
	require.NoError(t, err)
	var ev Event
	require.NoError(t, json.Unmarshal([]byte(js), &ev))
	assert.Equal(t, "processing", ev.Status)
	assert.Equal(t, int64(100), ev.Bytes)
	assert.Equal(t, float64(100), ev.Percentage)
	assert.Equal(t, "direct", ev.Stage)

	r.Complete()
	r.Complete()

	var last Event
	for e := range r.Updates() {
		last = e
	}
	assert.Equal(t, "completed", last.Status)
}

func TestReporterUnknownTotal(t *testing.T) {
	r := NewReporter(WithWriter(io.Discard))
	r.Start(-1)
	r.Add(10)
	assert.Equal(t, float64(-1), r.event.Percentage)

	r.Complete()
	assert.Equal(t, int64(10), r.event.Total)
	assert.Equal(t, float64(100), r.event.Percentage)
}

func TestAddBeforeStartIsIgnored(t *testing.T) {
	r := NewReporter(WithWriter(io.Discard))
	r.Add(5)
	assert.Equal(t, int64(0), r.event.Bytes)
}

func TestNewReaderCountsBytes(t *testing.T) {
	r := NewReporter(WithWriter(io.Discard))
	r.Start(11)

	var out bytes.Buffer
	_, err := io.Copy(&out, NewReader(strings.NewReader("hello world"), r))
	require.NoError(t, err)
	assert.Equal(t, "hello world", out.String())
	assert.Equal(t, int64(11), r.event.Bytes)
}

func TestProgressFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	r := NewReporter(WithWriter(io.Discard), WithProgressFile(path))
	r.Start(4)
	r.Add(4)
	r.Complete()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var ev Event
	require.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, "completed", ev.Status)
}
