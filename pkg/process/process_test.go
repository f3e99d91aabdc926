package process

import (
	"bufio"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/heyjunin/MediaPresso/internal/testutil"
	"github.com/heyjunin/MediaPresso/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamReadsStdout(t *testing.T) {
	script := testutil.Script(t, "tool", `printf 'hello world'`)

	s, err := Start(context.Background(), Options{}, script)
	require.NoError(t, err)
	defer s.Close()

	out, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(out))

	select {
	case <-s.Done():
	default:
		t.Fatal("process should be reaped after EOF")
	}
}

func TestStreamExitErrorCarriesStderr(t *testing.T) {
	script := testutil.Script(t, "tool", "echo 'ERROR: unsupported url' >&2\nexit 3")
	log := &testutil.Logger{}

	s, err := Start(context.Background(), Options{Logger: log, Component: "ytdlp"}, script)
	require.NoError(t, err)
	defer s.Close()

	_, err = io.ReadAll(s)
	require.Error(t, err)
	assert.Equal(t, errors.SubprocessError, errors.TypeOf(err))
	assert.Contains(t, err.Error(), "unsupported url")
	assert.True(t, log.Has("debug", "ERROR: unsupported url"))
}

func TestStreamOnExitMapsError(t *testing.T) {
	script := testutil.Script(t, "tool", "exit 1")

	s, err := Start(context.Background(), Options{
		OnExit: func(err error, stderr string) error {
			return errors.Wrap(err, errors.TranscodeError, "transcoder failed", errors.ErrTranscoderExit)
		},
	}, script)
	require.NoError(t, err)
	defer s.Close()

	_, err = io.ReadAll(s)
	assert.Equal(t, errors.TranscodeError, errors.TypeOf(err))
}

func TestStreamCopiesStdin(t *testing.T) {
	script := testutil.Script(t, "tool", "cat")

	s, err := Start(context.Background(), Options{Stdin: strings.NewReader("piped bytes")}, script)
	require.NoError(t, err)
	defer s.Close()

	out, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, "piped bytes", string(out))
}

func TestStartMissingBinary(t *testing.T) {
	_, err := Start(context.Background(), Options{}, "mediapresso-no-such-tool")
	require.Error(t, err)
	se, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrToolMissing, se.Code)
}

func TestCloseKillsRunningProcess(t *testing.T) {
	script := testutil.Script(t, "tool", "echo started\nsleep 30\necho never")

	s, err := Start(context.Background(), Options{Grace: 500 * time.Millisecond}, script)
	require.NoError(t, err)

	line, err := bufio.NewReader(s).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "started\n", line)

	pid := s.Pid()
	require.True(t, Alive(pid))

	closed := make(chan struct{})
	go func() {
		_ = s.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(3 * time.Second):
		t.Fatal("Close did not return within the grace period")
	}
	<-s.Done()
	assert.False(t, Alive(pid))
}

func TestContextCancelEndsStream(t *testing.T) {
	script := testutil.Script(t, "tool", "sleep 30")
	ctx, cancel := context.WithCancel(context.Background())

	s, err := Start(ctx, Options{Grace: 500 * time.Millisecond}, script)
	require.NoError(t, err)
	defer s.Close()

	time.AfterFunc(100*time.Millisecond, cancel)

	_, err = io.ReadAll(s)
	assert.ErrorIs(t, err, context.Canceled)

	select {
	case <-s.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("process not reaped after cancel")
	}
}

func TestLineWriterKeepsTail(t *testing.T) {
	w := newLineWriter(&testutil.Logger{}, "ffmpeg")
	for i := 0; i < tailLines+5; i++ {
		_, _ = w.Write([]byte("line\n"))
	}
	_, _ = w.Write([]byte("last"))
	tail := strings.Split(w.Tail(), "\n")
	assert.Len(t, tail, tailLines+1)
	assert.Equal(t, "last", tail[len(tail)-1])
}
