// Package process runs external tools (yt-dlp, ffmpeg) as streaming
// subprocesses that are killed with their whole process group on cancel.
package process

import (
	"context"
	stderrors "errors"
	"io"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/heyjunin/MediaPresso/pkg/errors"
	"github.com/heyjunin/MediaPresso/pkg/logger"
)

// DefaultGrace is how long Wait keeps waiting on pipes after the process is
// gone or the context is done.
const DefaultGrace = 2 * time.Second

// Command builds an exec.Cmd that runs in its own process group. Cancelling
// ctx kills the group, not just the direct child.
func Command(ctx context.Context, grace time.Duration, name string, args ...string) *exec.Cmd {
	if grace <= 0 {
		grace = DefaultGrace
	}
	cmd := exec.CommandContext(ctx, name, args...)
	setProcessGroup(cmd)
	cmd.WaitDelay = grace
	return cmd
}

// Options configures Start.
type Options struct {
	Grace     time.Duration
	Logger    logger.Logger
	Component string
	// Stdin, when set, is copied into the process in its own goroutine.
	Stdin io.Reader
	// OnExit converts a failed exit into the caller's error type. stderr is
	// the retained tail of the tool's diagnostics.
	OnExit func(err error, stderr string) error
}

// Stream is a running process whose stdout is read through Read. The
// process is reaped when stdout hits EOF or on Close.
type Stream struct {
	cmd    *exec.Cmd
	ctx    context.Context
	cancel context.CancelFunc
	stdout io.ReadCloser
	stderr *lineWriter
	stdin  *recordingReader
	onExit func(err error, stderr string) error

	closing  atomic.Bool
	waitOnce sync.Once
	waitErr  error
	done     chan struct{}
}

// Start spawns name with args and returns its stdout stream.
func Start(ctx context.Context, opts Options, name string, args ...string) (*Stream, error) {
	if opts.Logger == nil {
		opts.Logger = logger.Nop{}
	}
	if opts.Component == "" {
		opts.Component = name
	}
	if opts.OnExit == nil {
		opts.OnExit = defaultOnExit
	}

	ctx, cancel := context.WithCancel(ctx)
	cmd := Command(ctx, opts.Grace, name, args...)

	s := &Stream{
		cmd:    cmd,
		ctx:    ctx,
		cancel: cancel,
		stderr: newLineWriter(opts.Logger, opts.Component),
		onExit: opts.OnExit,
		done:   make(chan struct{}),
	}
	cmd.Stderr = s.stderr

	var stdinPipe io.WriteCloser
	if opts.Stdin != nil {
		pipe, err := cmd.StdinPipe()
		if err != nil {
			cancel()
			return nil, errors.Wrap(err, errors.SubprocessError, "Failed to create stdin pipe", errors.ErrToolStart)
		}
		stdinPipe = pipe
		s.stdin = &recordingReader{r: opts.Stdin}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, errors.SubprocessError, "Failed to create stdout pipe", errors.ErrToolStart)
	}
	s.stdout = stdout

	opts.Logger.Debug("Starting process", opts.Component, map[string]interface{}{
		"command": name + " " + strings.Join(args, " "),
	})

	if err := cmd.Start(); err != nil {
		cancel()
		if stderrors.Is(err, exec.ErrNotFound) {
			return nil, errors.Wrap(err, errors.SubprocessError, errors.GetErrorMessage(errors.ErrToolMissing), errors.ErrToolMissing)
		}
		return nil, errors.Wrap(err, errors.SubprocessError, errors.GetErrorMessage(errors.ErrToolStart), errors.ErrToolStart)
	}

	if stdinPipe != nil {
		go func() {
			// write errors only mean the process stopped reading
			_, _ = io.Copy(stdinPipe, s.stdin)
			_ = stdinPipe.Close()
		}()
	}

	return s, nil
}

// Read reads the process stdout. At EOF the process is reaped and a failed
// exit is returned in place of io.EOF.
func (s *Stream) Read(p []byte) (int, error) {
	n, err := s.stdout.Read(p)
	if err == io.EOF {
		if werr := s.wait(); werr != nil {
			return n, werr
		}
	}
	return n, err
}

// Close kills the process group if it is still running and reaps it.
func (s *Stream) Close() error {
	select {
	case <-s.done:
		return nil
	default:
	}
	s.closing.Store(true)
	s.cancel()
	_ = s.stdout.Close()
	_ = s.wait()
	return nil
}

// Done is closed once the process has been reaped.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Pid returns the process id.
func (s *Stream) Pid() int {
	if s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// Stderr returns the retained tail of the tool's stderr.
func (s *Stream) Stderr() string {
	return s.stderr.Tail()
}

func (s *Stream) wait() error {
	s.waitOnce.Do(func() {
		err := s.cmd.Wait()
		cancelled := s.ctx.Err() != nil
		s.cancel()

		switch {
		case s.closing.Load():
			s.waitErr = nil
		case cancelled:
			s.waitErr = s.ctx.Err()
		case err != nil && !stderrors.Is(err, exec.ErrWaitDelay):
			s.waitErr = s.onExit(err, s.stderr.Tail())
		case s.stdin != nil && s.stdin.Err() != nil:
			s.waitErr = errors.Wrap(s.stdin.Err(), errors.UpstreamFetchError,
				errors.GetErrorMessage(errors.ErrUpstreamRead), errors.ErrUpstreamRead)
		}
		close(s.done)
	})
	return s.waitErr
}

func defaultOnExit(err error, stderr string) error {
	e := errors.Wrap(err, errors.SubprocessError, errors.GetErrorMessage(errors.ErrToolExit), errors.ErrToolExit)
	if stderr != "" {
		e.Details = e.Details + ": " + stderr
	}
	return e
}

// recordingReader remembers the first non-EOF read error.
type recordingReader struct {
	r   io.Reader
	mu  sync.Mutex
	err error
}

func (r *recordingReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if err != nil && err != io.EOF {
		r.mu.Lock()
		if r.err == nil {
			r.err = err
		}
		r.mu.Unlock()
	}
	return n, err
}

func (r *recordingReader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
