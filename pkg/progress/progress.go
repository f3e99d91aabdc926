package progress

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/heyjunin/MediaPresso/pkg/logger"
	"github.com/schollz/progressbar/v3"
)

// Event is a single progress update, often serialized to JSON.
type Event struct {
	// Status is one of "initialized", "started", "processing", "completed".
	Status string `json:"status"`
	// Percentage is 0-100, or -1 when the total is unknown.
	Percentage float64 `json:"percentage"`
	// Bytes transferred so far.
	Bytes int64 `json:"bytes"`
	// Total is the expected size in bytes, -1 when unknown.
	Total int64 `json:"total"`
	// Stage describes what is being transferred (e.g. "direct", "transcode").
	Stage     string `json:"stage,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Reporter receives byte counts from a long-running transfer.
type Reporter interface {
	// Start begins reporting. A negative total means the size is unknown.
	Start(total int64)
	// Add records n more bytes.
	Add(n int64)
	// Complete marks the transfer as finished.
	Complete()
	// Updates emits throttled events and is closed by Complete.
	Updates() <-chan Event
	// JSON returns the latest event as a JSON string.
	JSON() (string, error)
}

type reporterOptions struct {
	throttle         time.Duration
	description      string
	stage            string
	writer           io.Writer
	progressFilePath string
}

// ReporterOption configures a DefaultReporter.
type ReporterOption func(*reporterOptions)

// WithThrottle sets the minimum interval between events on Updates.
func WithThrottle(d time.Duration) ReporterOption {
	return func(o *reporterOptions) { o.throttle = d }
}

// WithDescription sets the progress bar label.
func WithDescription(desc string) ReporterOption {
	return func(o *reporterOptions) { o.description = desc }
}

// WithStage sets the Stage field of every event.
func WithStage(stage string) ReporterOption {
	return func(o *reporterOptions) { o.stage = stage }
}

// WithWriter sends the progress bar somewhere other than stderr.
func WithWriter(w io.Writer) ReporterOption {
	return func(o *reporterOptions) { o.writer = w }
}

// WithProgressFile writes the latest event as JSON to path on every update.
func WithProgressFile(path string) ReporterOption {
	return func(o *reporterOptions) { o.progressFilePath = path }
}

// DefaultReporter draws a console bar with schollz/progressbar and publishes
// events on a channel.
type DefaultReporter struct {
	opts       reporterOptions
	bar        *progressbar.ProgressBar
	event      Event
	updatesCh  chan Event
	lastUpdate time.Time
	done       bool
	mu         sync.Mutex
}

// NewReporter creates a DefaultReporter.
func NewReporter(opts ...ReporterOption) *DefaultReporter {
	options := reporterOptions{
		description: "Downloading",
		writer:      os.Stderr,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &DefaultReporter{
		opts: options,
		event: Event{
			Status:    "initialized",
			Total:     -1,
			Stage:     options.stage,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		updatesCh: make(chan Event, 10),
	}
}

func (r *DefaultReporter) Start(total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if total < 0 {
		total = -1
	}
	r.event.Status = "started"
	r.event.Total = total
	r.event.Bytes = 0
	r.event.Percentage = percentage(0, total)
	r.event.Timestamp = time.Now().Format(time.RFC3339)

	r.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(r.opts.description),
		progressbar.OptionSetWriter(r.opts.writer),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	r.send(true)
}

func (r *DefaultReporter) Add(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bar == nil || n <= 0 {
		return
	}
	r.event.Bytes += n
	r.event.Status = "processing"
	r.event.Percentage = percentage(r.event.Bytes, r.event.Total)
	r.event.Timestamp = time.Now().Format(time.RFC3339)
	_ = r.bar.Add64(n)
	r.send(false)
}

func (r *DefaultReporter) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done {
		return
	}
	r.done = true
	if r.bar != nil {
		_ = r.bar.Finish()
		r.bar = nil
	}
	if r.event.Total < 0 {
		r.event.Total = r.event.Bytes
	}
	r.event.Status = "completed"
	r.event.Percentage = 100
	r.event.Timestamp = time.Now().Format(time.RFC3339)
	r.send(true)
	close(r.updatesCh)
}

func (r *DefaultReporter) Updates() <-chan Event {
	return r.updatesCh
}

func (r *DefaultReporter) JSON() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, err := json.Marshal(r.event)
	if err != nil {
		return "", fmt.Errorf("failed to marshal progress event: %w", err)
	}
	return string(data), nil
}

// send publishes the current event. Requires the lock.
func (r *DefaultReporter) send(force bool) {
	now := time.Now()
	if !force && now.Sub(r.lastUpdate) < r.opts.throttle {
		return
	}
	r.lastUpdate = now

	select {
	case r.updatesCh <- r.event:
	default:
	}
	r.writeProgressFile()
}

func (r *DefaultReporter) writeProgressFile() {
	if r.opts.progressFilePath == "" {
		return
	}
	content, err := json.Marshal(r.event)
	if err != nil {
		return
	}
	if err := os.WriteFile(r.opts.progressFilePath, content, 0644); err != nil {
		logger.Warn("Failed to write progress file", "progress", map[string]interface{}{
			"path":  r.opts.progressFilePath,
			"error": err.Error(),
		})
	}
}

func percentage(current, total int64) float64 {
	if total < 0 {
		return -1
	}
	if total == 0 {
		return 0
	}
	return float64(current) / float64(total) * 100
}

// NewReader reports every byte read from r.
func NewReader(r io.Reader, reporter Reporter) io.Reader {
	return &reader{r: r, reporter: reporter}
}

type reader struct {
	r        io.Reader
	reporter Reporter
}

func (pr *reader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.reporter.Add(int64(n))
	}
	return n, err
}
