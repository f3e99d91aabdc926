package process

import (
	"bytes"
	"strings"
	"sync"

	"github.com/heyjunin/MediaPresso/pkg/logger"
)

const tailLines = 20

// lineWriter logs each stderr line at debug and keeps the last few lines.
type lineWriter struct {
	logger    logger.Logger
	component string

	mu      sync.Mutex
	partial []byte
	tail    []string
}

func newLineWriter(l logger.Logger, component string) *lineWriter {
	return &lineWriter{logger: l, component: component}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.partial = append(w.partial, p...)
	for {
		i := bytes.IndexByte(w.partial, '\n')
		if i < 0 {
			break
		}
		w.line(string(bytes.TrimRight(w.partial[:i], "\r")))
		w.partial = w.partial[i+1:]
	}
	return len(p), nil
}

func (w *lineWriter) line(s string) {
	if strings.TrimSpace(s) == "" {
		return
	}
	w.logger.Debug(s, w.component, nil)
	w.tail = append(w.tail, s)
	if len(w.tail) > tailLines {
		w.tail = w.tail[len(w.tail)-tailLines:]
	}
}

// Tail returns the retained lines joined with newlines, including any
// unterminated last line.
func (w *lineWriter) Tail() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	lines := w.tail
	if rest := strings.TrimSpace(string(w.partial)); rest != "" {
		lines = append(append([]string(nil), lines...), rest)
	}
	return strings.Join(lines, "\n")
}
