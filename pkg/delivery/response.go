package delivery

import (
	stderrors "errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/heyjunin/MediaPresso/pkg/errors"
	"github.com/heyjunin/MediaPresso/pkg/format"
	"github.com/heyjunin/MediaPresso/pkg/metrics"
	"github.com/heyjunin/MediaPresso/pkg/process"
)

// Response is an open outbound stream.
type Response struct {
	ContentType string
	// ContentLength is -1 when it must not be advertised.
	ContentLength int64
	Filename      string
	// Path is one of PathDirect, PathTranscode, PathTool.
	Path string
	Body io.Reader

	closers   []io.Closer
	proc      *process.Stream
	metrics   *metrics.Metrics
	done      func(result string)
	closeOnce sync.Once
	result    string
}

// Header returns the response headers for the stream.
func (r *Response) Header() http.Header {
	h := http.Header{}
	h.Set("Content-Type", r.ContentType)
	h.Set("Content-Disposition", `attachment; filename="`+escapeFilename(r.Filename)+`"`)
	if r.ContentLength >= 0 {
		h.Set("Content-Length", strconv.FormatInt(r.ContentLength, 10))
	}
	return h
}

// Stream copies the body to w, flushing after every write when w is an
// http.Flusher. Bytes already written cannot be taken back on error.
func (r *Response) Stream(w io.Writer) (int64, error) {
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 32*1024)
	var written int64
	for {
		n, rerr := r.Body.Read(buf)
		if n > 0 {
			m, werr := w.Write(buf[:n])
			written += int64(m)
			if werr != nil {
				r.result = "aborted"
				r.metrics.Bytes(r.Path, written)
				return written, errors.Wrap(werr, errors.UpstreamFetchError, errors.GetErrorMessage(errors.ErrUpstreamWrite), errors.ErrUpstreamWrite)
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if rerr == io.EOF {
			r.result = "success"
			r.metrics.Bytes(r.Path, written)
			return written, nil
		}
		if rerr != nil {
			r.result = "error"
			r.metrics.Bytes(r.Path, written)
			if _, ok := errors.As(rerr); ok {
				return written, rerr
			}
			return written, errors.Wrap(rerr, errors.UpstreamFetchError, errors.GetErrorMessage(errors.ErrUpstreamRead), errors.ErrUpstreamRead)
		}
	}
}

// Close closes the upstream body, then kills and reaps any subprocess.
func (r *Response) Close() error {
	var errs []error
	r.closeOnce.Do(func() {
		for _, c := range r.closers {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if r.done != nil {
			result := r.result
			if result == "" {
				result = "aborted"
			}
			r.done(result)
		}
	})
	return stderrors.Join(errs...)
}

// Filename sanitises name and appends an extension when it has none: the
// target's container, else one derived from contentType.
func Filename(name, target, contentType string) string {
	name = sanitize(name)
	if name == "" {
		name = "download"
	}
	if format.FromFilename(name) != "" {
		return name
	}
	ext := ""
	if target != "" {
		ext = format.Classify(target).Container
	} else {
		ext = format.ExtensionForContentType(contentType)
	}
	return name + "." + ext
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == '"':
			b.WriteRune('_')
		case r < 0x20 || r == 0x7f:
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(strings.TrimSpace(b.String()), ".")
}

// escapeFilename percent-encodes like encodeURIComponent so the header value
// is plain ASCII.
func escapeFilename(name string) string {
	return strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
}
