package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorType defines distinct categories for errors originating from MediaPresso components.
type ErrorType string

const (
	// UnsupportedPlatform means no extraction strategy exists for the URL's domain.
	UnsupportedPlatform ErrorType = "unsupported_platform"
	// ExtractionFailure means every strategy for a recognised platform was exhausted.
	ExtractionFailure ErrorType = "extraction_failure"
	// UpstreamFetchError covers network errors, timeouts and non-2xx answers from the media source.
	UpstreamFetchError ErrorType = "upstream_fetch_error"
	// SubprocessError covers a missing tool, a non-zero exit or malformed tool output.
	SubprocessError ErrorType = "subprocess_error"
	// TranscodeError covers transcoder crashes and conversions the transcoder cannot do.
	TranscodeError ErrorType = "transcode_error"
	// ValidationError represents errors caused by invalid input parameters or configuration.
	ValidationError ErrorType = "validation_error"
)

// StructuredError represents a detailed error originating from MediaPresso operations.
// It includes a type, message, optional details, timestamp, and a specific error code.
// It implements the standard Go `error` interface.
type StructuredError struct {
	// Type categorizes the error (e.g., UpstreamFetchError, TranscodeError).
	Type ErrorType `json:"type"`
	// Message provides a concise, human-readable description of the error.
	Message string `json:"message"`
	// Details offers additional context or the underlying error message, if available.
	Details string `json:"details,omitempty"`
	// Platform echoes the resolved platform for extraction errors.
	Platform string `json:"platform,omitempty"`
	// Timestamp marks when the error occurred in RFC3339 format.
	Timestamp string `json:"timestamp"`
	// Code provides a specific integer code, see error_codes.go.
	Code int `json:"code"`

	cause error
}

// Error implements the standard `error` interface for StructuredError.
func (e *StructuredError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("[%s] %s", e.Type, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Message, e.Details)
}

// Unwrap returns the error passed to Wrap, if any.
func (e *StructuredError) Unwrap() error {
	return e.cause
}

// JSON returns the StructuredError serialized as a JSON string.
func (e *StructuredError) JSON() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WithPlatform returns a copy of the error carrying the platform name.
func (e *StructuredError) WithPlatform(platform string) *StructuredError {
	c := *e
	c.Platform = platform
	return &c
}

// New creates a new StructuredError instance.
// It automatically sets the Timestamp to the current time.
func New(errorType ErrorType, message, details string, code int) *StructuredError {
	return &StructuredError{
		Type:      errorType,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().Format(time.RFC3339),
		Code:      code,
	}
}

// Wrap creates a new StructuredError, using the message from an existing standard Go error
// as the Details field. The original error stays reachable through errors.Is / errors.As.
// If the input error `err` is nil, Details will be empty.
func Wrap(err error, errorType ErrorType, message string, code int) *StructuredError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	e := New(errorType, message, details, code)
	e.cause = err
	return e
}

// Newf is New with the default message for code and formatted details.
func Newf(errorType ErrorType, code int, format string, args ...interface{}) *StructuredError {
	return New(errorType, GetErrorMessage(code), fmt.Sprintf(format, args...), code)
}

// As reports whether err is, or wraps, a StructuredError.
func As(err error) (*StructuredError, bool) {
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// TypeOf returns the ErrorType of err, or an empty type for foreign errors.
func TypeOf(err error) ErrorType {
	if se, ok := As(err); ok {
		return se.Type
	}
	return ""
}

// Is reports whether err is a StructuredError of the given type.
func Is(err error, errorType ErrorType) bool {
	return TypeOf(err) == errorType
}

// HTTPStatus maps an error to the status code the front door answers with.
func HTTPStatus(err error) int {
	switch TypeOf(err) {
	case UnsupportedPlatform, ValidationError:
		return http.StatusBadRequest
	case ExtractionFailure, UpstreamFetchError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
