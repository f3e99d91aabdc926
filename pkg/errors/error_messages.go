package errors

// ErrorMessages holds the standard client-facing message for each code.
var ErrorMessages = map[int]string{
	// UnsupportedPlatform
	ErrPlatformUnknown:        "Unsupported platform or service not implemented yet",
	ErrPlatformNotImplemented: "No extraction strategy is registered for this platform",

	// ExtractionFailure
	ErrNoCandidates:        "Extraction produced no media candidates",
	ErrStrategiesExhausted: "All extraction strategies failed",
	ErrHostedNoURL:         "Resolution service returned no direct URL",
	ErrMetadataFetch:       "Failed to fetch page metadata",
	ErrStrategyPanic:       "Extraction strategy crashed",

	// UpstreamFetchError
	ErrUpstreamRequest: "Failed to reach the media source",
	ErrUpstreamStatus:  "Media source answered with an error status",
	ErrUpstreamTimeout: "Media source timed out",
	ErrUpstreamRead:    "Failed to read from the media source",
	ErrUpstreamWrite:   "Failed to write the downloaded media",

	// SubprocessError
	ErrToolMissing: "Required external tool is not installed",
	ErrToolStart:   "Failed to start external tool",
	ErrToolExit:    "External tool exited with an error",
	ErrToolOutput:  "External tool produced unreadable output",

	// TranscodeError
	ErrTranscodeUnsupported: "Conversion to the requested format is not supported",
	ErrTranscoderStart:      "Failed to start the transcoder",
	ErrTranscoderExit:       "Transcoder exited with an error",

	// ValidationError
	ErrMissingURL:        "URL is required",
	ErrInvalidURL:        "URL is malformed",
	ErrUnsupportedFormat: "Format is not supported",
	ErrInvalidConfig:     "Invalid configuration",
}

// GetErrorMessage returns the standard message for an error code.
func GetErrorMessage(code int) string {
	if msg, ok := ErrorMessages[code]; ok {
		return msg
	}
	return "Unknown error."
}
