package errors

// Códigos de erro para diferentes componentes
const (
	// Códigos de erro para UnsupportedPlatform (1000-1099)
	ErrPlatformUnknown        = 1000
	ErrPlatformNotImplemented = 1001

	// Códigos de erro para ExtractionFailure (1100-1199)
	ErrNoCandidates        = 1100
	ErrStrategiesExhausted = 1101
	ErrHostedNoURL         = 1102
	ErrMetadataFetch       = 1103
	ErrStrategyPanic       = 1104

	// Códigos de erro para UpstreamFetchError (1200-1299)
	ErrUpstreamRequest = 1200
	ErrUpstreamStatus  = 1201
	ErrUpstreamTimeout = 1202
	ErrUpstreamRead    = 1203
	ErrUpstreamWrite   = 1204

	// Códigos de erro para SubprocessError (1300-1399)
	ErrToolMissing = 1300
	ErrToolStart   = 1301
	ErrToolExit    = 1302
	ErrToolOutput  = 1303

	// Códigos de erro para TranscodeError (1400-1499)
	ErrTranscodeUnsupported = 1400
	ErrTranscoderStart      = 1401
	ErrTranscoderExit       = 1402

	// Códigos de erro para ValidationError (1500-1599)
	ErrMissingURL        = 1500
	ErrInvalidURL        = 1501
	ErrUnsupportedFormat = 1502
	ErrInvalidConfig     = 1503
)
