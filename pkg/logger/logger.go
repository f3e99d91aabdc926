package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel defines the severity level for log events.
type LogLevel string

const (
	// DebugLevel indicates detailed tracing information, such as subprocess stderr.
	DebugLevel LogLevel = "debug"
	// InfoLevel indicates general operational information.
	InfoLevel LogLevel = "info"
	// WarnLevel indicates degraded results or recoverable failures.
	WarnLevel LogLevel = "warn"
	// ErrorLevel indicates failures that end a request.
	ErrorLevel LogLevel = "error"
	// FatalLevel indicates severe error events that will presumably lead the application to abort.
	FatalLevel LogLevel = "fatal"
)

// Options configures the global logger.
type Options struct {
	// Level is a zerolog level name; empty means info.
	Level string
	// Pretty switches to the human-readable console writer.
	Pretty bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

// Init initializes the global zerolog logger.
// JSON output with Unix timestamps unless Pretty is set.
// This should typically be called once at application startup.
func Init(opts Options) error {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(opts.Level)
		if err != nil {
			return err
		}
		level = parsed
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out}
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return nil
}

// Log is the core logging function.
// Use the specific level functions (Debug, Info, Warn, Error, Fatal) instead of calling Log directly.
func Log(level LogLevel, message, component string, data map[string]interface{}) {
	logger := log.With().
		Str("component", component).
		Fields(data).
		Logger()

	switch level {
	case DebugLevel:
		logger.Debug().Msg(message)
	case InfoLevel:
		logger.Info().Msg(message)
	case WarnLevel:
		logger.Warn().Msg(message)
	case ErrorLevel:
		logger.Error().Msg(message)
	case FatalLevel:
		logger.Fatal().Msg(message)
	}
}

// Debug logs a message at the Debug level with the specified component and optional data.
func Debug(message, component string, data map[string]interface{}) {
	Log(DebugLevel, message, component, data)
}

// Info logs a message at the Info level.
func Info(message, component string, data map[string]interface{}) {
	Log(InfoLevel, message, component, data)
}

// Warn logs a message at the Warn level.
func Warn(message, component string, data map[string]interface{}) {
	Log(WarnLevel, message, component, data)
}

// Error logs a message at the Error level.
func Error(message, component string, data map[string]interface{}) {
	Log(ErrorLevel, message, component, data)
}

// Fatal logs a message at the Fatal level and then calls os.Exit(1).
func Fatal(message, component string, data map[string]interface{}) {
	Log(FatalLevel, message, component, data)
}
