package logger

// Logger defines a standard logging interface for the application
type Logger interface {
	Debug(message string, component string, data map[string]interface{})
	Info(message string, component string, data map[string]interface{})
	Warn(message string, component string, data map[string]interface{})
	Error(message string, component string, data map[string]interface{})
	Fatal(message string, component string, data map[string]interface{})
}

// DefaultLogger forwards to the global zerolog logger, merging its base
// fields into every event.
type DefaultLogger struct {
	fields map[string]interface{}
}

// NewLogger creates a new instance of the default logger
func NewLogger() Logger {
	return &DefaultLogger{}
}

// With returns a logger that adds fields to every event, e.g. a request id.
func (l *DefaultLogger) With(fields map[string]interface{}) *DefaultLogger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &DefaultLogger{fields: merged}
}

func (l *DefaultLogger) merge(data map[string]interface{}) map[string]interface{} {
	if len(l.fields) == 0 {
		return data
	}
	out := make(map[string]interface{}, len(l.fields)+len(data))
	for k, v := range l.fields {
		out[k] = v
	}
	for k, v := range data {
		out[k] = v
	}
	return out
}

func (l *DefaultLogger) Debug(message string, component string, data map[string]interface{}) {
	Debug(message, component, l.merge(data))
}

func (l *DefaultLogger) Info(message string, component string, data map[string]interface{}) {
	Info(message, component, l.merge(data))
}

func (l *DefaultLogger) Warn(message string, component string, data map[string]interface{}) {
	Warn(message, component, l.merge(data))
}

func (l *DefaultLogger) Error(message string, component string, data map[string]interface{}) {
	Error(message, component, l.merge(data))
}

func (l *DefaultLogger) Fatal(message string, component string, data map[string]interface{}) {
	Fatal(message, component, l.merge(data))
}

// Nop discards everything. Useful in tests.
type Nop struct{}

func (Nop) Debug(string, string, map[string]interface{}) {}
func (Nop) Info(string, string, map[string]interface{})  {}
func (Nop) Warn(string, string, map[string]interface{})  {}
func (Nop) Error(string, string, map[string]interface{}) {}
func (Nop) Fatal(string, string, map[string]interface{}) {}
