package errors

// ErrorCategory routes a failure to an issue code, an exit code and a retry decision.
type ErrorCategory string

const (
	CategoryConfig     ErrorCategory = "config"     // configuration, manifests, missing sources
	CategoryValidation ErrorCategory = "validation" // command-line usage
	CategoryLint       ErrorCategory = "lint"
	CategoryBundle     ErrorCategory = "bundle"
	CategoryStyle      ErrorCategory = "style"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryNetwork    ErrorCategory = "network"
	CategoryHistory    ErrorCategory = "history"
	CategoryWatch      ErrorCategory = "watch"
	CategoryRuntime    ErrorCategory = "runtime"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorSeverity indicates how far a failure propagates.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"
	SeverityError   ErrorSeverity = "error"
	SeverityWarning ErrorSeverity = "warning"
	SeverityInfo    ErrorSeverity = "info"
)

// RetryStrategy tells callers whether repeating the same work can help.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"
	RetryBackoff    RetryStrategy = "backoff"
	RetryUserAction RetryStrategy = "user" // sources or config must be edited first
)

// Context keys with dedicated accessors on ClassifiedError.
const (
	ContextKeyFile   = "file"
	ContextKeyLine   = "line"
	ContextKeyColumn = "column"
	ContextKeyTool   = "tool"
	ContextKeyRule   = "rule"
)

// ErrorContext carries structured diagnostic fields.
type ErrorContext map[string]any

// Set stores value under key, allocating the map when needed.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext, 1)
	}
	c[key] = value
	return c
}

// GetString returns the value under key when it is a string.
func (c ErrorContext) GetString(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}

// GetInt returns the value under key when it is an int.
func (c ErrorContext) GetInt(key string) (int, bool) {
	n, ok := c[key].(int)
	return n, ok
}
