package errors

import (
	stderrors "errors"
	"strconv"
	"strings"
)

// ClassifiedError is a failure with a category, a severity and diagnostic context.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	retry    RetryStrategy
	message  string
	cause    error
	context  ErrorContext
}

// Error renders "category[tool]: message (file path:line:col): cause".
// The tool and location parts appear only when recorded.
func (e *ClassifiedError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.category))
	if tool := e.Tool(); tool != "" {
		b.WriteString("[" + tool + "]")
	}
	b.WriteString(": ")
	b.WriteString(e.message)
	if loc := e.Location(); loc != "" {
		b.WriteString(" (file " + loc + ")")
	}
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

func (e *ClassifiedError) Unwrap() error { return e.cause }

func (e *ClassifiedError) Category() ErrorCategory      { return e.category }
func (e *ClassifiedError) Severity() ErrorSeverity      { return e.severity }
func (e *ClassifiedError) RetryStrategy() RetryStrategy { return e.retry }
func (e *ClassifiedError) Message() string              { return e.message }
func (e *ClassifiedError) Context() ErrorContext        { return e.context }

// File returns the source file the failure points at, if known.
func (e *ClassifiedError) File() string {
	s, _ := e.context.GetString(ContextKeyFile)
	return s
}

// Tool names the external tool (esbuild, sass, eslint) that reported the failure.
func (e *ClassifiedError) Tool() string {
	s, _ := e.context.GetString(ContextKeyTool)
	return s
}

// Rule returns the lint rule behind a lint failure.
func (e *ClassifiedError) Rule() string {
	s, _ := e.context.GetString(ContextKeyRule)
	return s
}

// Location returns "file", "file:line" or "file:line:col"; empty without a file.
func (e *ClassifiedError) Location() string {
	file := e.File()
	if file == "" {
		return ""
	}
	line, ok := e.context.GetInt(ContextKeyLine)
	if !ok || line <= 0 {
		return file
	}
	loc := file + ":" + strconv.Itoa(line)
	if col, ok := e.context.GetInt(ContextKeyColumn); ok && col > 0 {
		loc += ":" + strconv.Itoa(col)
	}
	return loc
}

// Is matches another ClassifiedError with the same category and message.
func (e *ClassifiedError) Is(target error) bool {
	other, ok := target.(*ClassifiedError)
	return ok && e.category == other.category && e.message == other.message
}

// CanRetry reports whether repeating the work unchanged may succeed.
func (e *ClassifiedError) CanRetry() bool { return e.retry == RetryBackoff }

func (e *ClassifiedError) IsFatal() bool { return e.severity == SeverityFatal }

// AsClassified returns the first ClassifiedError in the chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var ce *ClassifiedError
	if stderrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// HasCategory reports whether the first ClassifiedError in the chain has category c.
func HasCategory(err error, c ErrorCategory) bool {
	ce, ok := AsClassified(err)
	return ok && ce.category == c
}

// CategoryOf returns the category of err, treating unclassified errors as internal.
func CategoryOf(err error) ErrorCategory {
	if ce, ok := AsClassified(err); ok {
		return ce.category
	}
	return CategoryInternal
}
