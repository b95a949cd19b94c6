package errors

import "maps"

// ErrorBuilder assembles a ClassifiedError.
type ErrorBuilder struct {
	err ClassifiedError
}

func newBuilder(category ErrorCategory, message string, cause error) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
		cause:    cause,
	}}
}

// NewError starts a ClassifiedError with error severity and no retry.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return newBuilder(category, message, nil)
}

// WrapError starts a ClassifiedError around cause.
func WrapError(cause error, category ErrorCategory, message string) *ErrorBuilder {
	return newBuilder(category, message, cause)
}

func (b *ErrorBuilder) WithSeverity(s ErrorSeverity) *ErrorBuilder {
	b.err.severity = s
	return b
}

func (b *ErrorBuilder) WithRetry(r RetryStrategy) *ErrorBuilder {
	b.err.retry = r
	return b
}

func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.Set(key, value)
	return b
}

// WithFile records the source file the failure points at.
func (b *ErrorBuilder) WithFile(path string) *ErrorBuilder {
	return b.WithContext(ContextKeyFile, path)
}

// WithLocation records a file position. Zero line or column values are omitted.
func (b *ErrorBuilder) WithLocation(path string, line, column int) *ErrorBuilder {
	b.WithFile(path)
	if line > 0 {
		b.WithContext(ContextKeyLine, line)
		if column > 0 {
			b.WithContext(ContextKeyColumn, column)
		}
	}
	return b
}

// WithTool names the external tool that reported the failure.
func (b *ErrorBuilder) WithTool(name string) *ErrorBuilder {
	return b.WithContext(ContextKeyTool, name)
}

// WithRule records the lint rule that failed.
func (b *ErrorBuilder) WithRule(rule string) *ErrorBuilder {
	return b.WithContext(ContextKeyRule, rule)
}

func (b *ErrorBuilder) Fatal() *ErrorBuilder      { return b.WithSeverity(SeverityFatal) }
func (b *ErrorBuilder) Warning() *ErrorBuilder    { return b.WithSeverity(SeverityWarning) }
func (b *ErrorBuilder) Retryable() *ErrorBuilder  { return b.WithRetry(RetryBackoff) }
func (b *ErrorBuilder) UserAction() *ErrorBuilder { return b.WithRetry(RetryUserAction) }

// Build returns the error. The builder may keep being used; later calls do not affect it.
func (b *ErrorBuilder) Build() *ClassifiedError {
	out := b.err
	out.context = maps.Clone(b.err.context)
	return &out
}

// ConfigError reports a bad configuration or manifest, or a missing source file.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal().UserAction()
}

// ValidationError reports invalid command-line input or option values.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).Fatal()
}

// LintError reports error-severity lint findings.
func LintError(message string) *ErrorBuilder {
	return NewError(CategoryLint, message).UserAction()
}

// BundleError reports a module bundler failure.
func BundleError(message string) *ErrorBuilder {
	return NewError(CategoryBundle, message).UserAction().WithTool("esbuild")
}

// StyleError reports a stylesheet compiler failure.
func StyleError(message string) *ErrorBuilder {
	return NewError(CategoryStyle, message).UserAction()
}

func FileSystemError(message string) *ErrorBuilder {
	return NewError(CategoryFileSystem, message).Retryable()
}

func NetworkError(message string) *ErrorBuilder {
	return NewError(CategoryNetwork, message).Retryable()
}

func WatchError(message string) *ErrorBuilder {
	return NewError(CategoryWatch, message).Fatal()
}

func RuntimeError(message string) *ErrorBuilder {
	return NewError(CategoryRuntime, message).Fatal()
}

func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}
