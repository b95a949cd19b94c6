package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
)

// Process exit codes.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 2
	ExitLint     = 3
	ExitConfig   = 7
	ExitNetwork  = 8
	ExitInternal = 10
	ExitBuild    = 11
	ExitRuntime  = 12
)

var exitCodes = map[ErrorCategory]int{
	CategoryValidation: ExitUsage,
	CategoryLint:       ExitLint,
	CategoryConfig:     ExitConfig,
	CategoryNetwork:    ExitNetwork,
	CategoryInternal:   ExitInternal,
	CategoryBundle:     ExitBuild,
	CategoryStyle:      ExitBuild,
	CategoryFileSystem: ExitBuild,
	CategoryWatch:      ExitRuntime,
	CategoryRuntime:    ExitRuntime,
	CategoryHistory:    ExitRuntime,
}

// CLIErrorAdapter turns a command error into a diagnostic and an exit code.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	stderr  io.Writer
	exit    func(int)
}

func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger, stderr: os.Stderr, exit: os.Exit}
}

// ExitCodeFor maps err to a process exit code. Unclassified errors exit 1.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	ce, ok := AsClassified(err)
	if !ok {
		return ExitFailure
	}
	if code, ok := exitCodes[ce.Category()]; ok {
		return code
	}
	return ExitFailure
}

// FormatError renders err for the terminal. Verbose output appends the
// context fields of the classified error, sorted by key.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	out := "Error: " + err.Error()
	ce, ok := AsClassified(err)
	if !ok || !a.verbose || len(ce.Context()) == 0 {
		return out
	}
	ctx := ce.Context()
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	b.WriteString(out)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  %s: %v", k, ctx[k])
	}
	return b.String()
}

// HandleError prints the diagnostic and exits. Nil is a no-op.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	if a.shouldLog(err) {
		a.logError(err)
	}
	fmt.Fprintln(a.stderr, a.FormatError(err))
	a.exit(a.ExitCodeFor(err))
}

func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}
	ce, ok := AsClassified(err)
	return !ok || ce.IsFatal()
}

func (a *CLIErrorAdapter) logError(err error) {
	ce, ok := AsClassified(err)
	if !ok {
		a.logger.Error("Command failed", logfields.Error(err))
		return
	}
	attrs := []slog.Attr{slog.String("category", string(ce.Category()))}
	if loc := ce.Location(); loc != "" {
		attrs = append(attrs, logfields.File(loc))
	}
	if tool := ce.Tool(); tool != "" {
		attrs = append(attrs, slog.String("tool", tool))
	}
	if rule := ce.Rule(); rule != "" {
		attrs = append(attrs, logfields.Rule(rule))
	}
	if ce.CanRetry() {
		attrs = append(attrs, slog.Bool("retryable", true))
	}
	a.logger.LogAttrs(context.Background(), levelFor(ce.Severity()), ce.Message(), attrs...)
}

func levelFor(s ErrorSeverity) slog.Level {
	switch s {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
