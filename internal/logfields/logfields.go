package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyOperation  = "operation"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyFile       = "file"
	KeyPath       = "path"
	KeyRule       = "rule"
	KeyManifest   = "manifest"
	KeyCount      = "count"
	KeyOutcome    = "outcome"
	KeyEvent      = "event"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Operation(op string) slog.Attr   { return slog.String(KeyOperation, op) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func File(p string) slog.Attr         { return slog.String(KeyFile, p) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Rule(r string) slog.Attr         { return slog.String(KeyRule, r) }
func Manifest(n string) slog.Attr     { return slog.String(KeyManifest, n) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Event(e string) slog.Attr        { return slog.String(KeyEvent, e) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
